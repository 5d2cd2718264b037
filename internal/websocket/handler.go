package websocket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"neurofleet-console/internal/access"
	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/models"
	"neurofleet-console/internal/session"
	"neurofleet-console/internal/telemetry"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SetCheckOrigin replaces the same-origin check used on upgrade.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// HandleTelemetry upgrades a signed-in request and streams fleet snapshots
// polled with that browser's session until either side goes away. It must
// be mounted behind an access guard, which places the session store in the
// request context.
func HandleTelemetry(hub *Hub, api *gateway.Client, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := access.StoreFrom(r.Context())
		if !ok {
			log.Println("❌ No session store in context for WebSocket connection")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		sess := session.Load(store)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		// The request context stays alive while this handler runs, which
		// keeps request-scoped session stores usable by the poller.
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		role, _ := access.ParseRole(sess.RoleID)
		client := NewClient(session.ID(store), sess.UserID, role.String(), conn, hub, cancel)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()

		log.Printf("✅ Telemetry stream opened for user: %s (%s)", sess.Email, sess.UserID)

		poller := telemetry.NewPoller(api.WithStore(store), interval, func(s models.FleetSnapshot) {
			hub.SendToClient(client, s)
		})
		if err := poller.Run(ctx); errors.Is(err, gateway.ErrSessionInvalidated) {
			hub.End(client, access.LoginPath)
		} else {
			hub.Unregister(client)
		}
		log.Printf("🔴 Telemetry stream closed for user: %s", sess.UserID)
	}
}
