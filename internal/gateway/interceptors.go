package gateway

import (
	"log"
	"net/http"
	"time"

	"neurofleet-console/internal/session"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Middleware wraps a transport with one interceptor stage.
type Middleware func(http.RoundTripper) http.RoundTripper

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain applies middlewares so that the first one sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// AttachToken sets the bearer header from the store's token, if any.
// A request without a token is left untouched and is never rejected.
func AttachToken(req *http.Request, store session.Store) {
	token, ok := store.Get(session.KeyToken)
	if !ok || token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// BearerToken is the outbound stage: the token is read at call time.
func BearerToken(store session.Store) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			out := req.Clone(req.Context())
			AttachToken(out, store)
			return next.RoundTrip(out)
		})
	}
}

// HandleUnauthorized is the inbound check. On a 401 it clears the whole
// store and publishes one invalidation event; it reports whether it did.
// The response itself is never altered.
func HandleUnauthorized(resp *http.Response, store session.Store, bus *InvalidationBus) bool {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return false
	}

	userID, _ := store.Get(session.KeyUserID)
	sessionID := session.ID(store)
	if err := store.Clear(); err != nil {
		log.Printf("❌ Failed to clear session after 401: %v", err)
	}

	ev := InvalidationEvent{SessionID: sessionID, UserID: userID, At: time.Now()}
	if resp.Request != nil {
		ev.Method = resp.Request.Method
		ev.URL = resp.Request.URL.Redacted()
	}
	log.Printf("🔐 Session invalidated by %s %s (user: %q)", ev.Method, ev.URL, userID)

	if bus != nil {
		bus.Publish(ev)
	}
	return true
}

// InvalidateOnUnauthorized is the inbound stage. Transport errors and
// non-401 responses pass through untouched.
func InvalidateOnUnauthorized(store session.Store, bus *InvalidationBus) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return resp, err
			}
			HandleUnauthorized(resp, store, bus)
			return resp, nil
		})
	}
}

// RequestID forwards the console's request id to the backend, minting
// one when the call did not originate from an HTTP request.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("X-Request-ID") != "" {
				return next.RoundTrip(req)
			}
			id := chimiddleware.GetReqID(req.Context())
			if id == "" {
				id = uuid.New().String()
			}
			out := req.Clone(req.Context())
			out.Header.Set("X-Request-ID", id)
			return next.RoundTrip(out)
		})
	}
}
