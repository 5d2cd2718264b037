package handlers

import (
	"net/http"

	"neurofleet-console/internal/gateway"
	"neurofleet-console/pkg/utils"
)

func Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		render(w, http.StatusOK, "home", viewFor(store, "Home"))
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}
}

// Ping reports whether the backend answers.
func Ping(api *gateway.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFrom(w, r)
		if !ok {
			return
		}
		reply, err := api.WithStore(store).Ping(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"backend": reply, "status": "ok"})
	}
}
