package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"neurofleet-console/internal/access"
	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/session"
	"neurofleet-console/pkg/utils"
)

// respondError turns a gateway failure into the console's reply. A cleared
// session is the only case that navigates.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var fields gateway.FieldErrors
	var apiErr *gateway.APIError

	switch {
	case errors.Is(err, gateway.ErrSessionInvalidated):
		log.Printf("🔐 Session ended during %s %s, sending to %s", r.Method, r.URL.Path, access.LoginPath)
		http.Redirect(w, r, access.LoginPath, http.StatusFound)
	case errors.As(err, &fields):
		utils.FieldError(w, fields)
	case errors.As(err, &apiErr):
		utils.Error(w, apiErr.Response.StatusCode, apiErr.Message())
	default:
		log.Printf("❌ Backend call failed for %s %s: %v", r.Method, r.URL.Path, err)
		utils.Error(w, http.StatusBadGateway, "Backend unavailable")
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// storeFrom returns the request's session store, which the router opens
// for every request.
func storeFrom(w http.ResponseWriter, r *http.Request) (session.Store, bool) {
	store, ok := access.StoreFrom(r.Context())
	if !ok {
		log.Printf("❌ No session store for %s %s", r.Method, r.URL.Path)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
	return store, ok
}

// relay copies a backend reply through unchanged.
func relay(w http.ResponseWriter, res *gateway.Response) {
	if len(res.Data) == 0 {
		w.WriteHeader(res.StatusCode)
		return
	}
	utils.RawJSON(w, res.StatusCode, res.Data)
}

// viewFor fills the navigation part of a page from the session.
func viewFor(store session.Store, title string) pageView {
	sess := session.Load(store)
	view := pageView{Title: title, UserName: sess.UserName}
	if role, ok := access.ParseRole(sess.RoleID); ok && sess.Authenticated() {
		view.SignedIn = true
		view.Home = access.HomeFor(role)
	}
	return view
}
