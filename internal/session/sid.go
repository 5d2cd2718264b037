package session

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sidCookieName = "neurofleet_sid"

// sessionID returns the browser's session id, issuing a new one when the
// request carries none (or a malformed one).
func sessionID(w http.ResponseWriter, r *http.Request, secure bool) string {
	if c, err := r.Cookie(sidCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	return issueSessionID(w, r, secure)
}

// issueSessionID gives the browser a new session id, replacing any id
// already set on the response or carried by r.
func issueSessionID(w http.ResponseWriter, r *http.Request, secure bool) string {
	sid := uuid.New().String()

	header := w.Header()
	var kept []string
	for _, line := range header["Set-Cookie"] {
		if !strings.HasPrefix(line, sidCookieName+"=") {
			kept = append(kept, line)
		}
	}
	header["Set-Cookie"] = kept
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	// Later reads within the same request must see the new id.
	cookies := r.Cookies()
	r.Header.Del("Cookie")
	for _, c := range cookies {
		if c.Name != sidCookieName {
			r.AddCookie(c)
		}
	}
	r.AddCookie(&http.Cookie{Name: sidCookieName, Value: sid})
	return sid
}
