package session

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const cookieSessionName = "neurofleet-session"

// CookieProvider keeps the whole session inside a signed and encrypted
// browser cookie.
type CookieProvider struct {
	store *sessions.CookieStore
}

// NewCookieProvider builds a provider from a hash key and an optional
// encryption key (16, 24 or 32 bytes).
func NewCookieProvider(hashKey, blockKey []byte, secure bool) *CookieProvider {
	var keys [][]byte
	if len(blockKey) > 0 {
		keys = [][]byte{hashKey, blockKey}
	} else {
		keys = [][]byte{hashKey}
	}
	store := sessions.NewCookieStore(keys...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieProvider{store: store}
}

func (p *CookieProvider) Open(w http.ResponseWriter, r *http.Request) (Store, error) {
	sess, err := p.store.Get(r, cookieSessionName)
	if err != nil {
		// A cookie we cannot decode is treated as an empty session;
		// Get still returns a usable new session in that case.
		if sess == nil {
			return nil, fmt.Errorf("failed to open cookie session: %w", err)
		}
	}
	return &cookieStore{sess: sess, w: w, r: r}, nil
}

type cookieStore struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

func (c *cookieStore) Get(key string) (string, bool) {
	v, ok := c.sess.Values[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (c *cookieStore) Set(key, value string) error {
	c.sess.Values[key] = value
	return c.sess.Save(c.r, c.w)
}

func (c *cookieStore) Clear() error {
	c.sess.Values = make(map[interface{}]interface{})
	return c.sess.Save(c.r, c.w)
}
