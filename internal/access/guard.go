package access

import (
	"context"
	"log"
	"net/http"

	"neurofleet-console/internal/session"
)

// Decision is the outcome of a guard for one navigation.
type Decision int

const (
	RedirectLogin Decision = iota
	Render
)

func (d Decision) String() string {
	if d == Render {
		return "render"
	}
	return "redirect-login"
}

// present reports whether key holds a non-empty value.
func present(s session.Store, key string) (string, bool) {
	v, ok := s.Get(key)
	return v, ok && v != ""
}

// Authenticated requires a token; strict also requires a role.
func Authenticated(s session.Store, strict bool) Decision {
	if _, ok := present(s, session.KeyToken); !ok {
		return RedirectLogin
	}
	if strict {
		if _, ok := present(s, session.KeyRoleID); !ok {
			return RedirectLogin
		}
	}
	return Render
}

// Permitted requires a token and a role inside allowed. A wrong role is
// answered exactly like a missing login.
func Permitted(s session.Store, allowed RoleSet) Decision {
	if _, ok := present(s, session.KeyToken); !ok {
		return RedirectLogin
	}
	v, ok := present(s, session.KeyRoleID)
	if !ok {
		return RedirectLogin
	}
	role, ok := ParseRole(v)
	if !ok || !allowed.Contains(role) {
		return RedirectLogin
	}
	return Render
}

type contextKey string

const storeContextKey contextKey = "session-store"

// WithStore places the request's session store in ctx.
func WithStore(ctx context.Context, s session.Store) context.Context {
	return context.WithValue(ctx, storeContextKey, s)
}

// StoreFrom returns the store placed by a guard or by OpenStore.
func StoreFrom(ctx context.Context) (session.Store, bool) {
	s, ok := ctx.Value(storeContextKey).(session.Store)
	return s, ok
}

// OpenStore opens the session once per request and makes it available to
// everything downstream, guarded or not.
func OpenStore(provider session.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := StoreFrom(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			store, err := provider.Open(w, r)
			if err != nil {
				log.Printf("❌ Failed to open session: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), store)))
		})
	}
}

// guard re-evaluates decide on every request; nothing is cached.
func guard(provider session.Provider, name string, decide func(session.Store) Decision) func(http.Handler) http.Handler {
	open := OpenStore(provider)
	return func(next http.Handler) http.Handler {
		return open(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := StoreFrom(r.Context())
			if decide(store) != Render {
				log.Printf("🔐 %s guard: %s %s → %s", name, r.Method, r.URL.Path, LoginPath)
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RequireAuthenticated lets only sessions holding a token and a role through.
func RequireAuthenticated(provider session.Provider) func(http.Handler) http.Handler {
	return guard(provider, "auth", func(s session.Store) Decision {
		return Authenticated(s, true)
	})
}

// RequireRoles lets only sessions whose role is in allowed through.
func RequireRoles(provider session.Provider, allowed RoleSet) func(http.Handler) http.Handler {
	return guard(provider, "role", func(s session.Store) Decision {
		return Permitted(s, allowed)
	})
}

// RequireRoute looks the allowed roles up in RouteRoles. Paths missing from
// the table admit nobody.
func RequireRoute(provider session.Provider, path string) func(http.Handler) http.Handler {
	allowed, ok := RouteRoles[path]
	if !ok {
		allowed = Roles()
	}
	return RequireRoles(provider, allowed)
}
