package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"neurofleet-console/internal/session"
)

func storeWith(values map[string]string) *session.MemoryStore {
	s := session.NewMemoryStore()
	for k, v := range values {
		s.Set(k, v)
	}
	return s
}

func TestAuthenticated(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		strict bool
		want   Decision
	}{
		{"no token", map[string]string{}, false, RedirectLogin},
		{"no token strict", map[string]string{"roleId": "1"}, true, RedirectLogin},
		{"token only", map[string]string{"token": "abc"}, false, Render},
		{"token only strict", map[string]string{"token": "abc"}, true, RedirectLogin},
		{"token and role strict", map[string]string{"token": "abc", "roleId": "3"}, true, Render},
		{"empty token strict", map[string]string{"token": "", "roleId": "1"}, true, RedirectLogin},
		{"empty token", map[string]string{"token": ""}, false, RedirectLogin},
		{"empty role strict", map[string]string{"token": "abc", "roleId": ""}, true, RedirectLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authenticated(storeWith(tt.values), tt.strict); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPermitted(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		allowed RoleSet
		want    Decision
	}{
		{"role permitted", map[string]string{"token": "abc", "roleId": "1"}, Roles(Admin), Render},
		{"no token", map[string]string{"roleId": "1"}, Roles(Admin), RedirectLogin},
		{"empty token", map[string]string{"token": "", "roleId": "1"}, Roles(Admin), RedirectLogin},
		{"role not permitted", map[string]string{"token": "abc", "roleId": "1"}, Roles(Manager, Driver, Customer), RedirectLogin},
		{"token without role", map[string]string{"token": "abc"}, Roles(Admin), RedirectLogin},
		{"garbage role", map[string]string{"token": "abc", "roleId": "admin"}, Roles(Admin), RedirectLogin},
		{"unknown role id", map[string]string{"token": "abc", "roleId": "7"}, Roles(Admin), RedirectLogin},
		{"empty allowed set", map[string]string{"token": "abc", "roleId": "1"}, Roles(), RedirectLogin},
		{"nil allowed set", map[string]string{"token": "abc", "roleId": "1"}, nil, RedirectLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Permitted(storeWith(tt.values), tt.allowed); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// staticProvider hands the same store to every request.
type staticProvider struct{ store session.Store }

func (p staticProvider) Open(http.ResponseWriter, *http.Request) (session.Store, error) {
	return p.store, nil
}

func serve(mw func(http.Handler) http.Handler, path string) *httptest.ResponseRecorder {
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := StoreFrom(r.Context()); !ok {
			http.Error(w, "no store", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("children"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
	return rr
}

func expectRender(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusOK || rr.Body.String() != "children" {
		t.Errorf("expected children rendered, got %d %q", rr.Code, rr.Body.String())
	}
}

func expectLoginRedirect(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LoginPath {
		t.Errorf("expected 302 to %s, got %d %q", LoginPath, rr.Code, rr.Header().Get("Location"))
	}
}

func TestRoleGuardScenario(t *testing.T) {
	store := storeWith(map[string]string{"token": "abc", "roleId": "1"})
	p := staticProvider{store}

	expectRender(t, serve(RequireRoles(p, Roles(Admin)), "/admin/dashboard"))

	store.Clear()
	store.Set(session.KeyRoleID, "1")
	expectLoginRedirect(t, serve(RequireRoles(p, Roles(Admin)), "/admin/dashboard"))

	store.Set(session.KeyToken, "abc")
	expectLoginRedirect(t, serve(RequireRoles(p, Roles(Manager, Driver, Customer)), "/admin/dashboard"))
}

func TestRequireAuthenticatedMiddleware(t *testing.T) {
	store := session.NewMemoryStore()
	p := staticProvider{store}

	expectLoginRedirect(t, serve(RequireAuthenticated(p), "/profile"))

	store.Set(session.KeyToken, "abc")
	expectLoginRedirect(t, serve(RequireAuthenticated(p), "/profile"))

	store.Set(session.KeyRoleID, "4")
	expectRender(t, serve(RequireAuthenticated(p), "/profile"))
}

func TestGuardsReevaluateEveryRequest(t *testing.T) {
	store := storeWith(map[string]string{"token": "abc", "roleId": "2"})
	mw := RequireRoute(staticProvider{store}, ManagerDashboardPath)

	expectRender(t, serve(mw, ManagerDashboardPath))
	store.Clear()
	expectLoginRedirect(t, serve(mw, ManagerDashboardPath))
}

func TestRouteTable(t *testing.T) {
	for path, role := range map[string]Role{
		AdminDashboardPath:    Admin,
		ManagerDashboardPath:  Manager,
		DriverDashboardPath:   Driver,
		CustomerDashboardPath: Customer,
	} {
		set := RouteRoles[path]
		if len(set) != 1 || !set.Contains(role) {
			t.Errorf("%s: expected only %v, got %v", path, role, set)
		}
		if HomeFor(role) != path {
			t.Errorf("HomeFor(%v) = %s, want %s", role, HomeFor(role), path)
		}
	}
	if HomeFor(Role(9)) != LoginPath {
		t.Errorf("unknown role should land on login")
	}

	store := storeWith(map[string]string{"token": "abc", "roleId": "1"})
	expectLoginRedirect(t, serve(RequireRoute(staticProvider{store}, "/not/in/table"), "/not/in/table"))
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" 3 "); !ok || r != Driver {
		t.Errorf("expected driver, got %v %v", r, ok)
	}
	if _, ok := ParseRole("0"); ok {
		t.Errorf("0 is not a role")
	}
	if Customer.String() != "customer" {
		t.Errorf("unexpected name %s", Customer.String())
	}
}
