package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func loggedIn() Session {
	return Session{Token: "abc", RoleID: "1", UserID: "7", Email: "ops@fleet.com", UserName: "Ops"}
}

func TestCreateWritesEveryKey(t *testing.T) {
	s := NewMemoryStore()
	s.Set("stale", "x")

	if err := Create(s, loggedIn()); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got := Load(s)
	if got != loggedIn() {
		t.Errorf("expected %+v, got %+v", loggedIn(), got)
	}
	if _, ok := s.Get("stale"); ok {
		t.Errorf("expected previous content to be cleared")
	}
	if !got.Authenticated() {
		t.Errorf("expected session to be authenticated")
	}
}

func TestCreateRequiresTokenAndRole(t *testing.T) {
	cases := []Session{
		{Token: "abc"},
		{RoleID: "1"},
		{},
	}
	for _, c := range cases {
		s := NewMemoryStore()
		if err := Create(s, c); err == nil {
			t.Errorf("expected error for %+v", c)
		}
		if s.Len() != 0 {
			t.Errorf("expected empty store after rejected create, got %d keys", s.Len())
		}
	}
}

func TestClearRemovesAllKeys(t *testing.T) {
	s := NewMemoryStore()
	Create(s, loggedIn())

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	for _, key := range Keys {
		if _, ok := s.Get(key); ok {
			t.Errorf("key %s survived Clear", key)
		}
	}
	// Clearing an empty store is harmless.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear error: %v", err)
	}
}

func TestCreateStampsFreshSessionID(t *testing.T) {
	s := NewMemoryStore()
	Create(s, loggedIn())
	first := ID(s)
	Create(s, loggedIn())
	second := ID(s)

	if first == "" || second == "" {
		t.Fatalf("expected session ids, got %q and %q", first, second)
	}
	if first == second {
		t.Errorf("a new login must get a new session id")
	}
	s.Clear()
	if ID(s) != "" {
		t.Errorf("expected no session id after clear")
	}
}

// renewingStore records renewals the way server-side stores do.
type renewingStore struct {
	*MemoryStore
	renewals int
}

func (r *renewingStore) Renew() error {
	r.renewals++
	return r.MemoryStore.Clear()
}

func TestCreateRenewsServerSideStores(t *testing.T) {
	s := &renewingStore{MemoryStore: NewMemoryStore()}
	s.Set("stale", "x")

	if err := Create(s, loggedIn()); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.renewals != 1 {
		t.Errorf("expected one renewal, got %d", s.renewals)
	}
	if _, ok := s.Get("stale"); ok {
		t.Errorf("expected previous content to be dropped")
	}
	if got := Load(s); got != loggedIn() {
		t.Errorf("expected %+v, got %+v", loggedIn(), got)
	}
}

// brokenStore fails every write of one key. With rollbackErr set it also
// fails to clear a partly written session.
type brokenStore struct {
	*MemoryStore
	failKey     string
	rollbackErr error
}

func (b *brokenStore) Set(key, value string) error {
	if key == b.failKey {
		return errors.New("disk full")
	}
	return b.MemoryStore.Set(key, value)
}

func (b *brokenStore) Clear() error {
	if b.rollbackErr != nil && b.Len() > 0 {
		return b.rollbackErr
	}
	return b.MemoryStore.Clear()
}

func TestCreateDiscardsHalfWrittenSession(t *testing.T) {
	s := &brokenStore{MemoryStore: NewMemoryStore(), failKey: KeyEmail}
	if err := Create(s, loggedIn()); err == nil {
		t.Fatal("expected a write error")
	}
	if s.Len() != 0 {
		t.Errorf("expected nothing left behind, got %d keys", s.Len())
	}
}

func TestCreateReportsFailedDiscard(t *testing.T) {
	s := &brokenStore{MemoryStore: NewMemoryStore(), failKey: KeyEmail, rollbackErr: errors.New("connection reset")}

	err := Create(s, loggedIn())
	if err == nil || !strings.Contains(err.Error(), "disk full") || !errors.Is(err, s.rollbackErr) {
		t.Errorf("expected both the write and the discard failure, got %v", err)
	}
}

func TestMemoryStoreTreatsEmptyAsMissing(t *testing.T) {
	s := NewMemoryStore()
	s.Set(KeyToken, "")
	if v, ok := s.Get(KeyToken); ok {
		t.Errorf("expected an empty token to read as missing, got %q", v)
	}
}

func TestSessionAuthenticatedNeedsBoth(t *testing.T) {
	if (Session{Token: "abc"}).Authenticated() {
		t.Errorf("token without role must not be authenticated")
	}
	if (Session{RoleID: "2"}).Authenticated() {
		t.Errorf("role without token must not be authenticated")
	}
}

func lastCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func TestCookieProviderRoundTrip(t *testing.T) {
	p := NewCookieProvider([]byte("0123456789abcdef0123456789abcdef"), []byte("abcdef0123456789"), false)

	rr1 := httptest.NewRecorder()
	req1 := httptest.NewRequest("POST", "/login", nil)
	store, err := p.Open(rr1, req1)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := Create(store, loggedIn()); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	cookie := lastCookie(rr1, cookieSessionName)
	if cookie == nil {
		t.Fatal("no session cookie set")
	}

	rr2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("GET", "/profile", nil)
	req2.AddCookie(cookie)
	store2, err := p.Open(rr2, req2)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got := Load(store2); got != loggedIn() {
		t.Errorf("expected %+v, got %+v", loggedIn(), got)
	}

	if err := store2.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	rr3 := httptest.NewRecorder()
	req3 := httptest.NewRequest("GET", "/profile", nil)
	req3.AddCookie(lastCookie(rr2, cookieSessionName))
	store3, _ := p.Open(rr3, req3)
	if got := Load(store3); got != (Session{}) {
		t.Errorf("expected empty session after clear, got %+v", got)
	}
}

func TestCookieProviderTamperedCookieIsEmpty(t *testing.T) {
	p := NewCookieProvider([]byte("0123456789abcdef0123456789abcdef"), nil, false)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionName, Value: "garbage"})
	store, err := p.Open(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, ok := store.Get(KeyToken); ok {
		t.Errorf("expected no token from a tampered cookie")
	}
}

func TestSessionIDReusedWithinRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	first := sessionID(rr, req, false)
	second := sessionID(rr, req, false)
	if first != second {
		t.Errorf("expected same id, got %s and %s", first, second)
	}
	if len(rr.Result().Cookies()) != 1 {
		t.Errorf("expected exactly one sid cookie, got %d", len(rr.Result().Cookies()))
	}
}

func TestIssueSessionIDReplacesCarriedID(t *testing.T) {
	planted := "4f1c2b3a-0000-4000-8000-000000000001"
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	req.AddCookie(&http.Cookie{Name: sidCookieName, Value: planted})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

	if got := sessionID(rr, req, false); got != planted {
		t.Fatalf("expected the carried id, got %s", got)
	}
	fresh := issueSessionID(rr, req, false)
	if fresh == planted {
		t.Fatal("expected a new id")
	}
	again := issueSessionID(rr, req, false)
	if again == fresh {
		t.Fatal("expected every issue to mint a new id")
	}
	fresh = again

	if got := sessionID(rr, req, false); got != fresh {
		t.Errorf("later reads should see %s, got %s", fresh, got)
	}
	if c, err := req.Cookie("theme"); err != nil || c.Value != "dark" {
		t.Errorf("unrelated cookies must survive, got %v %v", c, err)
	}
	var sids []string
	for _, c := range rr.Result().Cookies() {
		if c.Name == sidCookieName {
			sids = append(sids, c.Value)
		}
	}
	if len(sids) != 1 || sids[0] != fresh {
		t.Errorf("expected a single sid cookie %s, got %v", fresh, sids)
	}
}

func TestRedisProvider(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := ConnectRedis(ctx, redisURL)
	if err != nil {
		t.Fatalf("ConnectRedis error: %v", err)
	}
	defer client.Close()

	exerciseProvider(t, NewRedisProvider(client, time.Minute, false))
}

func TestPostgresProvider(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := ConnectPostgres(dbURL)
	if err != nil {
		t.Fatalf("ConnectPostgres error: %v", err)
	}
	defer db.Close()
	if err := MigratePostgres(db); err != nil {
		t.Fatalf("MigratePostgres error: %v", err)
	}

	exerciseProvider(t, NewPostgresProvider(db, false))

	if _, err := StatsPostgres(db, time.Hour); err != nil {
		t.Errorf("StatsPostgres error: %v", err)
	}
	if _, err := PruneIdlePostgres(db, 24*time.Hour); err != nil {
		t.Errorf("PruneIdlePostgres error: %v", err)
	}
}

// exerciseProvider checks create, reload by sid cookie and clear for
// providers that keep data server-side.
func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()

	rr1 := httptest.NewRecorder()
	req1 := httptest.NewRequest("POST", "/login", nil)
	store, err := p.Open(rr1, req1)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := Create(store, loggedIn()); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	sid := lastCookie(rr1, sidCookieName)
	if sid == nil {
		t.Fatal("no sid cookie set")
	}

	req2 := httptest.NewRequest("GET", "/profile", nil)
	req2.AddCookie(sid)
	store2, err := p.Open(httptest.NewRecorder(), req2)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got := Load(store2); got != loggedIn() {
		t.Errorf("expected %+v, got %+v", loggedIn(), got)
	}

	if err := store2.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if got := Load(store2); got != (Session{}) {
		t.Errorf("expected empty session after clear, got %+v", got)
	}

	// A login never keeps an id the browser arrived with.
	planted := &http.Cookie{Name: sidCookieName, Value: "4f1c2b3a-0000-4000-8000-000000000002"}
	rr3 := httptest.NewRecorder()
	req3 := httptest.NewRequest("POST", "/login", nil)
	req3.AddCookie(planted)
	store3, err := p.Open(rr3, req3)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := Create(store3, loggedIn()); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	renewed := lastCookie(rr3, sidCookieName)
	if renewed == nil || renewed.Value == planted.Value {
		t.Fatalf("expected a fresh sid after login, got %v", renewed)
	}

	req4 := httptest.NewRequest("GET", "/profile", nil)
	req4.AddCookie(planted)
	stale, _ := p.Open(httptest.NewRecorder(), req4)
	if got := Load(stale); got.Authenticated() {
		t.Errorf("the carried sid must not see the new session, got %+v", got)
	}

	req5 := httptest.NewRequest("GET", "/profile", nil)
	req5.AddCookie(renewed)
	fresh, _ := p.Open(httptest.NewRecorder(), req5)
	if got := Load(fresh); got != loggedIn() {
		t.Errorf("expected %+v under the new sid, got %+v", loggedIn(), got)
	}
	fresh.Clear()
}
