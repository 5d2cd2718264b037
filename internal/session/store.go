package session

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Key names used in session storage. No other component may store
// unrelated data under these names.
const (
	KeyToken    = "token"
	KeyRoleID   = "roleId"
	KeyUserID   = "userId"
	KeyEmail    = "email"
	KeyUserName = "userName"

	// KeySessionID names one login. Two browsers signed in as the same
	// user hold different ids.
	KeySessionID = "sessionId"
)

// Keys lists every key a login writes and a logout removes.
var Keys = []string{KeyToken, KeyRoleID, KeyUserID, KeyEmail, KeyUserName, KeySessionID}

// Store is the client-side key-value storage holding a single browser's
// session. Get reports false for a missing or empty value. Clear always
// removes every key.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Clear() error
}

// Renewer is implemented by stores that live under a server-side id.
// Renew moves the store to a fresh id and deletes what the old id held.
type Renewer interface {
	Renew() error
}

// Provider hands out the Store that belongs to the browser making r.
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) (Store, error)
}

// Session is a read-only snapshot of a store's contents.
type Session struct {
	Token    string `json:"token,omitempty"`
	RoleID   string `json:"roleId,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// Load takes a snapshot of s.
func Load(s Store) Session {
	get := func(key string) string {
		v, _ := s.Get(key)
		return v
	}
	return Session{
		Token:    get(KeyToken),
		RoleID:   get(KeyRoleID),
		UserID:   get(KeyUserID),
		Email:    get(KeyEmail),
		UserName: get(KeyUserName),
	}
}

// Authenticated reports whether both token and role are present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.RoleID != ""
}

// ID returns the id Create stamped on the session in s, or "".
func ID(s Store) string {
	v, _ := s.Get(KeySessionID)
	return v
}

// Create replaces the contents of s with a freshly logged-in session under
// a new session id. Token and role are always written as a pair.
func Create(s Store, sess Session) error {
	if sess.Token == "" || sess.RoleID == "" {
		return fmt.Errorf("session requires both token and roleId")
	}
	if r, ok := s.(Renewer); ok {
		if err := r.Renew(); err != nil {
			return fmt.Errorf("failed to renew session: %w", err)
		}
	} else if err := s.Clear(); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}

	values := map[string]string{
		KeyToken:     sess.Token,
		KeyRoleID:    sess.RoleID,
		KeyUserID:    sess.UserID,
		KeyEmail:     sess.Email,
		KeyUserName:  sess.UserName,
		KeySessionID: uuid.New().String(),
	}
	for _, key := range Keys {
		if values[key] == "" {
			continue
		}
		if err := s.Set(key, values[key]); err != nil {
			// Never leave a half-written session behind.
			if clearErr := s.Clear(); clearErr != nil {
				log.Printf("❌ Failed to discard half-written session: %v", clearErr)
				return fmt.Errorf("failed to write %s: %w (and to discard the rest: %w)", key, err, clearErr)
			}
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return nil
}

// MemoryStore keeps a session in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok && v != ""
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

// Len returns the number of keys held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
