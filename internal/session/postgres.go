package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresProvider keeps session data as one row per key in
// console_sessions; the browser only holds the session id cookie.
type PostgresProvider struct {
	db     *sqlx.DB
	secure bool
}

func NewPostgresProvider(db *sqlx.DB, secure bool) *PostgresProvider {
	return &PostgresProvider{db: db, secure: secure}
}

// ConnectPostgres opens and pings the session database.
func ConnectPostgres(dbURL string) (*sqlx.DB, error) {
	log.Println("🔌 Connecting to session database...")
	log.Printf("   📍 URL prefix: %s...", dbURL[:min(30, len(dbURL))])

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ sqlx.Connect() failed: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		log.Printf("❌ Ping() failed: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Session database connection established")
	return db, nil
}

// MigratePostgres creates the session table when missing.
func MigratePostgres(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS console_sessions (
			sid TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			PRIMARY KEY (sid, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_console_sessions_updated_at ON console_sessions(updated_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (p *PostgresProvider) Open(w http.ResponseWriter, r *http.Request) (Store, error) {
	sid := sessionID(w, r, p.secure)
	return &postgresStore{ctx: r.Context(), db: p.db, sid: sid, w: w, r: r, secure: p.secure}, nil
}

type postgresStore struct {
	ctx context.Context
	db  *sqlx.DB
	sid string

	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

func (s *postgresStore) Get(key string) (string, bool) {
	var value string
	err := s.db.GetContext(s.ctx, &value,
		`SELECT value FROM console_sessions WHERE sid = $1 AND key = $2`, s.sid, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("⚠️  Session row read failed (%s): %v", key, err)
		}
		return "", false
	}
	return value, value != ""
}

func (s *postgresStore) Set(key, value string) error {
	_, err := s.db.ExecContext(s.ctx, `
		INSERT INTO console_sessions (sid, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sid, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.sid, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write session row: %w", err)
	}
	return nil
}

func (s *postgresStore) Clear() error {
	if _, err := s.db.ExecContext(s.ctx, `DELETE FROM console_sessions WHERE sid = $1`, s.sid); err != nil {
		return fmt.Errorf("failed to delete session rows: %w", err)
	}
	return nil
}

func (s *postgresStore) Renew() error {
	old := s.sid
	s.sid = issueSessionID(s.w, s.r, s.secure)
	if _, err := s.db.ExecContext(s.ctx, `DELETE FROM console_sessions WHERE sid = $1`, old); err != nil {
		return fmt.Errorf("failed to delete session rows: %w", err)
	}
	return nil
}

// PostgresStats summarises the session table.
type PostgresStats struct {
	Sessions int `db:"sessions"`
	Rows     int `db:"rows"`
	Idle     int `db:"idle"`
}

// StatsPostgres counts sessions, and those untouched for longer than idle.
func StatsPostgres(db *sqlx.DB, idle time.Duration) (PostgresStats, error) {
	var stats PostgresStats
	cutoff := time.Now().Add(-idle).Unix()
	err := db.Get(&stats, `
		SELECT
			COUNT(DISTINCT sid) AS sessions,
			COUNT(*) AS rows,
			COUNT(DISTINCT CASE WHEN updated_at < $1 THEN sid END) AS idle
		FROM console_sessions`, cutoff)
	if err != nil {
		return stats, fmt.Errorf("failed to query session stats: %w", err)
	}
	return stats, nil
}

// PruneIdlePostgres deletes sessions whose every row is older than idle.
// This is storage hygiene only; guards never look at age.
func PruneIdlePostgres(db *sqlx.DB, idle time.Duration) (int64, error) {
	cutoff := time.Now().Add(-idle).Unix()
	res, err := db.Exec(`
		DELETE FROM console_sessions WHERE sid IN (
			SELECT sid FROM console_sessions GROUP BY sid HAVING MAX(updated_at) < $1
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}
