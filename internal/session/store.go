package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karimzakaria/guideflow/internal/db"
	"github.com/karimzakaria/guideflow/internal/protocol"
)

// ErrNotFound is returned by Get for absent or expired sessions. Callers
// treat it as "new session", never as a failure.
var ErrNotFound = errors.New("session not found")

// Store persists session state by key with per-key expiration.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Put(ctx context.Context, state *State, ttl time.Duration) error
	PurgeExpired(ctx context.Context) (int, error)
}

// SQLStore implements Store on the shared SQLite database.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a session store backed by the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

func (s *SQLStore) Get(ctx context.Context, key string) (*State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE key = ? AND expires_at > datetime('now')`,
		key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", key, err)
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", key, err)
	}
	if st.Flags == nil {
		st.Flags = map[protocol.Flag]bool{}
	}
	if st.Counters == nil {
		st.Counters = map[protocol.Counter]int{}
	}
	return &st, nil
}

func (s *SQLStore) Put(ctx context.Context, state *State, ttl time.Duration) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", state.Key, err)
	}

	expiresAt := time.Now().UTC().Add(ttl).Format("2006-01-02 15:04:05")
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (key, state, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			state = excluded.state,
			updated_at = datetime('now'),
			expires_at = excluded.expires_at`,
		state.Key, string(raw), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("storing session %s: %w", state.Key, err)
	}
	return nil
}

func (s *SQLStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// AuditTurn records one completed turn for offline inspection. Audit rows
// are best-effort and never block a turn.
func (s *SQLStore) AuditTurn(ctx context.Context, key string, phase protocol.Phase, code protocol.Code, overridden bool, latency time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turn_audit (id, session_key, phase, decision, rule_overridden, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), key, string(phase), string(code), boolToInt(overridden), latency.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording turn audit: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
