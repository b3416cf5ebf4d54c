// Package confirm implements the write-confirmation handshake: staged
// actions are written once with a TTL and consumed exactly once by the
// execute step. Nothing here mutates business data; execution belongs to the
// tool handler that wins the consume.
package confirm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tamshai/hr-gateway/internal/model"
)

// Store stages and consumes pending write actions.
type Store interface {
	// Stage writes a pending action with the configured TTL and returns a
	// fresh confirmation identifier plus a human-readable summary to show
	// the caller before approval.
	Stage(ctx context.Context, action, targetService, callerID string, payload any) (id string, summary string, err error)

	// Consume atomically reads and deletes the action. Of two concurrent
	// calls for the same id, exactly one receives the record; the other,
	// like any call for an expired or never-issued id, gets
	// model.ErrNotFound.
	Consume(ctx context.Context, id string) (*model.PendingAction, error)

	CheckHealth(ctx context.Context) bool
}

const schema = `
CREATE TABLE IF NOT EXISTS pending_actions (
    confirmation_id TEXT PRIMARY KEY,
    action          TEXT NOT NULL,
    target_service  TEXT NOT NULL,
    caller_id       TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    expires_at_ms   INTEGER NOT NULL,
    payload         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_expiry ON pending_actions (expires_at_ms);
`

// EnsureSchema creates the pending_actions table if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SQLStore is the SQLite-backed Store. A single-statement
// DELETE ... RETURNING makes consumption atomic without an external cache.
type SQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// New constructs a SQLStore with the given TTL over an open database handle.
func New(db *sql.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, ttl: ttl, now: time.Now}
}

// WithNowFunc overrides the clock. Tests use it to force expiry without
// sleeping.
func (s *SQLStore) WithNowFunc(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) CheckHealth(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Name identifies the store in health output.
func (s *SQLStore) Name() string { return "confirm" }

func (s *SQLStore) Stage(ctx context.Context, action, targetService, callerID string, payload any) (string, string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.New().String()
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO pending_actions (confirmation_id, action, target_service, caller_id, created_at, expires_at_ms, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, id, action, targetService, callerID, now.Format(time.RFC3339Nano), now.Add(s.ttl).UnixMilli(), string(raw))
	if err != nil {
		return "", "", err
	}

	summary := fmt.Sprintf("Confirm %s on %s. This action will not run until approved; the approval expires in %d seconds.",
		action, targetService, int(s.ttl.Seconds()))
	return id, summary, nil
}

func (s *SQLStore) Consume(ctx context.Context, id string) (*model.PendingAction, error) {
	row := s.db.QueryRowContext(ctx, `
        DELETE FROM pending_actions
        WHERE confirmation_id = ? AND expires_at_ms > ?
        RETURNING action, target_service, caller_id, created_at, payload
    `, id, s.now().UTC().UnixMilli())

	var (
		pa        model.PendingAction
		createdAt string
		payload   string
	)
	if err := row.Scan(&pa.Action, &pa.TargetService, &pa.CallerID, &createdAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	pa.ConfirmationID = id
	pa.Payload = json.RawMessage(payload)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		pa.CreatedAt = ts
	}
	return &pa, nil
}

// deleteExpired removes rows whose TTL elapsed. Correctness never depends on
// this: Consume already refuses expired rows. It only keeps the table small.
func (s *SQLStore) deleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE expires_at_ms <= ?`, s.now().UTC().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
