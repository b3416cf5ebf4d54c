// Package document implements the document-store backend adapter for
// time-off requests, backed by SQLite with records held as JSON documents.
// SQLite has no row-level security, so the role filter clause is applied
// here, in the query, before any row is returned.
package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/cursor"
	"github.com/tamshai/hr-gateway/internal/model"
	"github.com/tamshai/hr-gateway/internal/rolefilter"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. Pass ":memory:" for an in-process test database.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS timeoff_requests (
    request_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    doc        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeoff_created ON timeoff_requests (created_at DESC, request_id DESC);
`

// EnsureSchema creates the timeoff_requests table if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Adapter is the document-store implementation of backend.Adapter.
type Adapter struct {
	db    *sql.DB
	roles rolefilter.Config
}

// New constructs an Adapter over an open database handle.
func New(db *sql.DB, roles rolefilter.Config) *Adapter {
	return &Adapter{db: db, roles: roles}
}

func (a *Adapter) Name() string { return "document" }

func (a *Adapter) CheckHealth(ctx context.Context) bool {
	return a.db.PingContext(ctx) == nil
}

// createdAtLayout is fixed-width so lexicographic comparison of the
// created_at column matches chronological order in keyset predicates.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// filterPaths maps structured filter keys to JSON paths inside the document.
var filterPaths = map[string]string{
	"status":       "$.status",
	"type":         "$.type",
	"employeeName": "$.employeeName",
	"approver":     "$.approver",
}

// Search pages through time-off requests in reverse chronological order,
// keyed on (created_at, request_id) so the composite stays unique. The
// caller's role filter clause is folded into the WHERE before fetching.
func (a *Adapter) Search(ctx context.Context, req model.PageRequest) (model.PageResult[backend.Record], error) {
	var (
		conds []string
		args  []any
	)

	clause := rolefilter.Build(req.Caller, a.roles)
	switch {
	case clause.Unrestricted:
		// no visibility restriction
	case clause.OwnerOrAssignee:
		conds = append(conds, `(json_extract(doc,'$.employeeName') = ? OR json_extract(doc,'$.approver') = ?)`)
		args = append(args, clause.Caller, clause.Caller)
	default:
		conds = append(conds, `json_extract(doc,'$.employeeName') = ?`)
		args = append(args, clause.Caller)
	}

	if q := strings.TrimSpace(req.Query); q != "" {
		like := "%" + q + "%"
		conds = append(conds, `(json_extract(doc,'$.reason') LIKE ? OR json_extract(doc,'$.type') LIKE ? OR json_extract(doc,'$.status') LIKE ?)`)
		args = append(args, like, like, like)
	}
	for k, v := range req.Filters {
		path, ok := filterPaths[k]
		if !ok {
			continue
		}
		conds = append(conds, fmt.Sprintf("json_extract(doc,'%s') = ?", path))
		args = append(args, v)
	}
	if last := cursor.DecodeStrings(req.Cursor, 2); last != nil {
		// continue strictly after the decoded tuple in descending order
		conds = append(conds, `(created_at, request_id) < (?, ?)`)
		args = append(args, last[0], last[1])
	}

	query := `SELECT created_at, doc FROM timeoff_requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, request_id DESC LIMIT %d", req.Limit+1)

	rs, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return model.PageResult[backend.Record]{}, err
	}
	defer func() { _ = rs.Close() }()

	var rows []backend.Record
	for rs.Next() {
		var created, raw string
		if err := rs.Scan(&created, &raw); err != nil {
			return model.PageResult[backend.Record]{}, err
		}
		var rec backend.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return model.PageResult[backend.Record]{}, err
		}
		// cursor continuation compares against the column, so the token
		// must carry the column's exact representation
		rec["createdAt"] = created
		rows = append(rows, rec)
	}
	if err := rs.Err(); err != nil {
		return model.PageResult[backend.Record]{}, err
	}

	return backend.FinishPage(rows, req.Limit, func(r backend.Record) string {
		created, _ := r["createdAt"].(string)
		id, _ := r["requestId"].(string)
		return cursor.Encode(created, id)
	}), nil
}

// GetByKey fetches one request document, applying the caller's visibility
// clause the same way Search does.
func (a *Adapter) GetByKey(ctx context.Context, key string) (backend.Record, error) {
	query := `SELECT doc FROM timeoff_requests WHERE request_id = ?`
	args := []any{key}

	clause := rolefilter.Build(backend.CallerFrom(ctx), a.roles)
	switch {
	case clause.Unrestricted:
	case clause.OwnerOrAssignee:
		query += ` AND (json_extract(doc,'$.employeeName') = ? OR json_extract(doc,'$.approver') = ?)`
		args = append(args, clause.Caller, clause.Caller)
	default:
		query += ` AND json_extract(doc,'$.employeeName') = ?`
		args = append(args, clause.Caller)
	}

	var raw string
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var rec backend.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// updatePaths is the allowlist of mutable document fields.
var updatePaths = map[string]string{
	"status":   "$.status",
	"approver": "$.approver",
	"reason":   "$.reason",
}

// Update rewrites allowlisted fields with json_set. Returns false when no
// document matches.
func (a *Adapter) Update(ctx context.Context, key string, fields map[string]any) (bool, error) {
	expr := "doc"
	var args []any
	for k, v := range fields {
		path, ok := updatePaths[k]
		if !ok {
			return false, fmt.Errorf("%w: field %q is not updatable", model.ErrValidation, k)
		}
		expr = fmt.Sprintf("json_set(%s, '%s', ?)", expr, path)
		args = append(args, v)
	}
	if len(args) == 0 {
		return false, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}
	args = append(args, key)

	res, err := a.db.ExecContext(ctx, `UPDATE timeoff_requests SET doc = `+expr+` WHERE request_id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert stores a new request document. Used by seeding and tests; tool
// handlers only read and update.
func (a *Adapter) Insert(ctx context.Context, r model.TimeOffRequest) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO timeoff_requests (request_id, created_at, doc) VALUES (?, ?, ?)`,
		r.RequestID, r.CreatedAt.UTC().Format(createdAtLayout), string(b))
	return err
}
