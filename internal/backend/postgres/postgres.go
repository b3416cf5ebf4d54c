// Package postgres implements the relational backend adapter for employee
// records. Row visibility is enforced by the database's row-level security
// policies; this adapter only supplies the caller identity as session
// context and never filters by role itself; doing so could mask rows the
// policies were written to allow.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/cursor"
	"github.com/tamshai/hr-gateway/internal/model"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
// Schema and RLS policies are managed by migrations, not by the service.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.PingContext(ctx)
}

// Adapter is the relational implementation of backend.Adapter.
type Adapter struct {
	db *sql.DB
}

// New constructs an Adapter over an open database handle. Lifecycle of the
// handle is owned by the caller.
func New(db *sql.DB) *Adapter { return &Adapter{db: db} }

func (a *Adapter) Name() string { return "postgres" }

// CheckHealth reports database reachability.
func (a *Adapter) CheckHealth(ctx context.Context) bool {
	return a.db.PingContext(ctx) == nil
}

// filterColumns is the allowlist of structured filters mapped to columns.
// Anything else in the filter map is ignored rather than interpolated.
var filterColumns = map[string]string{
	"department": "department",
	"status":     "status",
	"title":      "title",
	"managerId":  "manager_id",
}

const employeeColumns = `employee_id, first_name, last_name, email, department, title, manager_id, salary, status`

// withCallerTx runs fn inside a transaction whose session carries the caller
// identity for the database's row-level-security policies. set_config with
// is_local=true scopes the identity to this transaction only.
func (a *Adapter) withCallerTx(ctx context.Context, caller model.CallerIdentity, fn func(tx *sql.Tx) error) error {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT set_config('app.caller_id', $1, true), set_config('app.caller_roles', $2, true)`,
		caller.ID, strings.Join(caller.Roles, ",")); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Search pages through employees ordered by (last_name, first_name,
// employee_id). The composite ends in the unique employee_id so keyset
// continuation never skips or duplicates rows under concurrent inserts.
func (a *Adapter) Search(ctx context.Context, req model.PageRequest) (model.PageResult[backend.Record], error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(req.Query); q != "" {
		like := "%" + q + "%"
		p := arg(like)
		conds = append(conds, fmt.Sprintf(
			"(first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR email ILIKE %[1]s OR department ILIKE %[1]s)", p))
	}
	for k, v := range req.Filters {
		col, ok := filterColumns[k]
		if !ok {
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = %s", col, arg(v)))
	}
	if last := cursor.DecodeStrings(req.Cursor, 3); last != nil {
		conds = append(conds, fmt.Sprintf("(last_name, first_name, employee_id) > (%s, %s, %s)",
			arg(last[0]), arg(last[1]), arg(last[2])))
	}

	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY last_name, first_name, employee_id LIMIT %d", req.Limit+1)

	var rows []backend.Record
	err := a.withCallerTx(ctx, req.Caller, func(tx *sql.Tx) error {
		rs, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rs.Close() }()
		for rs.Next() {
			rec, err := scanEmployee(rs)
			if err != nil {
				return err
			}
			rows = append(rows, rec)
		}
		return rs.Err()
	})
	if err != nil {
		return model.PageResult[backend.Record]{}, err
	}

	return backend.FinishPage(rows, req.Limit, func(r backend.Record) string {
		return cursor.Encode(r["lastName"], r["firstName"], r["employeeId"])
	}), nil
}

// GetByKey fetches one employee by id, again under the caller's RLS session.
// The caller identity travels in the context via WithCaller.
func (a *Adapter) GetByKey(ctx context.Context, key string) (backend.Record, error) {
	var rec backend.Record
	err := a.withCallerTx(ctx, backend.CallerFrom(ctx), func(tx *sql.Tx) error {
		rs, err := tx.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE employee_id = $1`, key)
		if err != nil {
			return err
		}
		defer func() { _ = rs.Close() }()
		if !rs.Next() {
			if err := rs.Err(); err != nil {
				return err
			}
			return model.ErrNotFound
		}
		rec, err = scanEmployee(rs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// updateColumns is the allowlist of mutable columns.
var updateColumns = map[string]string{
	"salary":     "salary",
	"title":      "title",
	"department": "department",
	"managerId":  "manager_id",
	"status":     "status",
}

// Update applies allowlisted fields to an employee. Returns false when no
// row matched (absent or invisible under RLS; indistinguishable on purpose).
func (a *Adapter) Update(ctx context.Context, key string, fields map[string]any) (bool, error) {
	var (
		sets []string
		args []any
	)
	for k, v := range fields {
		col, ok := updateColumns[k]
		if !ok {
			return false, fmt.Errorf("%w: field %q is not updatable", model.ErrValidation, k)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(sets) == 0 {
		return false, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}
	args = append(args, key)
	query := fmt.Sprintf("UPDATE employees SET %s WHERE employee_id = $%d", strings.Join(sets, ", "), len(args))

	var n int64
	err := a.withCallerTx(ctx, backend.CallerFrom(ctx), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanEmployee(rs *sql.Rows) (backend.Record, error) {
	var e model.Employee
	var managerID sql.NullString
	if err := rs.Scan(&e.EmployeeID, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.Title, &managerID, &e.Salary, &e.Status); err != nil {
		return nil, err
	}
	rec := backend.Record{
		"employeeId": e.EmployeeID,
		"firstName":  e.FirstName,
		"lastName":   e.LastName,
		"email":      e.Email,
		"department": e.Department,
		"title":      e.Title,
		"salary":     e.Salary,
		"status":     e.Status,
	}
	if managerID.Valid {
		rec["managerId"] = managerID.String
	}
	return rec, nil
}

// IsNotFound reports whether err is the adapter's not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, model.ErrNotFound) }
