package document

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamshai/hr-gateway/internal/backend"
	"github.com/tamshai/hr-gateway/internal/model"
	"github.com/tamshai/hr-gateway/internal/rolefilter"
)

var testRoles = rolefilter.Config{
	FullAccessRoles: []string{"hr-admin"},
	TeamRoles:       []string{"manager"},
}

var testDBSeq atomic.Int64

func openTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	dsn := fmt.Sprintf("file:document_test_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", testDBSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return New(db, testRoles)
}

func admin() model.CallerIdentity {
	return model.CallerIdentity{ID: "u-admin", DisplayName: "Root Admin", Roles: []string{"hr-admin"}}
}

func seedRequests(t *testing.T, a *Adapter, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, a.Insert(context.Background(), model.TimeOffRequest{
			RequestID:    fmt.Sprintf("R%03d", i),
			EmployeeName: fmt.Sprintf("Employee %03d", i),
			Approver:     "Maria Manager",
			Type:         "vacation",
			Status:       "pending",
			StartDate:    "2026-04-01",
			EndDate:      "2026-04-05",
			Reason:       "spring break",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

// Walking every page via nextCursor must visit each record exactly once.
func TestSearchPaginationWalk(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 23)

	seen := map[string]bool{}
	cursorTok := ""
	pages := 0
	var prevCreated string
	for {
		res, err := a.Search(ctx, model.PageRequest{Limit: 5, Cursor: cursorTok, Caller: admin()})
		require.NoError(t, err)
		pages++
		require.LessOrEqual(t, len(res.Items), 5)
		for _, rec := range res.Items {
			id := rec["requestId"].(string)
			assert.False(t, seen[id], "record %s returned twice", id)
			seen[id] = true
			created := rec["createdAt"].(string)
			if prevCreated != "" {
				assert.LessOrEqual(t, created, prevCreated, "ordering must be newest-first")
			}
			prevCreated = created
		}
		if !res.HasMore {
			assert.Empty(t, res.NextCursor)
			break
		}
		require.NotEmpty(t, res.NextCursor)
		cursorTok = res.NextCursor
	}

	assert.Len(t, seen, 23, "walk must cover every record")
	assert.Equal(t, 5, pages)
}

// Records inserted mid-walk with older timestamps must not disturb pages
// already emitted; the walk still terminates and never repeats a record.
func TestSearchPaginationStableUnderInsert(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 10)

	first, err := a.Search(ctx, model.PageRequest{Limit: 4, Caller: admin()})
	require.NoError(t, err)
	require.True(t, first.HasMore)

	// newer than everything already seen: lands before the cursor, skipped
	require.NoError(t, a.Insert(ctx, model.TimeOffRequest{
		RequestID:    "R999",
		EmployeeName: "Late Arrival",
		Approver:     "Maria Manager",
		Type:         "sick",
		Status:       "pending",
		StartDate:    "2026-05-01",
		EndDate:      "2026-05-02",
		CreatedAt:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	seen := map[string]bool{}
	for _, rec := range first.Items {
		seen[rec["requestId"].(string)] = true
	}
	cursorTok := first.NextCursor
	for cursorTok != "" {
		res, err := a.Search(ctx, model.PageRequest{Limit: 4, Cursor: cursorTok, Caller: admin()})
		require.NoError(t, err)
		for _, rec := range res.Items {
			id := rec["requestId"].(string)
			assert.False(t, seen[id], "record %s repeated after insert", id)
			seen[id] = true
		}
		cursorTok = res.NextCursor
	}
	assert.Len(t, seen, 10, "original records all visited, new record after cursor position skipped")
}

func TestSearchBadCursorDegradesToFirstPage(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 3)

	fresh, err := a.Search(ctx, model.PageRequest{Limit: 10, Caller: admin()})
	require.NoError(t, err)
	garbled, err := a.Search(ctx, model.PageRequest{Limit: 10, Cursor: "@@not-a-token@@", Caller: admin()})
	require.NoError(t, err)
	assert.Equal(t, len(fresh.Items), len(garbled.Items))
}

func TestSearchRoleVisibility(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 6)

	// owner-only caller sees just their own request
	own, err := a.Search(ctx, model.PageRequest{Limit: 20, Caller: model.CallerIdentity{
		ID: "u-3", DisplayName: "Employee 003", Roles: []string{"employee"},
	}})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, "R003", own.Items[0]["requestId"])

	// the approver with a team role sees everything assigned to them
	team, err := a.Search(ctx, model.PageRequest{Limit: 20, Caller: model.CallerIdentity{
		ID: "u-m", DisplayName: "Maria Manager", Roles: []string{"manager"},
	}})
	require.NoError(t, err)
	assert.Len(t, team.Items, 6)
}

func TestSearchFiltersAndQuery(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 4)
	require.NoError(t, a.Insert(ctx, model.TimeOffRequest{
		RequestID:    "R900",
		EmployeeName: "Employee 900",
		Approver:     "Maria Manager",
		Type:         "parental",
		Status:       "approved",
		StartDate:    "2026-07-01",
		EndDate:      "2026-09-01",
		Reason:       "newborn at home",
		CreatedAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}))

	res, err := a.Search(ctx, model.PageRequest{
		Limit:   20,
		Filters: map[string]string{"status": "approved"},
		Caller:  admin(),
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "R900", res.Items[0]["requestId"])

	res, err = a.Search(ctx, model.PageRequest{Limit: 20, Query: "newborn", Caller: admin()})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "R900", res.Items[0]["requestId"])

	// unknown filter keys are ignored rather than leaking into SQL
	res, err = a.Search(ctx, model.PageRequest{
		Limit:   20,
		Filters: map[string]string{"no_such_field": "x"},
		Caller:  admin(),
	})
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
}

func TestGetByKeyVisibility(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 2)

	rec, err := a.GetByKey(backend.WithCaller(ctx, admin()), "R001")
	require.NoError(t, err)
	assert.Equal(t, "Employee 001", rec["employeeName"])

	// the record exists but the stranger may not see it
	_, err = a.GetByKey(backend.WithCaller(ctx, model.CallerIdentity{
		ID: "u-x", DisplayName: "Nobody Special",
	}), "R001")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = a.GetByKey(backend.WithCaller(ctx, admin()), "R404")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateAllowlist(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)
	seedRequests(t, a, 1)

	ok, err := a.Update(ctx, "R000", map[string]any{"status": "approved", "approver": "Maria Manager"})
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := a.GetByKey(backend.WithCaller(ctx, admin()), "R000")
	require.NoError(t, err)
	assert.Equal(t, "approved", rec["status"])

	ok, err = a.Update(ctx, "R404", map[string]any{"status": "denied"})
	require.NoError(t, err)
	assert.False(t, ok, "missing key reports false, not an error")

	_, err = a.Update(ctx, "R000", map[string]any{"requestId": "R001"})
	assert.ErrorIs(t, err, model.ErrValidation, "identity fields are immutable")

	_, err = a.Update(ctx, "R000", map[string]any{})
	assert.ErrorIs(t, err, model.ErrValidation)
}
