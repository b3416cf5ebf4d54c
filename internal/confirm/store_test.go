package confirm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamshai/hr-gateway/internal/model"
)

var testDBSeq atomic.Int64

func openTestStore(t *testing.T, ttl time.Duration) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:confirm_test_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", testDBSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return New(db, ttl)
}

func TestStageAndConsumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, 300*time.Second)

	payload := map[string]any{"employeeId": "E1", "newSalary": 95000}
	id, summary, err := store.Stage(ctx, "update_salary", "hr-database", "caller-1", payload)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Contains(t, summary, "update_salary")
	assert.Contains(t, summary, "300")

	pa, err := store.Consume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, pa.ConfirmationID)
	assert.Equal(t, "update_salary", pa.Action)
	assert.Equal(t, "hr-database", pa.TargetService)
	assert.Equal(t, "caller-1", pa.CallerID)
	assert.WithinDuration(t, time.Now(), pa.CreatedAt, time.Minute)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pa.Payload, &got))
	assert.Equal(t, "E1", got["employeeId"])
}

func TestConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, time.Minute)

	id, _, err := store.Stage(ctx, "close_ticket", "ticket-index", "c", map[string]any{"ticketId": "T1"})
	require.NoError(t, err)

	_, err = store.Consume(ctx, id)
	require.NoError(t, err)

	_, err = store.Consume(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound, "second consume must find nothing")
}

func TestConsumeUnknownID(t *testing.T) {
	store := openTestStore(t, time.Minute)
	_, err := store.Consume(context.Background(), "11111111-2222-3333-4444-555555555555")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestConsumeConcurrentExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, time.Minute)

	id, _, err := store.Stage(ctx, "terminate_employee", "hr-database", "c", map[string]any{"employeeId": "E9"})
	require.NoError(t, err)

	const racers = 8
	var wins, misses atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := store.Consume(ctx, id)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, model.ErrNotFound):
				misses.Add(1)
			default:
				t.Errorf("unexpected consume error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one racer may consume")
	assert.Equal(t, int32(racers-1), misses.Load())
}

func TestConsumeExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store := openTestStore(t, 300*time.Second).WithNowFunc(func() time.Time { return clock })

	id, _, err := store.Stage(ctx, "deny_timeoff", "timeoff-store", "c", map[string]any{"requestId": "R1"})
	require.NoError(t, err)

	// just inside the window
	clock = base.Add(299 * time.Second)
	pa, err := store.Consume(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, pa)

	// restage and step past the deadline
	id, _, err = store.Stage(ctx, "deny_timeoff", "timeoff-store", "c", map[string]any{"requestId": "R1"})
	require.NoError(t, err)
	clock = base.Add(299*time.Second + 301*time.Second)
	_, err = store.Consume(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound, "expired confirmation behaves like a missing one")
}

func TestDeleteExpiredSweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store := openTestStore(t, time.Minute).WithNowFunc(func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		_, _, err := store.Stage(ctx, "approve_timeoff", "timeoff-store", "c", map[string]any{"requestId": fmt.Sprintf("R%d", i)})
		require.NoError(t, err)
	}
	clock = base.Add(2 * time.Minute)
	liveID, _, err := store.Stage(ctx, "approve_timeoff", "timeoff-store", "c", map[string]any{"requestId": "live"})
	require.NoError(t, err)

	removed, err := store.deleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	_, err = store.Consume(ctx, liveID)
	assert.NoError(t, err, "sweep must not touch unexpired rows")
}
