package confirm

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSweeperRemovesExpiredRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := fmt.Sprintf("file:sweeper_test_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", testDBSeq.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(ctx, db))

	store := New(db, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		_, _, err := store.Stage(ctx, "close_ticket", "ticket-index", "c", map[string]any{"ticketId": fmt.Sprintf("T%d", i)})
		require.NoError(t, err)
	}

	go NewSweeper(store, 20*time.Millisecond, zerolog.Nop()).Run(ctx)

	require.Eventually(t, func() bool {
		var n int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_actions`).Scan(&n); err != nil {
			return false
		}
		return n == 0
	}, 2*time.Second, 25*time.Millisecond, "sweeper should clear expired rows")
}
