package confirm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically deletes expired pending actions.
type Sweeper struct {
	store    *SQLStore
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper constructs a Sweeper over the given store.
func NewSweeper(store *SQLStore, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{store: store, interval: interval, log: log}
}

// Run polls until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("confirmation sweeper starting")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.deleteExpired(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("sweep failed")
				continue
			}
			if n > 0 {
				s.log.Debug().Int64("removed", n).Msg("expired confirmations removed")
			}
		}
	}
}
