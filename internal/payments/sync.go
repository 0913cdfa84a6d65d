package payments

import (
	"context"
	"fmt"

	"adminBackend/internal/gateway"
)

// maxSyncPages bounds a single fetch so a misbehaving listing cannot loop forever.
const maxSyncPages = 50

// SyncResult summarises a fetch-then-drain run.
type SyncResult struct {
	Fetched  int         `json:"fetched"`
	Enqueued int         `json:"enqueued"`
	Drain    DrainResult `json:"drain"`
}

// FetchTransactions pulls transactions created within FetchLookback and queues them.
func (s *Service) FetchTransactions(ctx context.Context) (fetched, enqueued int, err error) {
	from := s.now().Add(-s.FetchLookback)
	for page := 1; page <= maxSyncPages; page++ {
		txs, err := s.gateway.ListTransactions(ctx, from, page)
		if err != nil {
			return fetched, enqueued, fmt.Errorf("list transactions page %d: %w", page, err)
		}
		fetched += len(txs)
		for _, tx := range txs {
			ok, err := s.Enqueue(ctx, tx, SourceFetch)
			if err != nil {
				s.log.Error(fmt.Sprintf("[Sync] %v", err))
				continue
			}
			if ok {
				enqueued++
			}
		}
		if len(txs) < gateway.PerPage {
			break
		}
	}
	return fetched, enqueued, nil
}

// Sync fetches recent transactions and then drains the queue.
// A fetch failure is logged and the drain still runs.
func (s *Service) Sync(ctx context.Context, drainLimit int) (SyncResult, error) {
	var res SyncResult
	var fetchErr error
	res.Fetched, res.Enqueued, fetchErr = s.FetchTransactions(ctx)
	if fetchErr != nil {
		s.log.Error(fmt.Sprintf("[Sync] fetch step: %v", fetchErr))
	}
	drain, err := s.Drain(ctx, drainLimit)
	res.Drain = drain
	if err != nil {
		return res, fmt.Errorf("drain step: %w", err)
	}
	s.log.Info(fmt.Sprintf("[Sync] fetched=%d enqueued=%d processed=%d", res.Fetched, res.Enqueued, drain.Processed))
	return res, fetchErr
}
