package payments

import (
	"context"
	"fmt"
	"time"

	"adminBackend/models"
)

// DefaultReceiptDelay is the pause between two receipt requests.
const DefaultReceiptDelay = 300 * time.Millisecond

const defaultReceiptLimit = 100

// ReceiptRequest selects the payments whose receipts are fetched. Without ids,
// successful payments lacking a receipt are taken, up to Limit.
type ReceiptRequest struct {
	PaymentIDs []int64 `json:"payment_ids"`
	Limit      int     `json:"limit"`
}

// ReceiptResult summarises a receipt batch.
type ReceiptResult struct {
	Success     bool   `json:"success"`
	Processed   int    `json:"processed"`
	Fetched     int    `json:"fetched"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Aborted     bool   `json:"aborted"`
	AbortReason string `json:"abort_reason,omitempty"`
}

// FetchReceipts asks the gateway for receipts one payment at a time, pausing
// ReceiptDelay between calls, and stops early when the breaker trips.
func (s *Service) FetchReceipts(ctx context.Context, actor string, req ReceiptRequest) (ReceiptResult, error) {
	var res ReceiptResult
	limit := req.Limit
	if limit <= 0 || limit > MaxReportLimit {
		limit = defaultReceiptLimit
	}

	var list []models.Payment
	var err error
	if len(req.PaymentIDs) > 0 {
		list, err = s.payments.ListByIDs(ctx, req.PaymentIDs)
	} else {
		list, err = s.payments.ListWithoutReceipt(ctx, limit)
	}
	if err != nil {
		return res, fmt.Errorf("select payments: %w", err)
	}

	br := NewBreaker()
	for i := range list {
		p := &list[i]
		if p.ReceiptURL != "" {
			res.Skipped++
			continue
		}
		if res.Processed > 0 {
			if err := s.sleep(ctx, s.ReceiptDelay); err != nil {
				res.Aborted = true
				res.AbortReason = err.Error()
				break
			}
		}
		res.Processed++
		url, err := s.gateway.GetReceipt(ctx, p.ExternalUID)
		if err == nil {
			err = s.payments.SetReceiptURL(ctx, p.ID, url)
		}
		br.Record(err == nil)
		if err != nil {
			res.Failed++
			s.log.Warn(fmt.Sprintf("[Receipts] payment %d (%s): %v", p.ID, p.ExternalUID, err))
		} else {
			res.Fetched++
		}
		if br.Tripped() {
			res.Aborted = true
			res.AbortReason = br.Reason()
			s.log.Error("[Receipts] stopping batch: " + res.AbortReason)
			break
		}
	}
	res.Success = !res.Aborted && res.Failed == 0

	if res.Fetched > 0 {
		if _, err := s.audit.Append(ctx, actor, "payments.receipts_fetched", "payment", "", map[string]any{
			"processed": res.Processed, "fetched": res.Fetched, "failed": res.Failed, "aborted": res.Aborted,
		}); err != nil {
			s.log.Warn(fmt.Sprintf("[Receipts] audit: %v", err))
		}
	}
	return res, nil
}
