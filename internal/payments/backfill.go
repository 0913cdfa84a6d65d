package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"adminBackend/internal/fees"
	"adminBackend/internal/gateway"
	"adminBackend/models"
	"adminBackend/repository"
)

// Backfill bounds.
const (
	DefaultBackfillBatch = 50
	MaxBackfillBatch     = 500
	DefaultBackfillTotal = 1000
	MaxBackfillTotal     = 10000
	maxReportedErrors    = 50
)

// BackfillRequest is the body of the backfill job.
type BackfillRequest struct {
	DryRun    bool `json:"dry_run"`
	BatchSize int  `json:"batch_size"`
	MaxTotal  int  `json:"max_total"`
}

func (r *BackfillRequest) normalize() {
	if r.BatchSize <= 0 {
		r.BatchSize = DefaultBackfillBatch
	}
	if r.BatchSize > MaxBackfillBatch {
		r.BatchSize = MaxBackfillBatch
	}
	if r.MaxTotal <= 0 {
		r.MaxTotal = DefaultBackfillTotal
	}
	if r.MaxTotal > MaxBackfillTotal {
		r.MaxTotal = MaxBackfillTotal
	}
}

// BackfillResult summarises a backfill run.
type BackfillResult struct {
	Success   bool     `json:"success"`
	DryRun    bool     `json:"dry_run"`
	BatchSize int      `json:"batch_size"`
	MaxTotal  int      `json:"max_total"`
	Scanned   int      `json:"scanned"`
	Updated   int      `json:"updated"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// Backfill recomputes channel, method, brand and fee for payments missing any of them.
func (s *Service) Backfill(ctx context.Context, actor string, req BackfillRequest) (BackfillResult, error) {
	req.normalize()
	res := BackfillResult{DryRun: req.DryRun, BatchSize: req.BatchSize, MaxTotal: req.MaxTotal, Errors: []string{}}

	rules, err := fees.Load(ctx, s.rules)
	if err != nil {
		return res, err
	}

	var after int64
	for res.Scanned < req.MaxTotal {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		batch := req.BatchSize
		if left := req.MaxTotal - res.Scanned; left < batch {
			batch = left
		}
		list, err := s.payments.ListNeedingClassification(ctx, after, batch)
		if err != nil {
			return res, fmt.Errorf("list payments to backfill: %w", err)
		}
		if len(list) == 0 {
			break
		}
		for i := range list {
			p := &list[i]
			after = p.ID
			res.Scanned++
			c, err := reclassify(p, rules)
			if err != nil {
				res.fail(fmt.Sprintf("payment %d: %v", p.ID, err))
				continue
			}
			if req.DryRun {
				res.Updated++
				continue
			}
			if err := s.payments.UpdateClassification(ctx, p.ID, c); err != nil {
				res.fail(fmt.Sprintf("payment %d: %v", p.ID, err))
				continue
			}
			res.Updated++
		}
		if len(list) < batch {
			break
		}
	}
	res.Success = res.Failed == 0

	if !req.DryRun && res.Updated > 0 {
		if _, err := s.audit.Append(ctx, actor, "payments.backfill", "payment", "", map[string]any{
			"scanned": res.Scanned, "updated": res.Updated, "failed": res.Failed,
		}); err != nil {
			s.log.Warn(fmt.Sprintf("[Backfill] audit: %v", err))
		}
	}
	s.log.Info(fmt.Sprintf("[Backfill] dry_run=%t scanned=%d updated=%d failed=%d",
		req.DryRun, res.Scanned, res.Updated, res.Failed))
	return res, nil
}

func (r *BackfillResult) fail(msg string) {
	r.Failed++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// reclassify prefers the stored raw payload and falls back to the columns
// when the payment predates payload capture.
func reclassify(p *models.Payment, rules *fees.RuleSet) (repository.Classification, error) {
	var tx gateway.Transaction
	if p.RawPayload != "" {
		if err := json.Unmarshal([]byte(p.RawPayload), &tx); err != nil {
			return repository.Classification{}, fmt.Errorf("decode raw payload: %w", err)
		}
	} else {
		tx = gateway.Transaction{
			UID:      p.ExternalUID,
			Amount:   p.Amount,
			Currency: p.Currency,
			CreditCard: &gateway.CreditCard{
				Brand:         p.CardBrand,
				Last4:         p.CardLast4,
				IssuerCountry: p.IssuerCountry,
			},
		}
		if p.Channel == string(fees.ChannelERIP) {
			tx.PaymentMethodType = "erip"
			tx.CreditCard = nil
		}
	}
	c := fees.Classify(tx, rules)
	return repository.Classification{
		Channel:       string(c.Channel),
		MethodKind:    string(c.MethodKind),
		CardBrand:     c.CardBrand,
		IssuerCountry: c.IssuerCountry,
		FeeAmount:     c.Fee.Amount,
		FeeSource:     c.Fee.Source,
	}, nil
}
