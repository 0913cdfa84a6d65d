package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adminBackend/internal/db"
	"adminBackend/internal/fees"
	"adminBackend/internal/gateway"
	"adminBackend/models"
)

// Queue sources.
const (
	SourceWebhook = "webhook"
	SourceFetch   = "fetch"
)

// Enqueue stores a raw transaction for the drain step. A uid already queued is
// left alone unless the gateway pushed it again through the webhook, in which
// case it is reset to pending with the new payload.
func (s *Service) Enqueue(ctx context.Context, tx gateway.Transaction, source string) (bool, error) {
	if strings.TrimSpace(tx.UID) == "" {
		return false, errors.New("transaction uid is required")
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return false, fmt.Errorf("marshal transaction: %w", err)
	}
	inserted, err := s.queue.Enqueue(ctx, tx.UID, source, payload)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", tx.UID, err)
	}
	if !inserted && source == SourceWebhook {
		if err := s.queue.Requeue(ctx, tx.UID, payload); err != nil {
			return false, fmt.Errorf("requeue %s: %w", tx.UID, err)
		}
		return true, nil
	}
	return inserted, nil
}

// ErrPaymentMissing is returned when a payment row is gone right after its upsert.
var ErrPaymentMissing = errors.New("payment row missing after upsert")

// DrainResult summarises one drain run.
type DrainResult struct {
	Claimed   int `json:"claimed"`
	Processed int `json:"processed"`
	Retrying  int `json:"retrying"`
	Failed    int `json:"failed"`
	Linked    int `json:"linked"`

	// Backlog is the queue size per status after the run.
	Backlog map[models.QueueStatus]int `json:"backlog,omitempty"`
}

// Drain processes up to limit pending queue items. A failing item is retried on a
// later run and marked failed after MaxAttempts; it never stops the batch.
func (s *Service) Drain(ctx context.Context, limit int) (DrainResult, error) {
	var res DrainResult
	items, err := s.queue.ListPending(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("list pending queue items: %w", err)
	}
	res.Claimed = len(items)
	if len(items) == 0 {
		res.Backlog = s.backlog(ctx)
		return res, nil
	}
	rules, err := fees.Load(ctx, s.rules)
	if err != nil {
		s.log.Warn(fmt.Sprintf("[Drain] using fallback fees: %v", err))
		rules = nil
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		linked, err := s.processItem(ctx, item, rules)
		if err != nil {
			status, markErr := s.queue.MarkAttemptFailed(ctx, item.ID, err.Error(), s.MaxAttempts)
			if markErr != nil {
				s.log.Error(fmt.Sprintf("[Drain] failed to record failure of %s: %v", item.ExternalUID, markErr))
			}
			if status == models.QueueFailed {
				res.Failed++
				s.log.Error(fmt.Sprintf("[Drain] giving up on %s after %d attempts: %v", item.ExternalUID, s.MaxAttempts, err))
			} else {
				res.Retrying++
				s.log.Warn(fmt.Sprintf("[Drain] %s failed, will retry: %v", item.ExternalUID, err))
			}
			continue
		}
		if err := s.queue.MarkProcessed(ctx, item.ID); err != nil {
			s.log.Error(fmt.Sprintf("[Drain] failed to mark %s processed: %v", item.ExternalUID, err))
			continue
		}
		res.Processed++
		if linked {
			res.Linked++
		}
	}
	res.Backlog = s.backlog(ctx)
	s.log.Info(fmt.Sprintf("[Drain] claimed=%d processed=%d retrying=%d failed=%d pending=%d",
		res.Claimed, res.Processed, res.Retrying, res.Failed, res.Backlog[models.QueuePending]))
	return res, nil
}

func (s *Service) backlog(ctx context.Context) map[models.QueueStatus]int {
	counts, err := s.queue.CountByStatus(ctx)
	if err != nil {
		s.log.Warn(fmt.Sprintf("[Drain] count queue: %v", err))
		return nil
	}
	return counts
}

func (s *Service) processItem(ctx context.Context, item models.QueueItem, rules *fees.RuleSet) (bool, error) {
	var tx gateway.Transaction
	if err := json.Unmarshal([]byte(item.Payload), &tx); err != nil {
		return false, fmt.Errorf("decode payload: %w", err)
	}
	if tx.UID == "" {
		tx.UID = item.ExternalUID
	}
	p := PaymentFromTransaction(tx, rules, s.now())
	p.RawPayload = item.Payload
	order, err := s.orderFor(ctx, tx.TrackingID)
	if err != nil {
		return false, fmt.Errorf("load order: %w", err)
	}
	if order != nil {
		p.OrderID = &order.ID
	}

	id, err := s.payments.Upsert(ctx, p)
	if err != nil {
		return false, fmt.Errorf("upsert payment: %w", err)
	}
	stored, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("reload payment %d: %w", id, err)
	}
	if stored == nil {
		return false, fmt.Errorf("reload payment %d: %w", id, ErrPaymentMissing)
	}

	linked := false
	if stored.ProfileID == nil && stored.Status == models.PaymentStatusSuccessful {
		var profileID int64
		if order != nil {
			profileID = order.ProfileID
		} else {
			m, err := s.matchProfile(ctx, stored)
			if err != nil {
				return false, fmt.Errorf("reconcile payment %d: %w", id, err)
			}
			profileID = m.ProfileID
		}
		if profileID != 0 {
			if err := s.payments.LinkProfile(ctx, id, profileID); err != nil {
				return false, fmt.Errorf("link payment %d: %w", id, err)
			}
			stored.ProfileID = &profileID
			linked = true
		}
	}
	if order != nil {
		if err := s.settleOrder(ctx, order, stored.Status); err != nil {
			return false, err
		}
	}

	meta := map[string]any{
		"external_uid": stored.ExternalUID,
		"amount":       stored.Amount,
		"currency":     stored.Currency,
		"status":       stored.Status,
		"channel":      stored.Channel,
		"fee_amount":   stored.FeeAmount,
		"fee_source":   stored.FeeSource,
		"source":       item.Source,
	}
	event := map[string]any{
		"payment_id":   id,
		"external_uid": stored.ExternalUID,
		"amount":       stored.Amount,
		"currency":     stored.Currency,
		"status":       stored.Status,
		"profile_id":   stored.ProfileID,
		"paid_at":      stored.PaidAt,
	}
	// The audit entry goes last: a retried item may publish its event twice
	// (consumers key on payment_id) but is recorded in the audit log once.
	if _, err := s.outbox.Append(ctx, "payment.recorded", event); err != nil {
		return false, fmt.Errorf("outbox payment %d: %w", id, err)
	}
	if _, err := s.audit.Append(ctx, system, "payment.recorded", "payment", fmt.Sprint(id), meta); err != nil {
		return false, fmt.Errorf("audit payment %d: %w", id, err)
	}
	return linked, nil
}

// orderFor resolves the order a transaction pays for. The storefront puts
// "order-<id>" or the bare id into tracking_id; anything else is not ours.
func (s *Service) orderFor(ctx context.Context, trackingID string) (*models.Order, error) {
	if s.orders == nil {
		return nil, nil
	}
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(trackingID)), "order-")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, nil
	}
	return s.orders.GetByID(ctx, id)
}

// settleOrder moves a pending order to paid on a successful payment and a
// paid order to refunded on a refund.
func (s *Service) settleOrder(ctx context.Context, o *models.Order, status models.PaymentStatus) error {
	var to models.OrderStatus
	switch {
	case status == models.PaymentStatusSuccessful && o.Status == models.OrderStatusPending:
		to = models.OrderStatusPaid
	case status == models.PaymentStatusRefunded && o.Status == models.OrderStatusPaid:
		to = models.OrderStatusRefunded
	default:
		return nil
	}
	if err := s.orders.UpdateStatus(ctx, o.ID, to); err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	o.Status = to
	return nil
}

// PaymentFromTransaction maps a gateway transaction onto a payment row, with
// derived fields computed from rules.
func PaymentFromTransaction(tx gateway.Transaction, rules *fees.RuleSet, now time.Time) *models.Payment {
	c := fees.Classify(tx, rules)
	card := tx.Card()
	payer := tx.Payer()
	fee := c.Fee.Amount
	return &models.Payment{
		ExternalUID:   tx.UID,
		Amount:        tx.Amount,
		Currency:      strings.ToUpper(tx.Currency),
		Status:        mapStatus(tx.Status),
		Channel:       string(c.Channel),
		MethodKind:    string(c.MethodKind),
		CardLast4:     card.Last4,
		CardBrand:     c.CardBrand,
		IssuerCountry: c.IssuerCountry,
		CustomerEmail: payer.Email,
		CustomerPhone: payer.Phone,
		FeeAmount:     &fee,
		FeeSource:     c.Fee.Source,
		PaidAt:        paidAt(tx, now),
	}
}

func mapStatus(s string) models.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "successful", "success", "succeeded", "paid":
		return models.PaymentStatusSuccessful
	case "refunded", "refund", "void":
		return models.PaymentStatusRefunded
	case "failed", "declined", "error", "expired", "canceled":
		return models.PaymentStatusFailed
	}
	return models.PaymentStatusPending
}

func paidAt(tx gateway.Transaction, now time.Time) string {
	for _, v := range []string{tx.PaidAt, tx.CreatedAt} {
		if v == "" {
			continue
		}
		if t, err := db.ParseTime(v); err == nil {
			return db.FormatTime(t)
		}
	}
	return db.FormatTime(now)
}
