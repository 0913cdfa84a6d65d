package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"adminBackend/models"
	"adminBackend/repository"
)

// ErrInvalidRequest marks caller mistakes; handlers answer them with 400.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Report limits.
const (
	DefaultReportLimit = 100
	MaxReportLimit     = 500
)

// Report modes.
const (
	ModeSummary = "summary"
	ModeDetails = "details"
)

// UnlinkedRequest is the body of the unlinked-payments report.
type UnlinkedRequest struct {
	Mode   string `json:"mode"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Last4  string `json:"last4"`
	Brand  string `json:"brand"`
}

// Normalize applies defaults and clamps, and rejects malformed filters.
func (r *UnlinkedRequest) Normalize() error {
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = ModeSummary
	}
	if r.Mode != ModeSummary && r.Mode != ModeDetails {
		return invalid("mode must be %q or %q", ModeSummary, ModeDetails)
	}
	if r.Limit <= 0 {
		r.Limit = DefaultReportLimit
	}
	if r.Limit > MaxReportLimit {
		r.Limit = MaxReportLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	r.Last4 = strings.TrimSpace(r.Last4)
	if r.Last4 != "" && !isFourDigits(r.Last4) {
		return invalid("last4 must be exactly 4 digits")
	}
	if r.Mode == ModeDetails && r.Last4 == "" {
		return invalid("details mode requires last4 (4 digits)")
	}
	r.Brand = strings.ToLower(strings.TrimSpace(r.Brand))
	return nil
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Pagination describes the returned page.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// CardReport is one card fingerprint in the report.
type CardReport struct {
	Last4          string           `json:"last4"`
	Brand          string           `json:"brand"`
	PaymentsCount  int              `json:"payments_count"`
	TotalAmount    int64            `json:"total_amount"`
	Currency       string           `json:"currency"`
	FirstPaidAt    string           `json:"first_paid_at"`
	LastPaidAt     string           `json:"last_paid_at"`
	LinkedProfiles int              `json:"linked_profiles"`
	CollisionRisk  bool             `json:"collision_risk"`
	Payments       []models.Payment `json:"payments,omitempty"`
}

// UnlinkedResponse is the report body.
type UnlinkedResponse struct {
	OK         bool         `json:"ok"`
	Mode       string       `json:"mode"`
	Pagination Pagination   `json:"pagination"`
	Cards      []CardReport `json:"cards"`
}

// detailPaymentsLimit caps the payments listed per card in details mode.
const detailPaymentsLimit = 200

// UnlinkedReport groups unlinked successful payments by card fingerprint and currency.
func (s *Service) UnlinkedReport(ctx context.Context, req UnlinkedRequest) (*UnlinkedResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	cards, total, err := s.payments.UnlinkedCards(ctx, repository.UnlinkedCardParams{
		Last4:  req.Last4,
		Brand:  req.Brand,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("unlinked cards: %w", err)
	}
	out := &UnlinkedResponse{
		OK:   true,
		Mode: req.Mode,
		Pagination: Pagination{
			Limit:   req.Limit,
			Offset:  req.Offset,
			Total:   total,
			HasMore: req.Offset+len(cards) < total,
		},
		Cards: make([]CardReport, 0, len(cards)),
	}
	for _, c := range cards {
		cr := CardReport{
			Last4:          c.Last4,
			Brand:          c.Brand,
			PaymentsCount:  c.PaymentsCount,
			TotalAmount:    c.TotalAmount,
			Currency:       c.Currency,
			FirstPaidAt:    c.FirstPaidAt,
			LastPaidAt:     c.LastPaidAt,
			LinkedProfiles: c.LinkedProfiles,
			CollisionRisk:  c.LinkedProfiles >= 2,
		}
		if req.Mode == ModeDetails {
			list, err := s.payments.UnlinkedCardPayments(ctx, c.Last4, c.Brand, c.Currency, detailPaymentsLimit, 0)
			if err != nil {
				return nil, fmt.Errorf("unlinked payments for card %s: %w", c.Last4, err)
			}
			cr.Payments = list
		}
		out.Cards = append(out.Cards, cr)
	}
	return out, nil
}

// PaymentByUID returns the mirrored payment for a gateway transaction uid.
func (s *Service) PaymentByUID(ctx context.Context, uid string) (*models.Payment, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, invalid("uid is required")
	}
	p, err := s.payments.GetByExternalUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, repository.ErrNotFound
	}
	return p, nil
}
