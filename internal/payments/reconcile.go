package payments

import (
	"context"
	"errors"
	"fmt"

	"adminBackend/models"
	"adminBackend/repository"
)

// MinPhoneDigits is the shortest normalised phone number used for matching.
const MinPhoneDigits = 7

// Match reasons.
const (
	MatchEmail = "email"
	MatchPhone = "phone"
	MatchCard  = "card"
)

// Match is the outcome of looking up a profile for one payment.
// ProfileID is zero when nothing or more than one profile matched.
type Match struct {
	ProfileID int64
	By        string
	Ambiguous bool
}

// matchProfile tries email, then phone, then card fingerprint. The first
// criterion that finds anything decides: several hits make the match ambiguous.
func (s *Service) matchProfile(ctx context.Context, p *models.Payment) (Match, error) {
	if email := repository.NormalizeEmail(p.CustomerEmail); email != "" {
		ids, err := s.profiles.FindIDsByEmail(ctx, email)
		if err != nil {
			return Match{}, err
		}
		if m, done := decide(ids, MatchEmail); done {
			return m, nil
		}
	}
	if phone := repository.NormalizePhone(p.CustomerPhone); len(phone) >= MinPhoneDigits {
		ids, err := s.profiles.FindIDsByPhone(ctx, phone)
		if err != nil {
			return Match{}, err
		}
		if m, done := decide(ids, MatchPhone); done {
			return m, nil
		}
	}
	if p.CardLast4 != "" && p.CardBrand != "" && p.CardBrand != "unknown" {
		ids, err := s.payments.ProfilesForCard(ctx, p.CardLast4, p.CardBrand)
		if err != nil {
			return Match{}, err
		}
		// two or more owners is a collision; the card never decides then
		if m, done := decide(ids, MatchCard); done {
			return m, nil
		}
	}
	return Match{}, nil
}

func decide(ids []int64, by string) (Match, bool) {
	switch len(ids) {
	case 0:
		return Match{}, false
	case 1:
		return Match{ProfileID: ids[0], By: by}, true
	}
	return Match{By: by, Ambiguous: true}, true
}

// ReconcileResult summarises a reconciliation run.
type ReconcileResult struct {
	Success   bool           `json:"success"`
	DryRun    bool           `json:"dry_run"`
	Scanned   int            `json:"scanned"`
	Linked    int            `json:"linked"`
	Ambiguous int            `json:"ambiguous"`
	Unmatched int            `json:"unmatched"`
	Failed    int            `json:"failed"`
	ByReason  map[string]int `json:"by_reason"`
}

// Reconcile walks unlinked successful payments (at most limit) and links each
// one that matches exactly one profile. A dry run only counts.
func (s *Service) Reconcile(ctx context.Context, dryRun bool, limit int) (ReconcileResult, error) {
	if limit <= 0 {
		limit = 500
	}
	res := ReconcileResult{DryRun: dryRun, ByReason: map[string]int{}}
	var after int64
	for res.Scanned < limit {
		batch := limit - res.Scanned
		if batch > 100 {
			batch = 100
		}
		list, err := s.payments.ListUnlinked(ctx, after, batch)
		if err != nil {
			return res, fmt.Errorf("list unlinked payments: %w", err)
		}
		if len(list) == 0 {
			break
		}
		for i := range list {
			p := &list[i]
			after = p.ID
			res.Scanned++
			m, err := s.matchProfile(ctx, p)
			if err != nil {
				res.Failed++
				s.log.Error(fmt.Sprintf("[Reconcile] payment %d: %v", p.ID, err))
				continue
			}
			switch {
			case m.Ambiguous:
				res.Ambiguous++
				continue
			case m.ProfileID == 0:
				res.Unmatched++
				continue
			}
			if !dryRun {
				if err := s.payments.LinkProfile(ctx, p.ID, m.ProfileID); err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						// linked concurrently
						continue
					}
					res.Failed++
					s.log.Error(fmt.Sprintf("[Reconcile] link payment %d: %v", p.ID, err))
					continue
				}
				if _, err := s.audit.Append(ctx, system, "payment.linked", "payment", fmt.Sprint(p.ID),
					map[string]any{"profile_id": m.ProfileID, "by": m.By}); err != nil {
					s.log.Warn(fmt.Sprintf("[Reconcile] audit payment %d: %v", p.ID, err))
				}
			}
			res.Linked++
			res.ByReason[m.By]++
		}
		if len(list) < batch {
			break
		}
	}
	res.Success = res.Failed == 0
	s.log.Info(fmt.Sprintf("[Reconcile] dry_run=%t scanned=%d linked=%d ambiguous=%d unmatched=%d",
		dryRun, res.Scanned, res.Linked, res.Ambiguous, res.Unmatched))
	return res, nil
}
