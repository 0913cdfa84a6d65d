package support

import (
	"context"
	"fmt"

	"adminBackend/internal/db"
	"adminBackend/models"
)

// ListSubscriptions returns a profile's subscriptions.
func (s *Service) ListSubscriptions(ctx context.Context, profileID int64) ([]models.Subscription, error) {
	if profileID <= 0 {
		return nil, fmt.Errorf("%w: profile_id is required", ErrInvalidRequest)
	}
	list, err := s.subs.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if list == nil {
		list = []models.Subscription{}
	}
	return list, nil
}

// CancelSubscription cancels an active subscription. Anything not active
// yields repository.ErrInvalidTransition.
func (s *Service) CancelSubscription(ctx context.Context, actor string, id int64) (*models.Subscription, error) {
	now := s.now()
	sub, err := s.subs.Cancel(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription %d: %w", id, err)
	}
	meta := map[string]any{"profile_id": sub.ProfileID, "product_code": sub.ProductCode, "at": db.FormatTime(now)}
	if _, err := s.audit.Append(ctx, actor, "subscription.canceled", "subscription", fmt.Sprint(id), meta); err != nil {
		s.log.Warn(fmt.Sprintf("[Subscriptions] audit cancel %d: %v", id, err))
	}
	if _, err := s.outbox.Append(ctx, "subscription.canceled", map[string]any{"subscription_id": id, "profile_id": sub.ProfileID}); err != nil {
		s.log.Warn(fmt.Sprintf("[Subscriptions] outbox cancel %d: %v", id, err))
	}
	return sub, nil
}
