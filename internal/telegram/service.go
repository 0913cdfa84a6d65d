package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminBackend/internal/db"
	"adminBackend/internal/logger"
	"adminBackend/models"
	"adminBackend/repository"
)

// Bot is the part of the Bot API the access service uses.
type Bot interface {
	CreateChatInviteLink(ctx context.Context, chatID int64, expireAt time.Time, memberLimit int) (string, error)
	BanChatMember(ctx context.Context, chatID, userID int64, untilDate time.Time) error
	UnbanChatMember(ctx context.Context, chatID, userID int64, onlyIfBanned bool) error
}

// Errors returned by Grant.
var (
	ErrInvalidGrant    = errors.New("invalid grant request")
	ErrProfileNotFound = errors.New("profile not found")
)

// MaxGrantDays bounds a single grant.
const MaxGrantDays = 3650

// Service grants and revokes chat access.
type Service struct {
	grants   repository.GrantRepositoryI
	profiles repository.ProfileRepositoryI
	subs     repository.SubscriptionRepositoryI
	audit    repository.AuditRepositoryI
	outbox   repository.OutboxRepositoryI
	bot      Bot
	log      logger.Logger
	now      func() time.Time
}

// NewService creates the access service.
func NewService(grants repository.GrantRepositoryI, profiles repository.ProfileRepositoryI, subs repository.SubscriptionRepositoryI,
	audit repository.AuditRepositoryI, outbox repository.OutboxRepositoryI, bot Bot, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		grants:   grants,
		profiles: profiles,
		subs:     subs,
		audit:    audit,
		outbox:   outbox,
		bot:      bot,
		log:      log,
		now:      time.Now,
	}
}

// GrantRequest is the body of a grant call.
type GrantRequest struct {
	ProfileID int64 `json:"profile_id" binding:"required,gt=0"`
	ChatID    int64 `json:"chat_id" binding:"required"`
	Days      int   `json:"days" binding:"required,gt=0"`
}

// Grant gives a profile access to a chat for req.Days and returns the grant with
// a single-use invite link expiring with it.
func (s *Service) Grant(ctx context.Context, actor string, req GrantRequest) (*models.TelegramGrant, error) {
	if req.ProfileID <= 0 || req.ChatID == 0 || req.Days <= 0 || req.Days > MaxGrantDays {
		return nil, fmt.Errorf("%w: profile_id, chat_id and days (1..%d) are required", ErrInvalidGrant, MaxGrantDays)
	}
	profile, err := s.profiles.GetByID(ctx, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	start := s.now().UTC()
	end := start.AddDate(0, 0, req.Days)
	g, err := s.grants.Create(ctx, req.ProfileID, req.ChatID, start, end)
	if err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}

	link, err := s.bot.CreateChatInviteLink(ctx, req.ChatID, end, 1)
	if err != nil {
		if markErr := s.grants.MarkRevoked(ctx, g.ID, "invite_failed", s.now()); markErr != nil {
			s.log.Error(fmt.Sprintf("[Telegram] failed to close grant %d: %v", g.ID, markErr))
		}
		return nil, fmt.Errorf("create invite link: %w", err)
	}
	if err := s.grants.SetInviteLink(ctx, g.ID, link); err != nil {
		return nil, fmt.Errorf("store invite link: %w", err)
	}
	g.InviteLink = link

	meta := map[string]any{"profile_id": g.ProfileID, "chat_id": g.ChatID, "end_at": g.EndAt, "days": req.Days}
	if _, err := s.audit.Append(ctx, actor, "telegram.access_granted", "telegram_grant", fmt.Sprint(g.ID), meta); err != nil {
		s.log.Warn(fmt.Sprintf("[Telegram] audit grant %d: %v", g.ID, err))
	}
	if _, err := s.outbox.Append(ctx, "telegram.access_granted", map[string]any{
		"grant_id": g.ID, "profile_id": g.ProfileID, "chat_id": g.ChatID, "end_at": g.EndAt,
	}); err != nil {
		s.log.Warn(fmt.Sprintf("[Telegram] outbox grant %d: %v", g.ID, err))
	}
	return g, nil
}

// SweepResult summarises one expiry sweep.
type SweepResult struct {
	Success              bool  `json:"success"`
	Checked              int   `json:"checked"`
	Revoked              int   `json:"revoked"`
	Expired              int   `json:"expired"`
	Failed               int   `json:"failed"`
	SubscriptionsExpired int64 `json:"subscriptions_expired"`
}

// sweepBatch caps the grants handled by one sweep; the next run picks up the rest.
const sweepBatch = 500

// Sweep closes every active grant whose end passed. Members without a linked
// Telegram account, or still covered by another grant for the same chat, are
// only marked expired; everyone else is removed from the chat and marked revoked.
// One failing grant is logged and counted, and the sweep goes on.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	n, err := s.subs.ExpireDue(ctx, now)
	if err != nil {
		s.log.Error(fmt.Sprintf("[Sweep] expire subscriptions: %v", err))
	}
	res.SubscriptionsExpired = n

	due, err := s.grants.ListExpiredActive(ctx, now, sweepBatch)
	if err != nil {
		return res, fmt.Errorf("list expired grants: %w", err)
	}
	for _, g := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Checked++
		outcome, err := s.closeGrant(ctx, g, now)
		if err != nil {
			res.Failed++
			s.log.Error(fmt.Sprintf("[Sweep] grant %d (profile %d, chat %d): %v", g.ID, g.ProfileID, g.ChatID, err))
			continue
		}
		switch outcome {
		case models.GrantRevoked:
			res.Revoked++
		case models.GrantExpired:
			res.Expired++
		}
	}
	res.Success = res.Failed == 0
	s.log.Info(fmt.Sprintf("[Sweep] checked=%d revoked=%d expired=%d failed=%d subscriptions_expired=%d",
		res.Checked, res.Revoked, res.Expired, res.Failed, res.SubscriptionsExpired))
	return res, nil
}

func (s *Service) closeGrant(ctx context.Context, g models.TelegramGrant, now time.Time) (models.GrantStatus, error) {
	profile, err := s.profiles.GetByID(ctx, g.ProfileID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}

	reason := "no_telegram_account"
	kick := false
	if profile != nil && profile.TelegramUserID != nil {
		other, err := s.grants.HasOtherActive(ctx, g.ProfileID, g.ChatID, g.ID, now)
		if err != nil {
			return "", fmt.Errorf("check other grants: %w", err)
		}
		if other {
			reason = "superseded"
		} else {
			kick = true
		}
	}

	if !kick {
		if err := s.grants.MarkExpired(ctx, g.ID, reason, now); err != nil {
			return "", fmt.Errorf("mark expired: %w", err)
		}
		s.record(ctx, g, "telegram.access_expired", reason)
		return models.GrantExpired, nil
	}

	userID := *profile.TelegramUserID
	if err := s.bot.BanChatMember(ctx, g.ChatID, userID, time.Time{}); err != nil && !IsMemberGone(err) {
		return "", fmt.Errorf("ban member: %w", err)
	}
	if err := s.bot.UnbanChatMember(ctx, g.ChatID, userID, true); err != nil && !IsMemberGone(err) {
		return "", fmt.Errorf("unban member: %w", err)
	}
	if err := s.grants.MarkRevoked(ctx, g.ID, "expired", now); err != nil {
		return "", fmt.Errorf("mark revoked: %w", err)
	}
	s.record(ctx, g, "telegram.access_revoked", "expired")
	return models.GrantRevoked, nil
}

func (s *Service) record(ctx context.Context, g models.TelegramGrant, action, reason string) {
	meta := map[string]any{"profile_id": g.ProfileID, "chat_id": g.ChatID, "end_at": g.EndAt, "reason": reason}
	if _, err := s.audit.Append(ctx, "system", action, "telegram_grant", fmt.Sprint(g.ID), meta); err != nil {
		s.log.Warn(fmt.Sprintf("[Sweep] audit grant %d: %v", g.ID, err))
	}
	if _, err := s.outbox.Append(ctx, action, map[string]any{
		"grant_id": g.ID, "profile_id": g.ProfileID, "chat_id": g.ChatID, "reason": reason, "at": db.FormatTime(s.now()),
	}); err != nil {
		s.log.Warn(fmt.Sprintf("[Sweep] outbox grant %d: %v", g.ID, err))
	}
}
