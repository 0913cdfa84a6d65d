package support

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adminBackend/internal/logger"
	"adminBackend/models"
	"adminBackend/repository"
)

// ErrInvalidRequest marks caller mistakes; handlers answer them with 400.
var ErrInvalidRequest = errors.New("invalid request")

// Ticket list page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service is the helpdesk: support tickets and subscription management.
// Every mutation is written to the audit log.
type Service struct {
	tickets repository.TicketRepositoryI
	subs    repository.SubscriptionRepositoryI
	audit   repository.AuditRepositoryI
	outbox  repository.OutboxRepositoryI
	log     logger.Logger
	now     func() time.Time
}

// NewService creates the helpdesk service.
func NewService(tickets repository.TicketRepositoryI, subs repository.SubscriptionRepositoryI,
	audit repository.AuditRepositoryI, outbox repository.OutboxRepositoryI, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tickets: tickets, subs: subs, audit: audit, outbox: outbox, log: log, now: time.Now}
}

// CreateTicketRequest is the body of a ticket creation.
type CreateTicketRequest struct {
	Subject     string `json:"subject" binding:"required,max=200"`
	Description string `json:"description" binding:"max=10000"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	ProfileID   *int64 `json:"profile_id" binding:"omitempty,gt=0"`
}

// MessageRequest is the body of a ticket reply or internal note.
type MessageRequest struct {
	Body       string `json:"body" binding:"required,max=10000"`
	IsInternal bool   `json:"is_internal"`
}

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TicketPage is one page of the ticket list. NextAfterID is zero on the last page.
type TicketPage struct {
	Tickets     []models.Ticket `json:"tickets"`
	NextAfterID int64           `json:"next_after_id,omitempty"`
}

// CreateTicket opens a ticket, audits it and emits ticket.created.
func (s *Service) CreateTicket(ctx context.Context, actor string, req CreateTicketRequest) (*models.Ticket, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidRequest)
	}
	priority := strings.ToLower(strings.TrimSpace(req.Priority))
	switch priority {
	case "":
		priority = models.PriorityNormal
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
	default:
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidRequest, req.Priority)
	}

	t, err := s.tickets.Create(ctx, &models.Ticket{
		ProfileID:   req.ProfileID,
		Subject:     subject,
		Description: req.Description,
		Priority:    priority,
		CreatedBy:   actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	s.record(ctx, actor, "ticket.created", t.ID, map[string]any{"number": t.Number, "priority": t.Priority})

	event := map[string]any{"ticket_id": t.ID, "number": t.Number, "subject": t.Subject, "priority": t.Priority}
	if t.ProfileID != nil {
		event["profile_id"] = *t.ProfileID
	}
	if _, err := s.outbox.Append(ctx, "ticket.created", event); err != nil {
		s.log.Warn(fmt.Sprintf("[Tickets] outbox ticket %d: %v", t.ID, err))
	}
	return t, nil
}

// ListTickets returns tickets newest first. afterID is the cursor from the previous page.
func (s *Service) ListTickets(ctx context.Context, status string, pageSize int, afterID int64) (*TicketPage, error) {
	st := models.TicketStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	list, err := s.tickets.List(ctx, repository.ListTicketsParams{Status: st, PageSize: pageSize, AfterID: afterID})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	page := &TicketPage{Tickets: list}
	if page.Tickets == nil {
		page.Tickets = []models.Ticket{}
	}
	if len(list) == pageSize {
		page.NextAfterID = list[len(list)-1].ID
	}
	return page, nil
}

// GetTicket returns a ticket with its messages, or repository.ErrNotFound.
func (s *Service) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := s.tickets.GetWithMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if t == nil {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

// AddMessage appends a reply or an internal note.
func (s *Service) AddMessage(ctx context.Context, actor string, ticketID int64, req MessageRequest) (*models.TicketMessage, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidRequest)
	}
	m, err := s.tickets.AddMessage(ctx, &models.TicketMessage{
		TicketID:   ticketID,
		Author:     actor,
		Body:       body,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	s.record(ctx, actor, "ticket.message_added", ticketID, map[string]any{"message_id": m.ID, "is_internal": m.IsInternal})
	return m, nil
}

// ChangeStatus moves a ticket along its workflow. Disallowed moves wrap
// repository.ErrInvalidTransition.
func (s *Service) ChangeStatus(ctx context.Context, actor string, id int64, req StatusRequest) (*models.Ticket, error) {
	to := models.TicketStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, req.Status)
	}
	t, err := s.tickets.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.record(ctx, actor, "ticket.status_changed", id, map[string]any{"status": string(t.Status)})
	return t, nil
}

func (s *Service) record(ctx context.Context, actor, action string, ticketID int64, meta map[string]any) {
	if _, err := s.audit.Append(ctx, actor, action, "ticket", fmt.Sprint(ticketID), meta); err != nil {
		s.log.Warn(fmt.Sprintf("[Tickets] audit %s %d: %v", action, ticketID, err))
	}
}
