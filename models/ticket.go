package models

import "fmt"

// TicketStatus represents the progress of a support ticket.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketPending  TicketStatus = "pending"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

// TicketPriority values accepted on creation.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen:     {TicketPending, TicketResolved, TicketClosed},
	TicketPending:  {TicketOpen, TicketResolved, TicketClosed},
	TicketResolved: {TicketOpen, TicketClosed},
	TicketClosed:   nil,
}

// CanTransition reports whether a ticket may move from one status to another.
func (s TicketStatus) CanTransition(to TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := ticketTransitions[s]
	return ok
}

// Ticket is a support request, optionally tied to a customer profile.
type Ticket struct {
	ID          int64           `db:"id" json:"id"`
	Number      string          `db:"number" json:"number"`
	ProfileID   *int64          `db:"profile_id" json:"profile_id,omitempty"`
	Subject     string          `db:"subject" json:"subject"`
	Description string          `db:"description" json:"description"`
	Status      TicketStatus    `db:"status" json:"status"`
	Priority    string          `db:"priority" json:"priority"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
	Messages    []TicketMessage `json:"messages,omitempty"`
}

// TicketMessage is one entry of a ticket conversation. Internal notes are
// hidden from customers.
type TicketMessage struct {
	ID         int64  `db:"id" json:"id"`
	TicketID   int64  `db:"ticket_id" json:"ticket_id"`
	Author     string `db:"author" json:"author"`
	Body       string `db:"body" json:"body"`
	IsInternal bool   `db:"is_internal" json:"is_internal"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}

// TicketNumber formats the public ticket number for an id.
func TicketNumber(id int64) string {
	return fmt.Sprintf("TKT-%06d", id)
}
