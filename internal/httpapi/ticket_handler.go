package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/logger"
	"adminBackend/internal/support"
)

// TicketHandler serves the helpdesk ticket endpoints.
type TicketHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	AddMessage(c *gin.Context)
	ChangeStatus(c *gin.Context)
}

type ticketHandler struct {
	support SupportService
	log     logger.Logger
}

// NewTicketHandler creates a TicketHandler.
func NewTicketHandler(svc SupportService, log logger.Logger) TicketHandler {
	return &ticketHandler{support: svc, log: log}
}

// List handles GET /tickets?status=&page_size=&after_id=.
func (h *ticketHandler) List(c *gin.Context) {
	pageSize, ok := queryInt(c, "page_size")
	if !ok {
		return
	}
	afterID, ok := queryInt(c, "after_id")
	if !ok {
		return
	}
	page, err := h.support.ListTickets(c.Request.Context(), c.Query("status"), int(pageSize), afterID)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tickets": page.Tickets, "next_after_id": page.NextAfterID})
}

// Create handles POST /tickets.
func (h *ticketHandler) Create(c *gin.Context) {
	var req support.CreateTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.support.CreateTicket(c.Request.Context(), actor(c), req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "ticket": t})
}

// Get handles GET /tickets/:id.
func (h *ticketHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.support.GetTicket(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ticket": t})
}

// AddMessage handles POST /tickets/:id/messages.
func (h *ticketHandler) AddMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req support.MessageRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.support.AddMessage(c.Request.Context(), actor(c), id, req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": m})
}

// ChangeStatus handles PATCH /tickets/:id/status.
func (h *ticketHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req support.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.support.ChangeStatus(c.Request.Context(), actor(c), id, req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ticket": t})
}
