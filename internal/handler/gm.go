package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gm-ticket-service/internal/service"
	"gm-ticket-service/pkg/apierror"
	"gm-ticket-service/pkg/response"

	"github.com/go-chi/chi/v5"
)

// GMHandler handles the GM command surface: the HTTP counterpart of the
// ".ticket" chat command suite.
type GMHandler struct {
	ticketService *service.TicketService
}

// NewGMHandler creates a new GM handler.
func NewGMHandler(ticketService *service.TicketService) *GMHandler {
	return &GMHandler{
		ticketService: ticketService,
	}
}

// ListTickets handles GET /api/v1/gm/tickets?pos=0&limit=50 - tickets in
// creation order, the ".ticket" listing.
func (h *GMHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	pos, _ := strconv.Atoi(r.URL.Query().Get("pos"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if pos < 0 {
		pos = 0
	}
	if limit <= 0 {
		limit = 50
	}

	tickets := h.ticketService.ListTickets(pos, limit)
	total := h.ticketService.TicketCount()

	response.JSONWithMeta(w, http.StatusOK, tickets, pos, limit, total)
}

// GetTicketByPosition handles GET /api/v1/gm/tickets/{pos} - the
// ".ticket #num" lookup by creation-order position.
func (h *GMHandler) GetTicketByPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil || pos < 0 {
		response.Error(w, apierror.BadRequest("invalid ticket position"))
		return
	}

	ticket, svcErr := h.ticketService.GetTicketByPosition(pos)
	if svcErr != nil {
		response.Error(w, svcErr)
		return
	}

	response.OK(w, ticket)
}

// CreateTicket handles POST /api/v1/gm/tickets/{player_id} - an
// administrative create that bypasses the accept-tickets flag.
func (h *GMHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	owner, err := playerIDParam(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var req ticketTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), owner, req.Text, true)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, ticket)
}

// RespondToTicket handles POST /api/v1/gm/tickets/{player_id}/respond -
// the legacy ".ticket respond" path.
func (h *GMHandler) RespondToTicket(w http.ResponseWriter, r *http.Request) {
	owner, err := playerIDParam(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var req ticketTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	ticket, err := h.ticketService.RespondToTicket(r.Context(), owner, req.Text)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, ticket)
}

// CloseTicket handles POST /api/v1/gm/tickets/{player_id}/close?survey=1 -
// ".ticket close" and ".ticket close_survey".
func (h *GMHandler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	owner, err := playerIDParam(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	survey := r.URL.Query().Get("survey") == "1"

	if err := h.ticketService.CloseTicket(r.Context(), owner, survey); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"status": "closed",
		"survey": survey,
	})
}

// DeleteTicket handles DELETE /api/v1/gm/tickets/{player_id}
func (h *GMHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	owner, err := playerIDParam(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.ticketService.DeleteTicket(r.Context(), owner); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// DeleteAllTickets handles DELETE /api/v1/gm/tickets - administrative reset.
func (h *GMHandler) DeleteAllTickets(w http.ResponseWriter, r *http.Request) {
	if err := h.ticketService.DeleteAllTickets(r.Context()); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// systemRequest is the body for the accept-tickets toggle.
type systemRequest struct {
	Accepting bool `json:"accepting"`
}

// SetSystemStatus handles PUT /api/v1/gm/system - ".ticket system_on/off".
func (h *GMHandler) SetSystemStatus(w http.ResponseWriter, r *http.Request) {
	var req systemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	h.ticketService.SetAccepting(r.Context(), req.Accepting)

	response.OK(w, map[string]interface{}{"accepting": req.Accepting})
}
