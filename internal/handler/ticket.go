package handler

import (
	"encoding/json"
	"net/http"

	"gm-ticket-service/internal/model"
	"gm-ticket-service/internal/service"
	"gm-ticket-service/pkg/apierror"
	"gm-ticket-service/pkg/response"

	"github.com/go-chi/chi/v5"
)

// TicketHandler handles the player-facing ticket requests: the HTTP
// counterpart of the client's ticket opcodes.
type TicketHandler struct {
	ticketService *service.TicketService
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// ticketTextRequest is the body for create and update-text requests.
type ticketTextRequest struct {
	Text string `json:"text"`
}

// playerIDParam parses the player_id URL parameter.
func playerIDParam(r *http.Request) (model.PlayerID, error) {
	raw := chi.URLParam(r, "player_id")
	owner, err := model.ParsePlayerID(raw)
	if err != nil || owner.IsEmpty() {
		return 0, apierror.BadRequest("invalid player id")
	}
	return owner, nil
}

// CreateTicket handles POST /api/v1/tickets/{player_id}
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
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

	ticket, err := h.ticketService.CreateTicket(r.Context(), owner, req.Text, false)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, ticket)
}

// GetTicket handles GET /api/v1/tickets/{player_id}
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	owner, err := playerIDParam(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(owner)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, ticket)
}

// UpdateTicketText handles PUT /api/v1/tickets/{player_id}/text
func (h *TicketHandler) UpdateTicketText(w http.ResponseWriter, r *http.Request) {
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

	ticket, err := h.ticketService.UpdateTicketText(r.Context(), owner, req.Text)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, ticket)
}

// DeleteTicket handles DELETE /api/v1/tickets/{player_id} - the player
// abandons their own ticket.
func (h *TicketHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
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

// SubmitSurvey handles POST /api/v1/tickets/{player_id}/survey - the
// survey-submit opcode. The payload is drained and discarded; the client
// always gets an acknowledgement.
func (h *TicketHandler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	owner, err := playerIDParam(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var result model.SurveyResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	result.Owner = owner

	h.ticketService.SubmitSurvey(owner, result)

	response.OK(w, map[string]interface{}{"status": "accepted"})
}

// SystemStatus handles GET /api/v1/tickets/status - the system-status
// opcode: tells clients whether new tickets are accepted.
func (h *TicketHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	accepting, open := h.ticketService.SystemStatus()

	response.OK(w, map[string]interface{}{
		"accepting":    accepting,
		"open_tickets": open,
	})
}
