package service

import (
	"context"
	"errors"

	"gm-ticket-service/internal/model"
	"gm-ticket-service/internal/registry"
	"gm-ticket-service/pkg/apierror"
)

// TicketService is the command/session-facing layer over the ticket
// registry. It enforces the accept-tickets flag for player-initiated creates
// and maps registry outcomes to API errors. GM-initiated calls bypass the
// flag, so the ticket system can be worked even while closed to players.
type TicketService struct {
	registry *registry.Registry
}

// NewTicketService creates a new ticket service.
// Returns nil if reg is nil (required dependency).
func NewTicketService(reg *registry.Registry) *TicketService {
	if reg == nil {
		return nil
	}
	return &TicketService{registry: reg}
}

// CreateTicket files a ticket for the player. Player-initiated creates are
// rejected while the system is not accepting tickets; admin creates go
// through regardless.
func (s *TicketService) CreateTicket(ctx context.Context, owner model.PlayerID, text string, admin bool) (model.Ticket, error) {
	if owner.IsEmpty() {
		return model.Ticket{}, apierror.BadRequest("player id is required")
	}
	if text == "" {
		return model.Ticket{}, apierror.BadRequest("ticket text is required")
	}
	if !admin && !s.registry.IsAccepting() {
		return model.Ticket{}, apierror.ServiceUnavailable("ticket system is currently unavailable")
	}

	t, err := s.registry.Create(ctx, owner, text)
	if err != nil {
		return model.Ticket{}, apierror.InternalError("failed to save ticket")
	}
	return t, nil
}

// GetTicket returns the player's open ticket.
func (s *TicketService) GetTicket(owner model.PlayerID) (model.Ticket, error) {
	t, ok := s.registry.GetByOwner(owner)
	if !ok {
		return model.Ticket{}, apierror.NotFound("no such ticket")
	}
	return t, nil
}

// GetTicketByPosition returns the ticket at the given creation-order
// position, 0-based. Used by the GM ".ticket #num" flow.
func (s *TicketService) GetTicketByPosition(pos int) (model.Ticket, error) {
	t, ok := s.registry.GetByPosition(pos)
	if !ok {
		return model.Ticket{}, apierror.NotFound("no such ticket")
	}
	return t, nil
}

// ListTickets returns up to limit tickets starting at the given position.
func (s *TicketService) ListTickets(pos, limit int) []model.Ticket {
	if limit <= 0 {
		limit = 50
	}

	tickets := make([]model.Ticket, 0, limit)
	for i := pos; i < pos+limit; i++ {
		t, ok := s.registry.GetByPosition(i)
		if !ok {
			break
		}
		tickets = append(tickets, t)
	}
	return tickets
}

// TicketCount returns the number of open tickets.
func (s *TicketService) TicketCount() int {
	return s.registry.Count()
}

// UpdateTicketText replaces the question text of the player's ticket.
func (s *TicketService) UpdateTicketText(ctx context.Context, owner model.PlayerID, text string) (model.Ticket, error) {
	if text == "" {
		return model.Ticket{}, apierror.BadRequest("ticket text is required")
	}

	t, err := s.registry.UpdateText(ctx, owner, text)
	if errors.Is(err, registry.ErrNotFound) {
		return model.Ticket{}, apierror.NotFound("no such ticket")
	}
	if err != nil {
		return model.Ticket{}, apierror.InternalError("failed to save ticket")
	}
	return t, nil
}

// RespondToTicket records a GM response on the ticket. Legacy path retained
// for the ".ticket respond" command; the usual flow whispers the player and
// closes the ticket instead.
func (s *TicketService) RespondToTicket(ctx context.Context, owner model.PlayerID, text string) (model.Ticket, error) {
	t, err := s.registry.Respond(ctx, owner, text)
	if errors.Is(err, registry.ErrNotFound) {
		return model.Ticket{}, apierror.NotFound("no such ticket")
	}
	if err != nil {
		return model.Ticket{}, apierror.InternalError("failed to save ticket")
	}
	return t, nil
}

// CloseTicket notifies the player their ticket is closed (with or without
// the survey prompt) and removes the ticket. The ".ticket close" flow.
func (s *TicketService) CloseTicket(ctx context.Context, owner model.PlayerID, survey bool) error {
	var err error
	if survey {
		err = s.registry.CloseWithSurvey(ctx, owner)
	} else {
		err = s.registry.Close(ctx, owner)
	}
	if errors.Is(err, registry.ErrNotFound) {
		return apierror.NotFound("no such ticket")
	}

	if err := s.registry.Delete(ctx, owner); err != nil && !errors.Is(err, registry.ErrNotFound) {
		return apierror.InternalError("failed to delete ticket")
	}
	return nil
}

// DeleteTicket removes the player's ticket without notifying them.
func (s *TicketService) DeleteTicket(ctx context.Context, owner model.PlayerID) error {
	err := s.registry.Delete(ctx, owner)
	if errors.Is(err, registry.ErrNotFound) {
		return apierror.NotFound("no such ticket")
	}
	if err != nil {
		return apierror.InternalError("failed to delete ticket")
	}
	return nil
}

// DeleteAllTickets drops every open ticket. Administrative reset.
func (s *TicketService) DeleteAllTickets(ctx context.Context) error {
	if err := s.registry.DeleteAll(ctx); err != nil {
		return apierror.InternalError("failed to delete tickets")
	}
	return nil
}

// SubmitSurvey accepts a survey submission from the player's client.
func (s *TicketService) SubmitSurvey(owner model.PlayerID, result model.SurveyResult) {
	s.registry.SubmitSurvey(owner, result)
}

// SetAccepting toggles the global accept-tickets flag.
func (s *TicketService) SetAccepting(ctx context.Context, accept bool) {
	s.registry.SetAccepting(ctx, accept)
}

// SystemStatus reports whether the ticket system accepts new tickets and the
// number of open tickets.
func (s *TicketService) SystemStatus() (accepting bool, open int) {
	return s.registry.IsAccepting(), s.registry.Count()
}
