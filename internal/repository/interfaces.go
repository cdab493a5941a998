package repository

import (
	"context"

	"gm-ticket-service/internal/model"
)

// TicketRepository defines durable storage for the character_ticket table.
type TicketRepository interface {
	// Save replaces the stored row for the ticket's owner with the ticket's
	// current state. Re-saving an existing ticket must not duplicate the row
	// and moves it to the tail of the insertion order.
	Save(ctx context.Context, ticket *model.Ticket) error

	// Delete removes the row for the given owner. Deleting an absent row is
	// not an error.
	Delete(ctx context.Context, owner model.PlayerID) error

	// DeleteAll removes every ticket row.
	DeleteAll(ctx context.Context) error

	// LoadAll returns all stored tickets in insertion order.
	LoadAll(ctx context.Context) ([]model.Ticket, error)

	// Close closes the repository connection.
	Close() error
}
