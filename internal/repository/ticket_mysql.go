package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"gm-ticket-service/internal/model"
)

// MySQLTicketRepository implements TicketRepository against the characters
// database. The character_ticket table is expected to exist:
//
//	CREATE TABLE character_ticket (
//	    id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
//	    guid               BIGINT UNSIGNED NOT NULL UNIQUE,
//	    ticket_text        TEXT NOT NULL,
//	    response_text      TEXT NOT NULL,
//	    ticket_last_update BIGINT NOT NULL
//	);
//
// The auto-increment id carries the insertion order across restarts; guid is
// the player that filed the ticket.
type MySQLTicketRepository struct {
	db *sql.DB
}

// NewMySQLTicketRepository creates a new MySQL ticket repository.
func NewMySQLTicketRepository(db *sql.DB) *MySQLTicketRepository {
	return &MySQLTicketRepository{db: db}
}

// Save replaces the row for the ticket's owner with the ticket's current
// state. Delete-then-insert inside a transaction, so a replaced ticket moves
// to the tail of the insertion order.
func (r *MySQLTicketRepository) Save(ctx context.Context, ticket *model.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM character_ticket WHERE guid = ?`, uint64(ticket.Owner)); err != nil {
		return fmt.Errorf("failed to clear ticket row for %s: %w", ticket.Owner, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO character_ticket (guid, ticket_text, response_text, ticket_last_update)
		VALUES (?, ?, ?, ?)`,
		uint64(ticket.Owner), ticket.Text, ticket.Response, ticket.LastUpdate)
	if err != nil {
		return fmt.Errorf("failed to insert ticket for %s: %w", ticket.Owner, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket save: %w", err)
	}
	return nil
}

// Delete removes the row for the given owner.
func (r *MySQLTicketRepository) Delete(ctx context.Context, owner model.PlayerID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM character_ticket WHERE guid = ?`, uint64(owner))
	if err != nil {
		return fmt.Errorf("failed to delete ticket for %s: %w", owner, err)
	}
	return nil
}

// DeleteAll removes every ticket row.
func (r *MySQLTicketRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM character_ticket`)
	if err != nil {
		return fmt.Errorf("failed to delete all tickets: %w", err)
	}
	return nil
}

// LoadAll returns all stored tickets ordered by insertion.
func (r *MySQLTicketRepository) LoadAll(ctx context.Context) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT guid, ticket_text, response_text, ticket_last_update
		FROM character_ticket ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var guid uint64
		var t model.Ticket
		if err := rows.Scan(&guid, &t.Text, &t.Response, &t.LastUpdate); err != nil {
			log.Printf("[MySQLTicketRepository] Skipping malformed ticket row: %v", err)
			continue
		}
		t.Owner = model.PlayerID(guid)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ticket rows: %w", err)
	}

	return tickets, nil
}

// Close closes the database connection.
func (r *MySQLTicketRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLTicketRepository implements TicketRepository
var _ TicketRepository = (*MySQLTicketRepository)(nil)
