package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"gm-ticket-service/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteTicketRepository implements TicketRepository using SQLite. Used by
// standalone and development deployments that do not run a characters
// database.
type SQLiteTicketRepository struct {
	db *sql.DB
}

// NewSQLiteTicketRepository creates a new SQLite ticket repository.
// dbPath is the path to the SQLite database file (e.g., "./data/tickets.db")
func NewSQLiteTicketRepository(dbPath string) (*SQLiteTicketRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTicketTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteTicketRepository] Initialized with database: %s", dbPath)
	return &SQLiteTicketRepository{db: db}, nil
}

// createTicketTable creates the character_ticket table.
func createTicketTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS character_ticket (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guid INTEGER NOT NULL UNIQUE,
		ticket_text TEXT NOT NULL,
		response_text TEXT NOT NULL DEFAULT '',
		ticket_last_update INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ticket_guid ON character_ticket(guid);
	`
	_, err := db.Exec(query)
	return err
}

// Save replaces the row for the ticket's owner with the ticket's current
// state. Delete-then-insert inside a transaction, so a replaced ticket moves
// to the tail of the insertion order.
func (r *SQLiteTicketRepository) Save(ctx context.Context, ticket *model.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM character_ticket WHERE guid = ?`, int64(ticket.Owner)); err != nil {
		return fmt.Errorf("failed to clear ticket row for %s: %w", ticket.Owner, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO character_ticket (guid, ticket_text, response_text, ticket_last_update)
		VALUES (?, ?, ?, ?)`,
		int64(ticket.Owner), ticket.Text, ticket.Response, ticket.LastUpdate)
	if err != nil {
		return fmt.Errorf("failed to insert ticket for %s: %w", ticket.Owner, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket save: %w", err)
	}
	return nil
}

// Delete removes the row for the given owner.
func (r *SQLiteTicketRepository) Delete(ctx context.Context, owner model.PlayerID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM character_ticket WHERE guid = ?`, int64(owner))
	if err != nil {
		return fmt.Errorf("failed to delete ticket for %s: %w", owner, err)
	}
	return nil
}

// DeleteAll removes every ticket row.
func (r *SQLiteTicketRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM character_ticket`)
	if err != nil {
		return fmt.Errorf("failed to delete all tickets: %w", err)
	}
	return nil
}

// LoadAll returns all stored tickets ordered by insertion.
func (r *SQLiteTicketRepository) LoadAll(ctx context.Context) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT guid, ticket_text, response_text, ticket_last_update
		FROM character_ticket ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var guid int64
		var t model.Ticket
		if err := rows.Scan(&guid, &t.Text, &t.Response, &t.LastUpdate); err != nil {
			log.Printf("[SQLiteTicketRepository] Skipping malformed ticket row: %v", err)
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
func (r *SQLiteTicketRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteTicketRepository implements TicketRepository
var _ TicketRepository = (*SQLiteTicketRepository)(nil)
