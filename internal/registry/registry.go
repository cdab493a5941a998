package registry

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gm-ticket-service/internal/model"
	"gm-ticket-service/internal/notify"
	"gm-ticket-service/internal/repository"
	"gm-ticket-service/internal/session"
)

// ErrNotFound indicates the player has no open ticket.
var ErrNotFound = errors.New("ticket not found")

// Registry is the authoritative in-memory index of open GM tickets, mirrored
// to the character_ticket table. It holds at most one ticket per player and a
// secondary index in creation order for GM listing commands.
//
// Lookups return value snapshots and mutations are keyed by player ID, so no
// caller ever holds a reference into the registry's own state. Store failures
// are surfaced to the caller but never roll back the in-memory state: the
// registry is the runtime source of truth and the store is reconciled at the
// next full reload.
type Registry struct {
	mu        sync.RWMutex
	repo      repository.TicketRepository
	notifier  session.Notifier
	announcer notify.Announcer
	now       func() int64

	byOwner   map[model.PlayerID]*model.Ticket
	byOrder   []model.PlayerID
	accepting bool
}

// Config holds the collaborators for a Registry.
type Config struct {
	// Repository is the durable ticket store. Required.
	Repository repository.TicketRepository

	// Notifier delivers close / survey pushes to player sessions. Optional.
	Notifier session.Notifier

	// Announcer broadcasts ticket lifecycle events to GM tooling. Optional.
	Announcer notify.Announcer

	// AcceptTickets is the initial accept-tickets flag.
	AcceptTickets bool

	// Clock returns the current time in unix seconds. Defaults to wall clock.
	Clock func() int64
}

// New creates an empty registry. Call Load once before serving requests.
func New(cfg Config) *Registry {
	clock := cfg.Clock
	if clock == nil {
		clock = func() int64 { return time.Now().Unix() }
	}

	return &Registry{
		repo:      cfg.Repository,
		notifier:  cfg.Notifier,
		announcer: cfg.Announcer,
		now:       clock,
		byOwner:   make(map[model.PlayerID]*model.Ticket),
		accepting: cfg.AcceptTickets,
	}
}

// Load reads all stored tickets in their stored order and fills both indexes.
// Called once at startup. Rows with an empty owner or a duplicate owner are
// skipped.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	skipped := 0
	for i := range stored {
		t := stored[i]
		if t.Owner.IsEmpty() {
			skipped++
			continue
		}
		if _, exists := r.byOwner[t.Owner]; exists {
			skipped++
			continue
		}
		r.byOwner[t.Owner] = &t
		r.byOrder = append(r.byOrder, t.Owner)
	}

	if skipped > 0 {
		log.Printf("[TicketRegistry] Skipped %d malformed ticket rows during load", skipped)
	}
	log.Printf("[TicketRegistry] Loaded %d open tickets", len(r.byOrder))
	return nil
}

// GetByOwner returns a snapshot of the player's ticket.
func (r *Registry) GetByOwner(owner model.PlayerID) (model.Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byOwner[owner]
	if !ok {
		return model.Ticket{}, false
	}
	return *t, true
}

// GetByPosition returns a snapshot of the ticket at the given 0-based offset
// in creation order.
func (r *Registry) GetByPosition(pos int) (model.Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if pos < 0 || pos >= len(r.byOrder) {
		return model.Ticket{}, false
	}
	t := r.byOwner[r.byOrder[pos]]
	return *t, true
}

// Count returns the number of open tickets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byOwner)
}

// Create files a ticket for the player. An existing ticket for the same
// player is replaced: its row is dropped, its order entry removed, and the
// slot re-initialised, so a player always has at most one ticket and a
// re-filed ticket moves to the tail of the creation order.
func (r *Registry) Create(ctx context.Context, owner model.PlayerID, text string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.byOwner[owner]
	if exists {
		r.removeFromOrder(owner)
	} else {
		t = &model.Ticket{}
		r.byOwner[owner] = t
	}

	t.Owner = owner
	t.Text = text
	t.Response = ""
	t.LastUpdate = r.now()

	r.byOrder = append(r.byOrder, owner)

	err := r.repo.Save(ctx, t)
	if err != nil {
		log.Printf("[TicketRegistry] Failed to save ticket for player %s: %v", owner, err)
	}

	r.announce(ctx, notify.Event{Kind: "created", Owner: owner, Text: text, Timestamp: t.LastUpdate})
	return *t, err
}

// UpdateText replaces the ticket's question text, bumps its last-update time
// and persists it.
func (r *Registry) UpdateText(ctx context.Context, owner model.PlayerID, text string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byOwner[owner]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}

	t.Text = text
	t.LastUpdate = r.now()

	err := r.repo.Save(ctx, t)
	if err != nil {
		log.Printf("[TicketRegistry] Failed to save ticket for player %s: %v", owner, err)
	}
	return *t, err
}

// Respond records a GM response on the ticket. Legacy path; the core flow
// delivers responses out-of-band as whispers.
func (r *Registry) Respond(ctx context.Context, owner model.PlayerID, text string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byOwner[owner]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}

	t.Response = text
	t.LastUpdate = r.now()

	err := r.repo.Save(ctx, t)
	if err != nil {
		log.Printf("[TicketRegistry] Failed to save ticket for player %s: %v", owner, err)
	}
	return *t, err
}

// Delete removes the player's ticket from the store and both indexes.
// Returns ErrNotFound if the player has no ticket.
func (r *Registry) Delete(ctx context.Context, owner model.PlayerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOwner[owner]; !ok {
		return ErrNotFound
	}

	err := r.repo.Delete(ctx, owner)
	if err != nil {
		log.Printf("[TicketRegistry] Failed to delete ticket row for player %s: %v", owner, err)
	}

	r.removeFromOrder(owner)
	delete(r.byOwner, owner)

	r.announce(ctx, notify.Event{Kind: "deleted", Owner: owner})
	return err
}

// DeleteAll drops every ticket from the store and empties both indexes.
// Used by administrative reset; idempotent.
func (r *Registry) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.repo.DeleteAll(ctx)
	if err != nil {
		log.Printf("[TicketRegistry] Failed to bulk-delete tickets: %v", err)
	}

	r.byOwner = make(map[model.PlayerID]*model.Ticket)
	r.byOrder = nil
	return err
}

// Close pushes a "ticket closed" status to the owner's session. The ticket
// itself is untouched; nothing is persisted. If the player has no active
// session the push is silently dropped.
func (r *Registry) Close(ctx context.Context, owner model.PlayerID) error {
	return r.close(ctx, owner, model.StatusClosed)
}

// CloseWithSurvey behaves like Close but also asks the client to show the
// satisfaction survey.
func (r *Registry) CloseWithSurvey(ctx context.Context, owner model.PlayerID) error {
	return r.close(ctx, owner, model.StatusSurvey)
}

func (r *Registry) close(ctx context.Context, owner model.PlayerID, status model.TicketStatus) error {
	r.mu.RLock()
	_, ok := r.byOwner[owner]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if r.notifier != nil {
		r.notifier.SendTicketStatus(owner, status)
	}

	r.announce(ctx, notify.Event{Kind: "closed", Owner: owner})
	return nil
}

// SubmitSurvey drains a survey submission. Results are not persisted. A
// submission for a player with no open ticket is still accepted: the client
// fires the survey after the close push and may race a GM delete, so
// rejecting it could only desync the client.
func (r *Registry) SubmitSurvey(owner model.PlayerID, result model.SurveyResult) {
	r.mu.RLock()
	_, ok := r.byOwner[owner]
	r.mu.RUnlock()
	if !ok {
		log.Printf("[TicketRegistry] Survey from player %s for an already-removed ticket, discarding", owner)
		return
	}
	log.Printf("[TicketRegistry] Survey received from player %s (survey_id=%d, %d answers), discarding",
		owner, result.SurveyID, len(result.Answers))
}

// SetAccepting toggles the global accept-tickets flag. Advisory: the session
// layer rejects player creates while the flag is off, but the registry itself
// never enforces it, so administrative creates stay possible.
func (r *Registry) SetAccepting(ctx context.Context, accept bool) {
	r.mu.Lock()
	r.accepting = accept
	r.mu.Unlock()

	kind := "system_on"
	if !accept {
		kind = "system_off"
	}
	r.announce(ctx, notify.Event{Kind: kind})
}

// IsAccepting reports whether the ticket system accepts new player tickets.
func (r *Registry) IsAccepting() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.accepting
}

// removeFromOrder drops the owner's entry from the creation-order index.
// Linear scan; open ticket counts are tens to low hundreds.
func (r *Registry) removeFromOrder(owner model.PlayerID) {
	for i, o := range r.byOrder {
		if o == owner {
			r.byOrder = append(r.byOrder[:i], r.byOrder[i+1:]...)
			return
		}
	}
}

func (r *Registry) announce(ctx context.Context, event notify.Event) {
	if r.announcer != nil {
		r.announcer.Announce(ctx, event)
	}
}
