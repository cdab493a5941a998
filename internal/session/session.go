package session

import (
	"log"
	"sync"

	"gm-ticket-service/internal/model"
)

// Session is a player's active connection, as far as the ticket system is
// concerned: the only thing pushed through it is a ticket status update.
type Session interface {
	// PushTicketStatus delivers a ticket status code to the client.
	PushTicketStatus(status model.TicketStatus) error
}

// Notifier delivers ticket status updates to connected players.
type Notifier interface {
	// SendTicketStatus pushes a status to the owner's session. Returns false
	// if the player has no active session; the notification is dropped.
	SendTicketStatus(owner model.PlayerID, status model.TicketStatus) bool
}

// Manager tracks which players currently have an active session. The world
// server attaches a session at login and detaches it at logout.
type Manager struct {
	mu       sync.RWMutex
	sessions map[model.PlayerID]Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[model.PlayerID]Session),
	}
}

// Attach registers the session for a player, replacing any previous one.
func (m *Manager) Attach(owner model.PlayerID, s Session) {
	if owner.IsEmpty() || s == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[owner] = s
}

// Detach removes the player's session.
func (m *Manager) Detach(owner model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, owner)
}

// Get returns the player's session, or nil if the player is offline.
func (m *Manager) Get(owner model.PlayerID) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[owner]
}

// Count returns the number of attached sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SendTicketStatus pushes a status to the owner's session if one is attached.
func (m *Manager) SendTicketStatus(owner model.PlayerID, status model.TicketStatus) bool {
	s := m.Get(owner)
	if s == nil {
		return false
	}

	if err := s.PushTicketStatus(status); err != nil {
		log.Printf("[SessionManager] Failed to push %s status to player %s: %v", status, owner, err)
		return false
	}
	return true
}

// Ensure Manager implements Notifier
var _ Notifier = (*Manager)(nil)
