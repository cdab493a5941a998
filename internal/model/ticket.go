package model

import "strconv"

// PlayerID identifies a player character. The zero value means "no player"
// and never appears as the owner of a registered ticket.
type PlayerID uint64

// IsEmpty reports whether the ID refers to no player.
func (p PlayerID) IsEmpty() bool {
	return p == 0
}

func (p PlayerID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePlayerID parses a decimal player ID as carried in URLs and packets.
func ParsePlayerID(s string) (PlayerID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PlayerID(v), nil
}

// Ticket represents a single help request a player filed with the GMs.
// Mirrored one-to-one with a row in the character_ticket table.
type Ticket struct {
	Owner      PlayerID `json:"owner"`
	Text       string   `json:"text"`
	Response   string   `json:"response,omitempty"`
	LastUpdate int64    `json:"last_update"` // unix seconds
}

// HasResponse reports whether a GM has written a response into the ticket.
// Legacy signal; the core flow delivers responses out-of-band.
func (t *Ticket) HasResponse() bool {
	return t.Response != ""
}

// TicketStatus is the status code pushed to a player's session when the
// state of their ticket changes.
type TicketStatus int

const (
	// StatusClosed tells the client the ticket was closed.
	StatusClosed TicketStatus = iota + 1

	// StatusSurvey closes the ticket and asks the client to show the
	// satisfaction survey.
	StatusSurvey

	// StatusCreated acknowledges a newly filed ticket.
	StatusCreated

	// StatusSystemOff tells the client the ticket system is unavailable.
	StatusSystemOff
)

func (s TicketStatus) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusSurvey:
		return "survey"
	case StatusCreated:
		return "created"
	case StatusSystemOff:
		return "system_off"
	default:
		return "unknown"
	}
}
