package session

import (
	"errors"
	"testing"

	"gm-ticket-service/internal/model"
)

type recordingSession struct {
	statuses []model.TicketStatus
	pushErr  error
}

func (s *recordingSession) PushTicketStatus(status model.TicketStatus) error {
	if s.pushErr != nil {
		return s.pushErr
	}
	s.statuses = append(s.statuses, status)
	return nil
}

func TestSendTicketStatus(t *testing.T) {
	m := NewManager()
	sess := &recordingSession{}
	m.Attach(42, sess)

	if !m.SendTicketStatus(42, model.StatusClosed) {
		t.Fatal("SendTicketStatus = false for attached session")
	}
	if len(sess.statuses) != 1 || sess.statuses[0] != model.StatusClosed {
		t.Errorf("statuses = %v, want [StatusClosed]", sess.statuses)
	}
}

func TestSendToOfflinePlayer(t *testing.T) {
	m := NewManager()

	if m.SendTicketStatus(42, model.StatusClosed) {
		t.Error("SendTicketStatus = true with no session attached")
	}
}

func TestDetach(t *testing.T) {
	m := NewManager()
	m.Attach(42, &recordingSession{})

	if got := m.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}

	m.Detach(42)
	if m.Get(42) != nil {
		t.Error("Get returned a session after Detach")
	}
	if m.SendTicketStatus(42, model.StatusClosed) {
		t.Error("SendTicketStatus = true after Detach")
	}
}

func TestAttachReplacesSession(t *testing.T) {
	m := NewManager()
	old := &recordingSession{}
	next := &recordingSession{}

	m.Attach(42, old)
	m.Attach(42, next)

	m.SendTicketStatus(42, model.StatusSurvey)
	if len(old.statuses) != 0 {
		t.Error("push delivered to replaced session")
	}
	if len(next.statuses) != 1 {
		t.Error("push not delivered to current session")
	}
}

func TestAttachIgnoresEmptyPlayer(t *testing.T) {
	m := NewManager()
	m.Attach(0, &recordingSession{})
	m.Attach(42, nil)

	if got := m.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestPushErrorReportsUndelivered(t *testing.T) {
	m := NewManager()
	m.Attach(42, &recordingSession{pushErr: errors.New("connection reset")})

	if m.SendTicketStatus(42, model.StatusClosed) {
		t.Error("SendTicketStatus = true when the push failed")
	}
}
