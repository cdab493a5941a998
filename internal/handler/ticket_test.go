package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gm-ticket-service/internal/handler"
	"gm-ticket-service/internal/middleware"
	"gm-ticket-service/internal/model"
	"gm-ticket-service/internal/registry"
	"gm-ticket-service/internal/repository"
	"gm-ticket-service/internal/router"
	"gm-ticket-service/internal/service"
)

type memRepo struct {
	rows []model.Ticket
}

func (m *memRepo) Save(ctx context.Context, ticket *model.Ticket) error {
	for i, row := range m.rows {
		if row.Owner == ticket.Owner {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	m.rows = append(m.rows, *ticket)
	return nil
}

func (m *memRepo) Delete(ctx context.Context, owner model.PlayerID) error {
	for i, row := range m.rows {
		if row.Owner == owner {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memRepo) DeleteAll(ctx context.Context) error {
	m.rows = nil
	return nil
}

func (m *memRepo) LoadAll(ctx context.Context) ([]model.Ticket, error) {
	out := make([]model.Ticket, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memRepo) Close() error { return nil }

var _ repository.TicketRepository = (*memRepo)(nil)

const testAPIKey = "gm-test-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := registry.New(registry.Config{
		Repository:    &memRepo{},
		AcceptTickets: true,
	})
	svc := service.NewTicketService(reg)

	r := router.New(router.Config{
		Handler:       handler.New("test"),
		TicketHandler: handler.NewTicketHandler(svc),
		GMHandler:     handler.NewGMHandler(svc),
		GMMiddleware: middleware.NewGMAuthMiddleware(middleware.AuthConfig{
			APIKeys: []string{testAPIKey},
		}),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}, apiKey string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestPlayerTicketLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Create
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/tickets/42", map[string]string{"text": "help stuck"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	// Fetch
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/tickets/42", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	data := body["data"].(map[string]interface{})
	if data["text"] != "help stuck" {
		t.Errorf("text = %v, want %q", data["text"], "help stuck")
	}

	// Update text
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/v1/tickets/42/text", map[string]string{"text": "still stuck"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}

	// Survey submit is always acknowledged
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/tickets/42/survey",
		map[string]interface{}{"survey_id": 5, "answers": map[string]int{"q1": 4}}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("survey status = %d, want 200", resp.StatusCode)
	}

	// Abandon
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/tickets/42", nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/tickets/42", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateRejectedWhileSystemOff(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/gm/system", map[string]bool{"accepting": false}, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("system off status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/tickets/42", map[string]string{"text": "help"}, "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("player create status = %d, want 503", resp.StatusCode)
	}

	// GM create bypasses the flag.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/gm/tickets/player/42", map[string]string{"text": "help"}, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("gm create status = %d, want 201", resp.StatusCode)
	}

	// Clients can see the system status.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/tickets/status", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint = %d, want 200", resp.StatusCode)
	}
	data := body["data"].(map[string]interface{})
	if data["accepting"] != false {
		t.Errorf("accepting = %v, want false", data["accepting"])
	}
}

func TestGMRoutesRequireAPIKey(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no key status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets", nil, "wrong-key")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong key status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets", nil, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid key status = %d, want 200", resp.StatusCode)
	}
}

func TestGMListAndPositionLookup(t *testing.T) {
	srv := newTestServer(t)

	for i := 1; i <= 3; i++ {
		url := fmt.Sprintf("%s/api/v1/tickets/%d", srv.URL, i)
		doJSON(t, http.MethodPost, url, map[string]string{"text": fmt.Sprintf("q%d", i)}, "")
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets", nil, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	tickets := body["data"].([]interface{})
	if len(tickets) != 3 {
		t.Fatalf("listed %d tickets, want 3", len(tickets))
	}
	meta := body["meta"].(map[string]interface{})
	if meta["total"].(float64) != 3 {
		t.Errorf("meta.total = %v, want 3", meta["total"])
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets/1", nil, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("position lookup status = %d, want 200", resp.StatusCode)
	}
	data := body["data"].(map[string]interface{})
	if data["text"] != "q2" {
		t.Errorf("position 1 text = %v, want %q", data["text"], "q2")
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets/9", nil, testAPIKey)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("out-of-range status = %d, want 404", resp.StatusCode)
	}
}

func TestGMCloseFlow(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/v1/tickets/42", map[string]string{"text": "help"}, "")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/gm/tickets/player/42/close?survey=1", nil, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/tickets/42", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after close status = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/gm/tickets/player/42/close", nil, testAPIKey)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("close absent status = %d, want 404", resp.StatusCode)
	}
}

func TestGMDeleteAll(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/v1/tickets/1", map[string]string{"text": "a"}, "")
	doJSON(t, http.MethodPost, srv.URL+"/api/v1/tickets/2", map[string]string{"text": "b"}, "")

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/gm/tickets", nil, testAPIKey)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete-all status = %d, want 204", resp.StatusCode)
	}

	_, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/gm/tickets", nil, testAPIKey)
	meta := body["meta"].(map[string]interface{})
	if meta["total"].(float64) != 0 {
		t.Errorf("meta.total = %v, want 0", meta["total"])
	}
}
