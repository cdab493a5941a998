package repository

import (
	"context"
	"path/filepath"
	"testing"

	"gm-ticket-service/internal/model"
)

func newTestRepo(t *testing.T) *SQLiteTicketRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "tickets.db")
	repo, err := NewSQLiteTicketRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteTicketRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tickets := []model.Ticket{
		{Owner: 1, Text: "a", LastUpdate: 100},
		{Owner: 2, Text: "b", Response: "looked at it", LastUpdate: 200},
		{Owner: 3, Text: "c", LastUpdate: 300},
	}
	for i := range tickets {
		if err := repo.Save(ctx, &tickets[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != len(tickets) {
		t.Fatalf("loaded %d tickets, want %d", len(loaded), len(tickets))
	}
	for i := range tickets {
		if loaded[i] != tickets[i] {
			t.Errorf("row %d = %+v, want %+v", i, loaded[i], tickets[i])
		}
	}
}

func TestSQLiteSaveReplacesAndMovesToTail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Save(ctx, &model.Ticket{Owner: 1, Text: "a", LastUpdate: 100})
	repo.Save(ctx, &model.Ticket{Owner: 2, Text: "b", LastUpdate: 200})

	// Re-save owner 1; the row must not duplicate and moves to the tail.
	if err := repo.Save(ctx, &model.Ticket{Owner: 1, Text: "a2", LastUpdate: 300}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d tickets, want 2", len(loaded))
	}
	if loaded[0].Owner != 2 {
		t.Errorf("head owner = %v, want 2", loaded[0].Owner)
	}
	if loaded[1].Owner != 1 || loaded[1].Text != "a2" {
		t.Errorf("tail = %+v, want owner 1 with replaced text", loaded[1])
	}
}

func TestSQLiteDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Save(ctx, &model.Ticket{Owner: 1, Text: "a", LastUpdate: 100})
	repo.Save(ctx, &model.Ticket{Owner: 2, Text: "b", LastUpdate: 200})

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Deleting an absent row is not an error.
	if err := repo.Delete(ctx, 99); err != nil {
		t.Fatalf("Delete(absent): %v", err)
	}

	loaded, _ := repo.LoadAll(ctx)
	if len(loaded) != 1 || loaded[0].Owner != 2 {
		t.Errorf("loaded = %+v, want only owner 2", loaded)
	}
}

func TestSQLiteDeleteAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.Save(ctx, &model.Ticket{Owner: 1, Text: "a", LastUpdate: 100})
	repo.Save(ctx, &model.Ticket{Owner: 2, Text: "b", LastUpdate: 200})

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("second DeleteAll: %v", err)
	}

	loaded, _ := repo.LoadAll(ctx)
	if len(loaded) != 0 {
		t.Errorf("loaded %d tickets after DeleteAll, want 0", len(loaded))
	}
}

func TestSQLiteTextRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Quotes and control characters must survive parameterised storage.
	text := "it's \"broken\";\nDROP TABLE character_ticket; --"
	saved := model.Ticket{Owner: 7, Text: text, LastUpdate: 100}
	if err := repo.Save(ctx, &saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Text != text {
		t.Errorf("round-tripped text = %q, want %q", loaded[0].Text, text)
	}
}
