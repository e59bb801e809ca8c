package postgres_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/jensholdgaard/draft-tracker/internal/actionlog"
	"github.com/jensholdgaard/draft-tracker/internal/store/postgres"
)

func TestActionStore_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	clk := clockwork.NewFakeClock()
	s := postgres.NewActionStore(db, clk)
	ctx := context.Background()

	entries := []actionlog.Entry{
		{Type: actionlog.ActionNominate, OwnerID: 1, Data: json.RawMessage(`{"player_id":3,"initial_bid":5}`)},
		{Type: actionlog.ActionBid, OwnerID: 2, Data: json.RawMessage(`{"player_id":3,"amount":10,"previous_bid":5}`)},
	}

	if err := s.Append(ctx, entries...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	loaded, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(loaded))
	}
	if loaded[0].Type != actionlog.ActionNominate || loaded[1].Type != actionlog.ActionBid {
		t.Errorf("types = [%s, %s], want [nominate, bid]", loaded[0].Type, loaded[1].Type)
	}
	for i, e := range loaded {
		if e.ID == "" {
			t.Errorf("entry %d has no id", i)
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("entry %d has no timestamp", i)
		}
	}
}

func TestActionStore_PreservesCallerFields(t *testing.T) {
	db := newTestDB(t)
	s := postgres.NewActionStore(db, clockwork.NewFakeClock())
	ctx := context.Background()

	const id = "2b1a8c1e-95b0-4ce2-a90f-0a4f2c6f8d11"
	e := actionlog.Entry{
		ID:      id,
		Type:    actionlog.ActionAdminDraft,
		OwnerID: 4,
		Data:    json.RawMessage(`{"pick_id":1,"player_id":9,"price":50}`),
	}

	if err := s.Append(ctx, e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	loaded, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != id {
		t.Errorf("loaded = %+v, want preserved id %s", loaded, id)
	}
}

func TestActionStore_ListEmpty(t *testing.T) {
	db := newTestDB(t)
	s := postgres.NewActionStore(db, clockwork.NewFakeClock())

	loaded, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty log, got %d entries", len(loaded))
	}
}
