package postgres_test

import (
	"context"
	"testing"

	"github.com/jensholdgaard/draft-tracker/internal/store"
	"github.com/jensholdgaard/draft-tracker/internal/store/postgres"
)

func TestStateRepository_BootstrapOnEmptyTable(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewStateRepository(db)
	ctx := context.Background()

	state, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Version != 1 {
		t.Errorf("version = %d, want 1", state.Version)
	}
	if state.NextToNominate != 1 {
		t.Errorf("next to nominate = %d, want 1", state.NextToNominate)
	}
	if state.Nominated != nil {
		t.Error("bootstrap state has a nomination")
	}

	// The bootstrap row must be durable: a second Load sees the same state.
	again, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again.Version != 1 {
		t.Errorf("second load version = %d, want 1", again.Version)
	}
}

func TestStateRepository_SaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewStateRepository(db)
	ctx := context.Background()

	state := &store.DraftState{
		Nominated:          &store.Nomination{PlayerID: 7, CurrentBid: 12, CurrentBidderID: 2, NominatingOwnerID: 1},
		AvailablePlayerIDs: []int{1, 3, 9},
		Teams: []store.Team{{
			OwnerID:         2,
			BudgetRemaining: 188,
			Picks:           []store.DraftPick{{PickID: 1, PlayerID: 4, OwnerID: 2, Price: 12}},
		}},
		NextToNominate: 3,
		Version:        6,
	}

	if err := repo.Save(ctx, state, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != 6 || loaded.NextToNominate != 3 {
		t.Errorf("loaded = version %d next %d, want 6 and 3", loaded.Version, loaded.NextToNominate)
	}
	if loaded.Nominated == nil || loaded.Nominated.PlayerID != 7 {
		t.Errorf("nomination did not round-trip: %+v", loaded.Nominated)
	}
	if len(loaded.Teams) != 1 || loaded.Teams[0].BudgetRemaining != 188 {
		t.Errorf("teams did not round-trip: %+v", loaded.Teams)
	}
}

func TestStateRepository_SaveIncrementsVersion(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewStateRepository(db)
	ctx := context.Background()

	state := &store.DraftState{
		AvailablePlayerIDs: []int{},
		Teams:              []store.Team{},
		NextToNominate:     1,
		Version:            4,
	}

	if err := repo.Save(ctx, state, true); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if state.Version != 5 {
		t.Errorf("in-memory version = %d, want 5", state.Version)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != 5 {
		t.Errorf("durable version = %d, want 5", loaded.Version)
	}
}

func TestStateRepository_UpsertReplacesRow(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewStateRepository(db)
	ctx := context.Background()

	first := &store.DraftState{AvailablePlayerIDs: []int{1, 2}, Teams: []store.Team{}, NextToNominate: 1, Version: 1}
	if err := repo.Save(ctx, first, false); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	second := &store.DraftState{AvailablePlayerIDs: []int{2}, Teams: []store.Team{}, NextToNominate: 2, Version: 2}
	if err := repo.Save(ctx, second, false); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	// Only one row exists; the latest document wins.
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM draft_state`); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != 2 || loaded.NextToNominate != 2 {
		t.Errorf("loaded = %+v, want version 2 next 2", loaded)
	}
}
