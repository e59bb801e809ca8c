package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/draft-tracker/internal/store"
)

// StateRepository implements store.StateRepository backed by a single
// versioned document row.
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository returns a new StateRepository.
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) Load(ctx context.Context) (*store.DraftState, error) {
	var doc []byte
	err := r.db.GetContext(ctx, &doc,
		`SELECT doc FROM draft_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		initial := &store.DraftState{
			AvailablePlayerIDs: []int{},
			Teams:              []store.Team{},
			NextToNominate:     1,
			Version:            1,
		}
		if err := r.Save(ctx, initial, false); err != nil {
			return nil, err
		}
		return initial, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft state: %w", err)
	}

	var state store.DraftState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("%w: decoding draft state: %v", store.ErrPersistence, err)
	}
	return &state, nil
}

// Save upserts the whole aggregate in one transaction. The document is
// decoded back before commit so a state that cannot round-trip never
// replaces the durable row.
func (r *StateRepository) Save(ctx context.Context, state *store.DraftState, incrementVersion bool) error {
	if incrementVersion {
		state.Version++
	}

	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encoding draft state: %v", store.ErrPersistence, err)
	}
	var check store.DraftState
	if err := json.Unmarshal(doc, &check); err != nil {
		return fmt.Errorf("%w: validating draft state: %v", store.ErrPersistence, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", store.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO draft_state (id, doc, version) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, version = EXCLUDED.version`,
		doc, state.Version)
	if err != nil {
		return fmt.Errorf("%w: upserting draft state: %v", store.ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing draft state: %v", store.ErrPersistence, err)
	}
	return nil
}
