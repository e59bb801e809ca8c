package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/jensholdgaard/draft-tracker/internal/actionlog"
)

// ActionStore implements actionlog.Store backed by Postgres.
type ActionStore struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

// NewActionStore returns a new ActionStore.
func NewActionStore(db *sqlx.DB, clk clockwork.Clock) *ActionStore {
	return &ActionStore{db: db, clock: clk}
}

func (s *ActionStore) Append(ctx context.Context, entries ...actionlog.Entry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO action_log (id, type, owner_id, data, created_at) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.clock.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Type, e.OwnerID, e.Data, e.CreatedAt); err != nil {
			return fmt.Errorf("inserting action (id=%s, type=%s): %w", e.ID, e.Type, err)
		}
	}

	return tx.Commit()
}

func (s *ActionStore) List(ctx context.Context) ([]actionlog.Entry, error) {
	var entries []actionlog.Entry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT id, type, owner_id, data, created_at
		 FROM action_log ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("loading action log: %w", err)
	}
	return entries, nil
}
