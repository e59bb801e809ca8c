// Package actionlog is the append-only audit trail of accepted draft
// transitions. Nothing in the core reads it back; it exists for recap and
// manual forensics, so append failures must never fail a transition.
package actionlog

import (
	"context"
	"encoding/json"
	"time"
)

// Type identifies an action kind.
type Type string

const (
	ActionNominate   Type = "draft.nominate"
	ActionBid        Type = "draft.bid"
	ActionDraft      Type = "draft.pick"
	ActionAdminDraft Type = "draft.pick_admin"
	ActionCancel     Type = "draft.cancel_nomination"
	ActionUndo       Type = "draft.undo_pick"
	ActionReset      Type = "draft.reset"
)

// Entry is a single audit record.
type Entry struct {
	ID        string          `json:"id" db:"id"`
	Type      Type            `json:"type" db:"type"`
	OwnerID   int             `json:"owner_id" db:"owner_id"`
	Data      json.RawMessage `json:"data" db:"data"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// NominateData is the payload for ActionNominate entries.
type NominateData struct {
	PlayerID   int `json:"player_id"`
	InitialBid int `json:"initial_bid"`
}

// BidData is the payload for ActionBid entries.
type BidData struct {
	PlayerID    int `json:"player_id"`
	Amount      int `json:"amount"`
	PreviousBid int `json:"previous_bid"`
}

// PickData is the payload for ActionDraft and ActionAdminDraft entries.
type PickData struct {
	PickID   int `json:"pick_id"`
	PlayerID int `json:"player_id"`
	Price    int `json:"price"`
}

// CancelData is the payload for ActionCancel entries.
type CancelData struct {
	PlayerID int `json:"player_id"`
}

// UndoData is the payload for ActionUndo entries.
type UndoData struct {
	PickID   int `json:"pick_id"`
	PlayerID int `json:"player_id"`
	Price    int `json:"price"`
}

// Store persists and retrieves audit entries.
type Store interface {
	// Append persists one or more entries.
	Append(ctx context.Context, entries ...Entry) error
	// List returns all entries in append order.
	List(ctx context.Context) ([]Entry, error)
}
