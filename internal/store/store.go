package store

import (
	"context"
	"errors"
	"slices"
	"sort"
)

// ErrPersistence indicates that a save failed its round-trip validation or
// could not be committed. The previous durable record is left untouched.
var ErrPersistence = errors.New("draft state persistence failed")

// Nomination is the in-flight auction for a single player. At most one
// exists at a time.
type Nomination struct {
	PlayerID          int `json:"player_id"`
	CurrentBid        int `json:"current_bid"`
	CurrentBidderID   int `json:"current_bidder_id"`
	NominatingOwnerID int `json:"nominating_owner_id"`
}

// DraftPick is a finalized draft result: a player permanently assigned to
// an owner at a price. Pick ids are global across all teams.
type DraftPick struct {
	PickID   int `json:"pick_id"`
	PlayerID int `json:"player_id"`
	OwnerID  int `json:"owner_id"`
	Price    int `json:"price"`
}

// Team is one owner's roster and remaining budget.
type Team struct {
	OwnerID         int         `json:"owner_id"`
	BudgetRemaining int         `json:"budget_remaining"`
	Picks           []DraftPick `json:"picks"`
}

// SpentTotal returns the sum of all pick prices.
func (t *Team) SpentTotal() int {
	total := 0
	for _, p := range t.Picks {
		total += p.Price
	}
	return total
}

// DraftState is the single mutable aggregate of the system.
//
// Invariant: a player id is either in AvailablePlayerIDs or in exactly one
// team's pick list, never both. Version increments on every successful
// mutation and is the client-facing staleness signal.
type DraftState struct {
	Nominated          *Nomination `json:"nominated"`
	AvailablePlayerIDs []int       `json:"available_player_ids"`
	Teams              []Team      `json:"teams"`
	NextToNominate     int         `json:"next_to_nominate"`
	Version            int         `json:"version"`
}

// Team returns the team for ownerID, or nil if the owner has not drafted yet.
func (s *DraftState) Team(ownerID int) *Team {
	for i := range s.Teams {
		if s.Teams[i].OwnerID == ownerID {
			return &s.Teams[i]
		}
	}
	return nil
}

// FindPick locates a pick by id across all teams. Returns the owning team
// and the pick's index within it.
func (s *DraftState) FindPick(pickID int) (*Team, int) {
	for i := range s.Teams {
		for j := range s.Teams[i].Picks {
			if s.Teams[i].Picks[j].PickID == pickID {
				return &s.Teams[i], j
			}
		}
	}
	return nil, -1
}

// NextPickID mints the next global pick id: max(existing)+1.
func (s *DraftState) NextPickID() int {
	maxID := 0
	for i := range s.Teams {
		for _, p := range s.Teams[i].Picks {
			if p.PickID > maxID {
				maxID = p.PickID
			}
		}
	}
	return maxID + 1
}

// PlayerAvailable reports whether playerID is still in the pool.
func (s *DraftState) PlayerAvailable(playerID int) bool {
	return slices.Contains(s.AvailablePlayerIDs, playerID)
}

// RemoveAvailable takes playerID out of the pool.
func (s *DraftState) RemoveAvailable(playerID int) {
	for i, id := range s.AvailablePlayerIDs {
		if id == playerID {
			s.AvailablePlayerIDs = append(s.AvailablePlayerIDs[:i], s.AvailablePlayerIDs[i+1:]...)
			return
		}
	}
}

// RestoreAvailable returns playerID to the pool, keeping it sorted.
func (s *DraftState) RestoreAvailable(playerID int) {
	s.AvailablePlayerIDs = append(s.AvailablePlayerIDs, playerID)
	sort.Ints(s.AvailablePlayerIDs)
}

// Clone returns a deep copy of the aggregate.
func (s *DraftState) Clone() *DraftState {
	out := &DraftState{
		AvailablePlayerIDs: slices.Clone(s.AvailablePlayerIDs),
		Teams:              make([]Team, len(s.Teams)),
		NextToNominate:     s.NextToNominate,
		Version:            s.Version,
	}
	if s.Nominated != nil {
		n := *s.Nominated
		out.Nominated = &n
	}
	for i := range s.Teams {
		out.Teams[i] = s.Teams[i]
		out.Teams[i].Picks = slices.Clone(s.Teams[i].Picks)
	}
	return out
}

// StateRepository owns the durable DraftState record.
type StateRepository interface {
	// Load returns the current state, creating and persisting an empty
	// state at version 1 if none exists.
	Load(ctx context.Context) (*DraftState, error)
	// Save persists the entire aggregate atomically. When incrementVersion
	// is true the state's version is bumped before the write; false is
	// reserved for bootstrap and reset, which restart the sequence at 1.
	Save(ctx context.Context, state *DraftState, incrementVersion bool) error
}
