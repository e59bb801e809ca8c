// Package refdata loads the read-only reference catalogs the draft consumes:
// the player pool, the owner roster and the draft rules. Catalogs are plain
// JSON files in the data directory; the core reads them and never writes.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Position is a fantasy roster position.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDST Position = "D/ST"
)

// Player is one entry in the draftable player pool.
type Player struct {
	ID        int      `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Team      string   `json:"team"`
	Position  Position `json:"position"`
}

// FullName returns "First Last".
func (p Player) FullName() string {
	return p.FirstName + " " + p.LastName
}

// DisplayName returns "Last, F." for compact roster views.
func (p Player) DisplayName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return fmt.Sprintf("%s, %c.", p.LastName, p.FirstName[0])
}

// Owner is a league member who drafts a team.
type Owner struct {
	ID        int    `json:"id"`
	OwnerName string `json:"owner_name"`
	TeamName  string `json:"team_name"`
}

// Rules carries the league's draft configuration.
//
// PositionMaximums is loaded and exposed but no transition enforces it yet;
// see draft.PositionValidator.
type Rules struct {
	InitialBudget    int              `json:"initial_budget"`
	MinBid           int              `json:"min_bid"`
	PositionMaximums map[Position]int `json:"position_maximums"`
	TotalRounds      int              `json:"total_rounds"`
}

// DefaultRules returns the rules used when config.json is absent.
func DefaultRules() Rules {
	return Rules{
		InitialBudget: 200,
		MinBid:        1,
		PositionMaximums: map[Position]int{
			PositionQB:  2,
			PositionRB:  4,
			PositionWR:  5,
			PositionTE:  2,
			PositionK:   1,
			PositionDST: 1,
		},
		TotalRounds: 15,
	}
}

// File names within the data directory.
const (
	playersFile = "players.json"
	ownersFile  = "owners.json"
	rulesFile   = "config.json"
	statsFile   = "stats.json"
)

// Catalog holds all reference data, indexed for O(1) lookups.
// It is safe for concurrent use; Reload swaps the indexes wholesale.
type Catalog struct {
	dir string

	mu       sync.RWMutex
	players  map[int]Player
	owners   map[int]Owner
	ownerIDs []int // ascending
	rules    Rules
	stats    map[string]json.RawMessage
}

// Load reads all catalogs from dir. players.json and owners.json are
// required; config.json falls back to DefaultRules and stats.json is
// optional.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads every catalog file, replacing the in-memory indexes.
func (c *Catalog) Reload() error {
	// Every catalog file is optional so the tracker boots on an empty
	// data directory; missing players/owners just mean empty catalogs.
	var players []Player
	if err := readJSON(filepath.Join(c.dir, playersFile), &players); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("loading players: %w", err)
		}
	}

	var owners []Owner
	if err := readJSON(filepath.Join(c.dir, ownersFile), &owners); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("loading owners: %w", err)
		}
	}

	rules := DefaultRules()
	if err := readJSON(filepath.Join(c.dir, rulesFile), &rules); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("loading rules: %w", err)
		}
	}

	stats := map[string]json.RawMessage{}
	if err := readJSON(filepath.Join(c.dir, statsFile), &stats); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("loading stats: %w", err)
		}
	}

	playerIdx := make(map[int]Player, len(players))
	for _, p := range players {
		playerIdx[p.ID] = p
	}

	ownerIdx := make(map[int]Owner, len(owners))
	ownerIDs := make([]int, 0, len(owners))
	for _, o := range owners {
		ownerIdx[o.ID] = o
		ownerIDs = append(ownerIDs, o.ID)
	}
	sort.Ints(ownerIDs)

	c.mu.Lock()
	c.players = playerIdx
	c.owners = ownerIdx
	c.ownerIDs = ownerIDs
	c.rules = rules
	c.stats = stats
	c.mu.Unlock()
	return nil
}

// Player looks up a player by id.
func (c *Catalog) Player(id int) (Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.players[id]
	return p, ok
}

// Players returns all players ordered by id.
func (c *Catalog) Players() []Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Player, 0, len(c.players))
	for _, p := range c.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlayerIDs returns all player ids in ascending order.
func (c *Catalog) PlayerIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.players))
	for id := range c.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Owner looks up an owner by id.
func (c *Catalog) Owner(id int) (Owner, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.owners[id]
	return o, ok
}

// Owners returns all owners ordered by id.
func (c *Catalog) Owners() []Owner {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Owner, 0, len(c.owners))
	for _, id := range c.ownerIDs {
		out = append(out, c.owners[id])
	}
	return out
}

// OwnerIDs returns all owner ids in ascending order.
func (c *Catalog) OwnerIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int, len(c.ownerIDs))
	copy(out, c.ownerIDs)
	return out
}

// NextOwnerAfter returns the owner id whose turn follows id in ascending-id
// round-robin order, wrapping to the first. Unknown ids restart the rotation.
func (c *Catalog) NextOwnerAfter(id int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.ownerIDs) == 0 {
		return 1
	}
	for i, oid := range c.ownerIDs {
		if oid == id {
			return c.ownerIDs[(i+1)%len(c.ownerIDs)]
		}
	}
	return c.ownerIDs[0]
}

// Rules returns the league draft rules.
func (c *Catalog) Rules() Rules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules
}

// PlayerStats returns the raw stats document for a player, if stats.json
// carries one. Stats are keyed by the player id rendered as a string.
func (c *Catalog) PlayerStats(playerID int) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stats[fmt.Sprint(playerID)]
	return s, ok
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
