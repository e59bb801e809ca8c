// Package recap renders a draft recap as CSV: every pick in draft order
// with owner, player and budget context.
package recap

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/jensholdgaard/draft-tracker/internal/refdata"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

var header = []string{
	"pick_id", "owner", "team_name", "player", "position", "nfl_team", "price", "budget_remaining",
}

// WriteCSV writes all picks ordered by pick id. Unknown players and owners
// are rendered with id placeholders so a recap never fails on stale
// reference data.
func WriteCSV(w io.Writer, state *store.DraftState, catalog *refdata.Catalog) error {
	type row struct {
		pick store.DraftPick
		team store.Team
	}

	var rows []row
	for _, t := range state.Teams {
		for _, p := range t.Picks {
			rows = append(rows, row{pick: p, team: t})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].pick.PickID < rows[j].pick.PickID })

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing recap header: %w", err)
	}

	for _, r := range rows {
		ownerName := fmt.Sprintf("owner %d", r.pick.OwnerID)
		teamName := ""
		if o, ok := catalog.Owner(r.pick.OwnerID); ok {
			ownerName = o.OwnerName
			teamName = o.TeamName
		}

		playerName := fmt.Sprintf("player %d", r.pick.PlayerID)
		position, nflTeam := "", ""
		if p, ok := catalog.Player(r.pick.PlayerID); ok {
			playerName = p.FullName()
			position = string(p.Position)
			nflTeam = p.Team
		}

		record := []string{
			fmt.Sprint(r.pick.PickID),
			ownerName,
			teamName,
			playerName,
			position,
			nflTeam,
			fmt.Sprint(r.pick.Price),
			fmt.Sprint(r.team.BudgetRemaining),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing recap row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
