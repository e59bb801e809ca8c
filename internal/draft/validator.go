package draft

import (
	"fmt"

	"github.com/jensholdgaard/draft-tracker/internal/refdata"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

// checkRosterBudget decides whether a bid is admissible for a team: after
// winning the contested slot, every remaining slot still needs at least the
// minimum bid, so the team must keep that reserve unspent.
//
//	remaining = total_rounds - len(picks)   (includes the contested slot)
//	reserve   = max(0, remaining-1) * min_bid
//	accept iff amount <= budget_remaining - reserve
func checkRosterBudget(rules refdata.Rules, team *store.Team, amount int) error {
	remaining := rules.TotalRounds - len(team.Picks)
	reserve := remaining - 1
	if reserve < 0 {
		reserve = 0
	}
	reserve *= rules.MinBid

	if amount > team.BudgetRemaining-reserve {
		return fmt.Errorf(
			"%w: bidding $%d leaves $%d but $%d is needed for %d remaining roster spots",
			ErrInsufficientRosterBudget,
			amount, team.BudgetRemaining-amount, reserve, remaining-1,
		)
	}
	return nil
}

// PositionValidator checks a prospective pick against the league's
// per-position maximums. Nominate and Draft call it on every transition.
type PositionValidator func(rules refdata.Rules, team *store.Team, player refdata.Player) error

// AllowAllPositions is the default PositionValidator. position_maximums is
// carried in the rules but enforcement is pending a league decision on
// whether nominate or draft should reject an over-cap pick, so the default
// accepts everything.
func AllowAllPositions(refdata.Rules, *store.Team, refdata.Player) error {
	return nil
}
