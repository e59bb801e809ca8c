package draft

import "errors"

// Errors returned by draft transitions. Every transition fails fast with a
// specific reason before any write is attempted; no partial mutation is
// ever persisted.
var (
	// ErrVersionConflict means the caller acted on a stale read. Always
	// recoverable by re-fetching state and retrying.
	ErrVersionConflict = errors.New("draft state has changed")

	ErrAlreadyNominated   = errors.New("a player is already nominated")
	ErrNoActiveNomination = errors.New("no player is currently nominated")
	ErrBidTooLow          = errors.New("bid is below the minimum")
	ErrBidNotHigher       = errors.New("bid must exceed the current bid")
	ErrPlayerUnavailable  = errors.New("player is not available")
	ErrUnknownOwner       = errors.New("owner does not exist")
	ErrPlayerMismatch     = errors.New("player does not match the nomination")
	ErrPriceMismatch      = errors.New("price does not match the current bid")
	ErrBidderMismatch     = errors.New("owner is not the current high bidder")

	// ErrInsufficientRosterBudget means the bid would leave the team unable
	// to fill its remaining roster slots at the minimum bid.
	ErrInsufficientRosterBudget = errors.New("insufficient budget to complete roster")
	ErrInsufficientBudget       = errors.New("insufficient budget")

	ErrPickNotFound = errors.New("pick not found")

	// ErrDataIntegrity means an invariant the system assumes is already
	// broken. It is surfaced, never auto-corrected.
	ErrDataIntegrity = errors.New("data integrity error")
)
