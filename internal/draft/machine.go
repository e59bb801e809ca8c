// Package draft implements the auction draft state machine: nominate, bid,
// draft, cancel, undo and reset, each a guarded transition over the shared
// DraftState aggregate.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/draft-tracker/internal/actionlog"
	"github.com/jensholdgaard/draft-tracker/internal/refdata"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

// Machine coordinates draft transitions over the shared aggregate.
//
// The version field is only a client-facing staleness signal; the mutex is
// what actually serializes writers. Every mutating transition runs its full
// load-validate-save sequence inside it, so two concurrent requests can
// never both pass validation against the same pre-write state.
type Machine struct {
	mu sync.Mutex

	states    store.StateRepository
	actions   actionlog.Store
	catalog   *refdata.Catalog
	positions PositionValidator
	logger    *slog.Logger
	tracer    trace.Tracer

	// onCommit, if set, is invoked after every successful mutation with
	// the new version. Used to notify websocket clients.
	onCommit func(version int)
}

// NewMachine returns a Machine over the given repositories and catalogs.
func NewMachine(states store.StateRepository, actions actionlog.Store, catalog *refdata.Catalog, logger *slog.Logger, tp trace.TracerProvider) *Machine {
	return &Machine{
		states:    states,
		actions:   actions,
		catalog:   catalog,
		positions: AllowAllPositions,
		logger:    logger,
		tracer:    tp.Tracer("github.com/jensholdgaard/draft-tracker/internal/draft"),
	}
}

// SetPositionValidator replaces the per-position maximum hook.
func (m *Machine) SetPositionValidator(v PositionValidator) { m.positions = v }

// OnCommit registers a callback invoked with the new version after every
// successful mutation.
func (m *Machine) OnCommit(fn func(version int)) { m.onCommit = fn }

// State returns a snapshot of the current draft state.
func (m *Machine) State(ctx context.Context) (*store.DraftState, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.State")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states.Load(ctx)
}

// checkVersion rejects stale submissions before any business validation.
func checkVersion(current, expected int) error {
	if current != expected {
		return fmt.Errorf("%w (version %d != %d): refresh and try again",
			ErrVersionConflict, current, expected)
	}
	return nil
}

// NominateRequest asks to open an auction for a player.
type NominateRequest struct {
	OwnerID         int
	PlayerID        int
	InitialBid      int
	ExpectedVersion int
}

// NominateResult reports a successful nomination.
type NominateResult struct {
	Nomination store.Nomination
	NewVersion int
}

// Nominate opens an auction for a player. No budget check happens here: a
// nomination is cheap to start and its price only locks in at draft time,
// so even a depleted owner may nominate.
func (m *Machine) Nominate(ctx context.Context, req NominateRequest) (*NominateResult, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.Nominate",
		trace.WithAttributes(
			attribute.Int("owner.id", req.OwnerID),
			attribute.Int("player.id", req.PlayerID),
			attribute.Int("bid.amount", req.InitialBid),
		),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(state.Version, req.ExpectedVersion); err != nil {
		return nil, err
	}

	rules := m.catalog.Rules()

	if state.Nominated != nil {
		return nil, fmt.Errorf("%w: complete or cancel the current nomination first", ErrAlreadyNominated)
	}
	if req.InitialBid < rules.MinBid {
		return nil, fmt.Errorf("%w: initial bid must be at least $%d", ErrBidTooLow, rules.MinBid)
	}
	if !state.PlayerAvailable(req.PlayerID) {
		return nil, fmt.Errorf("%w: player %d", ErrPlayerUnavailable, req.PlayerID)
	}
	owner, ok := m.catalog.Owner(req.OwnerID)
	if !ok {
		return nil, fmt.Errorf("%w: owner %d", ErrUnknownOwner, req.OwnerID)
	}
	if player, ok := m.catalog.Player(req.PlayerID); ok {
		if err := m.positions(rules, state.Team(req.OwnerID), player); err != nil {
			return nil, err
		}
	}

	state.Nominated = &store.Nomination{
		PlayerID:          req.PlayerID,
		CurrentBid:        req.InitialBid,
		CurrentBidderID:   req.OwnerID,
		NominatingOwnerID: req.OwnerID,
	}

	if err := m.states.Save(ctx, state, true); err != nil {
		return nil, err
	}
	m.committed(ctx, state.Version)

	m.audit(ctx, actionlog.ActionNominate, req.OwnerID, actionlog.NominateData{
		PlayerID:   req.PlayerID,
		InitialBid: req.InitialBid,
	})
	m.logger.InfoContext(ctx, "player nominated",
		slog.Int("player_id", req.PlayerID),
		slog.Int("owner_id", req.OwnerID),
		slog.String("owner", owner.OwnerName),
		slog.Int("initial_bid", req.InitialBid),
		slog.Int("version", state.Version),
	)

	return &NominateResult{Nomination: *state.Nominated, NewVersion: state.Version}, nil
}

// BidRequest asks to raise the current bid.
type BidRequest struct {
	OwnerID         int
	Amount          int
	ExpectedVersion int
}

// BidResult reports a successful bid.
type BidResult struct {
	Nomination  store.Nomination
	PreviousBid int
	NewVersion  int
}

// Bid raises the bid on the open nomination. Owners with an existing team
// must pass the roster-budget admission check; owners who have not drafted
// yet are admitted against a fresh budget at draft time.
func (m *Machine) Bid(ctx context.Context, req BidRequest) (*BidResult, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.Bid",
		trace.WithAttributes(
			attribute.Int("owner.id", req.OwnerID),
			attribute.Int("bid.amount", req.Amount),
		),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(state.Version, req.ExpectedVersion); err != nil {
		return nil, err
	}

	rules := m.catalog.Rules()

	if state.Nominated == nil {
		return nil, ErrNoActiveNomination
	}
	if req.Amount <= state.Nominated.CurrentBid {
		return nil, fmt.Errorf("%w of $%d", ErrBidNotHigher, state.Nominated.CurrentBid)
	}
	if req.Amount < rules.MinBid {
		return nil, fmt.Errorf("%w: bid must be at least $%d", ErrBidTooLow, rules.MinBid)
	}
	if team := state.Team(req.OwnerID); team != nil {
		if err := checkRosterBudget(rules, team, req.Amount); err != nil {
			return nil, err
		}
	}

	previous := state.Nominated.CurrentBid
	state.Nominated.CurrentBid = req.Amount
	state.Nominated.CurrentBidderID = req.OwnerID

	if err := m.states.Save(ctx, state, true); err != nil {
		return nil, err
	}
	m.committed(ctx, state.Version)

	m.audit(ctx, actionlog.ActionBid, req.OwnerID, actionlog.BidData{
		PlayerID:    state.Nominated.PlayerID,
		Amount:      req.Amount,
		PreviousBid: previous,
	})
	m.logger.InfoContext(ctx, "bid placed",
		slog.Int("owner_id", req.OwnerID),
		slog.Int("player_id", state.Nominated.PlayerID),
		slog.Int("amount", req.Amount),
		slog.Int("previous_bid", previous),
		slog.Int("version", state.Version),
	)

	return &BidResult{
		Nomination:  *state.Nominated,
		PreviousBid: previous,
		NewVersion:  state.Version,
	}, nil
}

// DraftRequest asks to finalize the open auction into a pick.
//
// AdminOverride skips every budget check and may drive the winning team's
// budget negative. It exists for commissioner corrections and is recorded
// with a distinct audit action.
type DraftRequest struct {
	OwnerID         int
	PlayerID        int
	FinalPrice      int
	ExpectedVersion int
	AdminOverride   bool
}

// DraftResult reports a completed pick.
type DraftResult struct {
	Pick           store.DraftPick
	Team           store.Team
	NextToNominate int
	NewVersion     int
}

// Draft converts the open nomination into a roster pick: debits the budget,
// removes the player from the pool, clears the nomination and advances the
// nomination turn round-robin over ascending owner ids.
func (m *Machine) Draft(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.Draft",
		trace.WithAttributes(
			attribute.Int("owner.id", req.OwnerID),
			attribute.Int("player.id", req.PlayerID),
			attribute.Int("price", req.FinalPrice),
			attribute.Bool("admin_override", req.AdminOverride),
		),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(state.Version, req.ExpectedVersion); err != nil {
		return nil, err
	}

	if state.Nominated == nil {
		return nil, ErrNoActiveNomination
	}
	if state.Nominated.PlayerID != req.PlayerID {
		return nil, fmt.Errorf("%w: nominated player %d, request %d",
			ErrPlayerMismatch, state.Nominated.PlayerID, req.PlayerID)
	}
	if state.Nominated.CurrentBid != req.FinalPrice {
		return nil, fmt.Errorf("%w: final price $%d, current bid $%d",
			ErrPriceMismatch, req.FinalPrice, state.Nominated.CurrentBid)
	}
	if state.Nominated.CurrentBidderID != req.OwnerID {
		return nil, fmt.Errorf("%w: owner %d", ErrBidderMismatch, req.OwnerID)
	}

	rules := m.catalog.Rules()

	team := state.Team(req.OwnerID)
	if team == nil {
		state.Teams = append(state.Teams, store.Team{
			OwnerID:         req.OwnerID,
			BudgetRemaining: rules.InitialBudget,
			Picks:           []store.DraftPick{},
		})
		team = &state.Teams[len(state.Teams)-1]
	}

	if !req.AdminOverride && req.FinalPrice > team.BudgetRemaining {
		return nil, fmt.Errorf("%w: need $%d but only have $%d",
			ErrInsufficientBudget, req.FinalPrice, team.BudgetRemaining)
	}
	if player, ok := m.catalog.Player(req.PlayerID); ok && !req.AdminOverride {
		if err := m.positions(rules, team, player); err != nil {
			return nil, err
		}
	}

	pick := store.DraftPick{
		PickID:   state.NextPickID(),
		PlayerID: req.PlayerID,
		OwnerID:  req.OwnerID,
		Price:    req.FinalPrice,
	}
	team.Picks = append(team.Picks, pick)
	team.BudgetRemaining -= req.FinalPrice

	state.RemoveAvailable(req.PlayerID)
	state.Nominated = nil
	state.NextToNominate = m.catalog.NextOwnerAfter(state.NextToNominate)

	if err := m.states.Save(ctx, state, true); err != nil {
		return nil, err
	}
	m.committed(ctx, state.Version)

	action := actionlog.ActionDraft
	if req.AdminOverride {
		action = actionlog.ActionAdminDraft
	}
	m.audit(ctx, action, req.OwnerID, actionlog.PickData{
		PickID:   pick.PickID,
		PlayerID: pick.PlayerID,
		Price:    pick.Price,
	})
	m.logger.InfoContext(ctx, "player drafted",
		slog.Int("pick_id", pick.PickID),
		slog.Int("player_id", req.PlayerID),
		slog.Int("owner_id", req.OwnerID),
		slog.Int("price", req.FinalPrice),
		slog.Bool("admin_override", req.AdminOverride),
		slog.Int("version", state.Version),
	)

	return &DraftResult{
		Pick:           pick,
		Team:           *team,
		NextToNominate: state.NextToNominate,
		NewVersion:     state.Version,
	}, nil
}

// CancelResult reports a cancelled nomination.
type CancelResult struct {
	CancelledPlayerID int
	NewVersion        int
}

// CancelNomination aborts the open auction with no effect on budgets or
// player availability.
func (m *Machine) CancelNomination(ctx context.Context, expectedVersion int) (*CancelResult, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.CancelNomination")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(state.Version, expectedVersion); err != nil {
		return nil, err
	}
	if state.Nominated == nil {
		return nil, fmt.Errorf("%w: nothing to cancel", ErrNoActiveNomination)
	}

	cancelled := state.Nominated.PlayerID
	nominator := state.Nominated.NominatingOwnerID
	state.Nominated = nil

	if err := m.states.Save(ctx, state, true); err != nil {
		return nil, err
	}
	m.committed(ctx, state.Version)

	m.audit(ctx, actionlog.ActionCancel, nominator, actionlog.CancelData{PlayerID: cancelled})
	m.logger.InfoContext(ctx, "nomination cancelled",
		slog.Int("player_id", cancelled),
		slog.Int("version", state.Version),
	)

	return &CancelResult{CancelledPlayerID: cancelled, NewVersion: state.Version}, nil
}

// RemovePickResult reports an undone pick.
type RemovePickResult struct {
	RemovedPickID    int
	RestoredPlayerID int
	NewVersion       int
}

// RemovePick undoes a completed pick: the price is credited back and the
// player returns to the available pool. This is the only transition that
// destroys a pick.
func (m *Machine) RemovePick(ctx context.Context, pickID, expectedVersion int) (*RemovePickResult, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.RemovePick",
		trace.WithAttributes(attribute.Int("pick.id", pickID)),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(state.Version, expectedVersion); err != nil {
		return nil, err
	}

	team, idx := state.FindPick(pickID)
	if team == nil {
		return nil, fmt.Errorf("%w: pick %d", ErrPickNotFound, pickID)
	}
	pick := team.Picks[idx]

	// A drafted player must not also be in the available pool. If it is,
	// the aggregate is already inconsistent; surface it instead of
	// silently repairing.
	if state.PlayerAvailable(pick.PlayerID) {
		return nil, fmt.Errorf(
			"%w: player %d is drafted but also in the available pool, manual intervention required",
			ErrDataIntegrity, pick.PlayerID)
	}

	team.Picks = append(team.Picks[:idx], team.Picks[idx+1:]...)
	team.BudgetRemaining += pick.Price
	state.RestoreAvailable(pick.PlayerID)

	if err := m.states.Save(ctx, state, true); err != nil {
		return nil, err
	}
	m.committed(ctx, state.Version)

	m.audit(ctx, actionlog.ActionUndo, pick.OwnerID, actionlog.UndoData{
		PickID:   pick.PickID,
		PlayerID: pick.PlayerID,
		Price:    pick.Price,
	})
	m.logger.InfoContext(ctx, "pick removed",
		slog.Int("pick_id", pick.PickID),
		slog.Int("player_id", pick.PlayerID),
		slog.Int("owner_id", pick.OwnerID),
		slog.Int("version", state.Version),
	)

	return &RemovePickResult{
		RemovedPickID:    pick.PickID,
		RestoredPlayerID: pick.PlayerID,
		NewVersion:       state.Version,
	}, nil
}

// ResetRequest asks to rebuild the draft from reference data.
type ResetRequest struct {
	// ExpectedVersion, when set and Force is false, is checked against the
	// live state before the reset.
	ExpectedVersion *int
	// Force bypasses the version guard entirely.
	Force bool
}

// Reset rebuilds the state from the catalogs: no nomination, every catalog
// player available, one team per owner at the initial budget, lowest owner
// id next to nominate. The version restarts at 1.
func (m *Machine) Reset(ctx context.Context, req ResetRequest) (int, error) {
	ctx, span := m.tracer.Start(ctx, "Machine.Reset",
		trace.WithAttributes(attribute.Bool("force", req.Force)),
	)
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !req.Force && req.ExpectedVersion != nil {
		state, err := m.states.Load(ctx)
		if err != nil {
			return 0, err
		}
		if err := checkVersion(state.Version, *req.ExpectedVersion); err != nil {
			return 0, err
		}
	}

	rules := m.catalog.Rules()
	ownerIDs := m.catalog.OwnerIDs()

	next := 1
	if len(ownerIDs) > 0 {
		next = ownerIDs[0]
	}

	teams := make([]store.Team, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		teams = append(teams, store.Team{
			OwnerID:         id,
			BudgetRemaining: rules.InitialBudget,
			Picks:           []store.DraftPick{},
		})
	}

	fresh := &store.DraftState{
		AvailablePlayerIDs: m.catalog.PlayerIDs(),
		Teams:              teams,
		NextToNominate:     next,
		Version:            1,
	}

	if err := m.states.Save(ctx, fresh, false); err != nil {
		return 0, err
	}
	m.committed(ctx, fresh.Version)

	m.audit(ctx, actionlog.ActionReset, 0, struct{}{})
	m.logger.InfoContext(ctx, "draft reset to initial state",
		slog.Int("players", len(fresh.AvailablePlayerIDs)),
		slog.Int("teams", len(fresh.Teams)),
	)

	return fresh.Version, nil
}

// audit appends an entry to the action log. Failures are logged and
// swallowed: the log is a side effect, never a dependency.
func (m *Machine) audit(ctx context.Context, t actionlog.Type, ownerID int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to encode audit payload", slog.Any("error", err))
		return
	}
	entry := actionlog.Entry{Type: t, OwnerID: ownerID, Data: data}
	if err := m.actions.Append(ctx, entry); err != nil {
		m.logger.ErrorContext(ctx, "failed to append audit entry",
			slog.String("type", string(t)),
			slog.Any("error", err),
		)
	}
}

func (m *Machine) committed(_ context.Context, version int) {
	if m.onCommit != nil {
		m.onCommit(version)
	}
}
