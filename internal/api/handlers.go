// Package api is the HTTP wire layer: request parsing, route wiring and
// the mapping from draft errors to status codes. All business rules live
// in the draft package.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jensholdgaard/draft-tracker/internal/actionlog"
	"github.com/jensholdgaard/draft-tracker/internal/draft"
	"github.com/jensholdgaard/draft-tracker/internal/recap"
	"github.com/jensholdgaard/draft-tracker/internal/refdata"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

// Handler serves the draft API.
type Handler struct {
	machine *draft.Machine
	catalog *refdata.Catalog
	actions actionlog.Store
	hub     *Hub
	logger  *slog.Logger
}

// NewHandler creates an API handler.
func NewHandler(machine *draft.Machine, catalog *refdata.Catalog, actions actionlog.Store, hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		machine: machine,
		catalog: catalog,
		actions: actions,
		hub:     hub,
		logger:  logger,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the draft error taxonomy onto HTTP status codes:
// conflict 409, not-found 404, unknown owner 400, validation and integrity
// 422, everything else (persistence included) 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, draft.ErrVersionConflict):
		code = http.StatusConflict
	case errors.Is(err, draft.ErrPickNotFound):
		code = http.StatusNotFound
	case errors.Is(err, draft.ErrUnknownOwner):
		code = http.StatusBadRequest
	case errors.Is(err, draft.ErrAlreadyNominated),
		errors.Is(err, draft.ErrNoActiveNomination),
		errors.Is(err, draft.ErrBidTooLow),
		errors.Is(err, draft.ErrBidNotHigher),
		errors.Is(err, draft.ErrPlayerUnavailable),
		errors.Is(err, draft.ErrPlayerMismatch),
		errors.Is(err, draft.ErrPriceMismatch),
		errors.Is(err, draft.ErrBidderMismatch),
		errors.Is(err, draft.ErrInsufficientRosterBudget),
		errors.Is(err, draft.ErrInsufficientBudget),
		errors.Is(err, draft.ErrDataIntegrity):
		code = http.StatusUnprocessableEntity
	}

	if code == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	writeJSON(w, code, errorResponse{Detail: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) getDraftState(w http.ResponseWriter, r *http.Request) {
	state, err := h.machine.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) getPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Players())
}

func (h *Handler) getAvailablePlayers(w http.ResponseWriter, r *http.Request) {
	state, err := h.machine.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	available := make([]refdata.Player, 0, len(state.AvailablePlayerIDs))
	for _, id := range state.AvailablePlayerIDs {
		if p, ok := h.catalog.Player(id); ok {
			available = append(available, p)
		}
	}
	writeJSON(w, http.StatusOK, available)
}

func (h *Handler) getPlayerStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "playerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid player id"})
		return
	}
	stats, ok := h.catalog.PlayerStats(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "no stats for player " + strconv.Itoa(id)})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stats)
}

func (h *Handler) getOwners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Owners())
}

func (h *Handler) getOwner(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "ownerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid owner id"})
		return
	}
	owner, ok := h.catalog.Owner(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "owner " + strconv.Itoa(id) + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, owner)
}

type teamPick struct {
	Pick   store.DraftPick `json:"pick"`
	Player *refdata.Player `json:"player,omitempty"`
}

type teamResponse struct {
	OwnerID         int        `json:"owner_id"`
	BudgetRemaining int        `json:"budget_remaining"`
	Picks           []teamPick `json:"picks"`
}

func (h *Handler) getTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "ownerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid owner id"})
		return
	}

	state, err := h.machine.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	team := state.Team(id)
	if team == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "team not found for owner " + strconv.Itoa(id)})
		return
	}

	resp := teamResponse{
		OwnerID:         team.OwnerID,
		BudgetRemaining: team.BudgetRemaining,
		Picks:           make([]teamPick, 0, len(team.Picks)),
	}
	for _, pick := range team.Picks {
		tp := teamPick{Pick: pick}
		if p, ok := h.catalog.Player(pick.PlayerID); ok {
			tp.Player = &p
		}
		resp.Picks = append(resp.Picks, tp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getRecapCSV(w http.ResponseWriter, r *http.Request) {
	state, err := h.machine.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="draft_recap.csv"`)
	if err := recap.WriteCSV(w, state, h.catalog); err != nil {
		h.logger.ErrorContext(r.Context(), "writing recap", slog.Any("error", err))
	}
}

func (h *Handler) getActionLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.actions.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []actionlog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type nominateRequest struct {
	OwnerID         int `json:"owner_id"`
	PlayerID        int `json:"player_id"`
	InitialBid      int `json:"initial_bid"`
	ExpectedVersion int `json:"expected_version"`
}

type nominateResponse struct {
	Success    bool             `json:"success"`
	Nomination store.Nomination `json:"nomination"`
	Player     *refdata.Player  `json:"player,omitempty"`
	NewVersion int              `json:"new_version"`
}

func (h *Handler) nominate(w http.ResponseWriter, r *http.Request) {
	var req nominateRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.machine.Nominate(r.Context(), draft.NominateRequest{
		OwnerID:         req.OwnerID,
		PlayerID:        req.PlayerID,
		InitialBid:      req.InitialBid,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := nominateResponse{
		Success:    true,
		Nomination: result.Nomination,
		NewVersion: result.NewVersion,
	}
	if p, ok := h.catalog.Player(req.PlayerID); ok {
		resp.Player = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

type bidRequest struct {
	OwnerID         int `json:"owner_id"`
	BidAmount       int `json:"bid_amount"`
	ExpectedVersion int `json:"expected_version"`
}

type bidResponse struct {
	Success     bool             `json:"success"`
	Nomination  store.Nomination `json:"nomination"`
	PreviousBid int              `json:"previous_bid"`
	NewVersion  int              `json:"new_version"`
}

func (h *Handler) bid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.machine.Bid(r.Context(), draft.BidRequest{
		OwnerID:         req.OwnerID,
		Amount:          req.BidAmount,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bidResponse{
		Success:     true,
		Nomination:  result.Nomination,
		PreviousBid: result.PreviousBid,
		NewVersion:  result.NewVersion,
	})
}

type draftRequest struct {
	OwnerID         int  `json:"owner_id"`
	PlayerID        int  `json:"player_id"`
	FinalPrice      int  `json:"final_price"`
	ExpectedVersion int  `json:"expected_version"`
	AdminOverride   bool `json:"admin_override"`
}

type draftResponse struct {
	Success        bool            `json:"success"`
	Pick           store.DraftPick `json:"pick"`
	Team           store.Team      `json:"team"`
	NextToNominate int             `json:"next_to_nominate"`
	NewVersion     int             `json:"new_version"`
}

func (h *Handler) draft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.machine.Draft(r.Context(), draft.DraftRequest{
		OwnerID:         req.OwnerID,
		PlayerID:        req.PlayerID,
		FinalPrice:      req.FinalPrice,
		ExpectedVersion: req.ExpectedVersion,
		AdminOverride:   req.AdminOverride,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draftResponse{
		Success:        true,
		Pick:           result.Pick,
		Team:           result.Team,
		NextToNominate: result.NextToNominate,
		NewVersion:     result.NewVersion,
	})
}

type cancelRequest struct {
	ExpectedVersion int `json:"expected_version"`
}

type cancelResponse struct {
	Success           bool `json:"success"`
	CancelledPlayerID int  `json:"cancelled_player_id"`
	NewVersion        int  `json:"new_version"`
}

func (h *Handler) cancelNomination(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.machine.CancelNomination(r.Context(), req.ExpectedVersion)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cancelResponse{
		Success:           true,
		CancelledPlayerID: result.CancelledPlayerID,
		NewVersion:        result.NewVersion,
	})
}

type undoRequest struct {
	ExpectedVersion int `json:"expected_version"`
}

type undoResponse struct {
	Success          bool `json:"success"`
	RemovedPickID    int  `json:"removed_pick_id"`
	RestoredPlayerID int  `json:"restored_player_id"`
	NewVersion       int  `json:"new_version"`
}

func (h *Handler) removePick(w http.ResponseWriter, r *http.Request) {
	pickID, err := strconv.Atoi(chi.URLParam(r, "pickID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid pick id"})
		return
	}

	var req undoRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.machine.RemovePick(r.Context(), pickID, req.ExpectedVersion)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, undoResponse{
		Success:          true,
		RemovedPickID:    result.RemovedPickID,
		RestoredPlayerID: result.RestoredPlayerID,
		NewVersion:       result.NewVersion,
	})
}

type resetRequest struct {
	ExpectedVersion *int `json:"expected_version"`
	Force           bool `json:"force"`
}

type resetResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	NewVersion int    `json:"new_version"`
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}

	newVersion, err := h.machine.Reset(r.Context(), draft.ResetRequest{
		ExpectedVersion: req.ExpectedVersion,
		Force:           req.Force,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resetResponse{
		Success:    true,
		Message:    "draft reset to initial state",
		NewVersion: newVersion,
	})
}
