package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jensholdgaard/draft-tracker/internal/health"
)

// Routes wires the full HTTP surface: draft API, websocket updates and
// health probes.
func Routes(h *Handler, healthHandler *health.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/draft-state", h.getDraftState)

		r.Get("/players", h.getPlayers)
		r.Get("/players/available", h.getAvailablePlayers)
		r.Get("/players/{playerID}/stats", h.getPlayerStats)

		r.Get("/owners", h.getOwners)
		r.Get("/owners/{ownerID}", h.getOwner)
		r.Get("/teams/{ownerID}", h.getTeam)

		r.Get("/recap.csv", h.getRecapCSV)
		r.Get("/action-log", h.getActionLog)

		r.Post("/nominate", h.nominate)
		r.Delete("/nominate", h.cancelNomination)
		r.Post("/bid", h.bid)
		r.Post("/draft", h.draft)
		r.Delete("/draft/{pickID}", h.removePick)
		r.Post("/reset", h.reset)

		r.Get("/ws", h.hub.ServeWS)
	})

	r.Get("/healthz", healthHandler.LivenessHandler())
	r.Get("/readyz", healthHandler.ReadinessHandler())

	return r
}
