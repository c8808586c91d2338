package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	store, tokens, broker := deps.Store, deps.Tokens, deps.Broker

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CityRun Quest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.Checks))

	// QR identity tokens.
	r.Route("/api/qr", func(r chi.Router) {
		r.Get("/code", handleQRCode(store, logger, tokens, deps.QRTokenTTL))
		r.Post("/verify", handleQRVerify(store, logger, tokens))
		r.Post("/join", handleQRJoin(store, logger, tokens, broker))
	})

	// Teams.
	r.Route("/api/teams", func(r chi.Router) {
		r.Post("/", handleCreateTeam(store, logger))
		r.Get("/me", handleMyTeam(store, logger))
		r.Patch("/{teamID}", handleRenameTeam(store, logger))
		r.Delete("/{teamID}", handleDeleteTeam(store, logger))
	})

	// Quest progression.
	r.Route("/api/quest", func(r chi.Router) {
		r.Get("/", handleQuestList(store, logger))
		r.Get("/leaderboard", handleLeaderboard(store, logger))
		r.Get("/events", handleEvents(store, broker))
		r.Get("/events/{eventName}/answers", handleAnswersExport(store, logger))
		r.Get("/commands/stats", handleCommandStats(store, logger))
		r.Post("/insiders/attendance/mark", handleMarkAttendance(store, logger, broker))
		r.Post("/riddles/{riddleID}/check-answer", handleCheckAnswer(store, logger, broker))
		r.Get("/riddles/{riddleID}/hint", handleHint(store, logger, broker))
		r.Get("/{blockID}", handleQuestBlock(store, logger))
	})

	// Organizer console auth.
	r.Post("/api/admin/login", handleAdminLogin(store, logger))
	r.Post("/api/admin/logout", handleAdminLogout(store, logger))
	r.Get("/api/admin/me", handleAdminMe(store))
}
