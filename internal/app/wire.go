package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dosdraw/platform/internal/auth"
	"github.com/dosdraw/platform/internal/guard"
	"github.com/dosdraw/platform/internal/handler"
	"github.com/dosdraw/platform/internal/handler/admin"
	"github.com/dosdraw/platform/internal/ledger"
	"github.com/dosdraw/platform/internal/repository"
	"github.com/dosdraw/platform/internal/rounds"
	"github.com/dosdraw/platform/internal/service"
	"github.com/dosdraw/platform/internal/settlement"
)

// RouterDeps carries everything NewRouter needs to assemble the HTTP
// surface. Construction order inside NewRouter is repositories, engines,
// services, handlers, routes.
type RouterDeps struct {
	Pool        *pgxpool.Pool
	Logger      *slog.Logger
	Clock       *rounds.Clock
	Limiter     *guard.RateLimiter
	AdminKey    string
	SecretSeed  string
	SignupBonus int64
	CORSOrigins []string
}

// NewRouter wires repositories, services and handlers into the public and
// admin route trees.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	// Repositories.
	playerRepo := repository.NewPlayerRepository()
	ledgerRepo := repository.NewLedgerRepository()
	betRepo := repository.NewBetRepository()
	roundRepo := repository.NewRoundRepository()
	bankRepo := repository.NewBankRepository()
	giftCodeRepo := repository.NewGiftCodeRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Engines.
	posting := ledger.NewEngine(playerRepo, ledgerRepo, outboxRepo)
	settler := settlement.NewEngine(
		deps.Pool,
		deps.Clock,
		deps.SecretSeed,
		betRepo,
		roundRepo,
		bankRepo,
		posting,
		outboxRepo,
		logger,
	)

	// Services.
	playerSvc := service.NewPlayerService(deps.Pool, playerRepo, ledgerRepo, outboxRepo, posting, deps.SignupBonus, logger)
	betSvc := service.NewBetService(deps.Pool, deps.Clock, betRepo, outboxRepo, posting, logger)
	giftCodeSvc := service.NewGiftCodeService(deps.Pool, giftCodeRepo, outboxRepo, posting, deps.SecretSeed, logger)

	// Handlers.
	roundHandler := handler.NewRoundHandler(deps.Clock)
	playerHandler := handler.NewPlayerHandler(playerSvc, giftCodeSvc, deps.Limiter)
	betHandler := handler.NewBetHandler(betSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(playerSvc)

	configHandler := admin.NewConfigHandler(deps.Clock)
	giftCodeHandler := admin.NewGiftCodeHandler(giftCodeSvc)
	settleHandler := admin.NewSettleHandler(settler)
	adminPlayerHandler := admin.NewPlayerHandler(playerSvc)

	r := chi.NewRouter()

	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.Metrics)
	r.Use(handler.CORS(deps.CORSOrigins))
	r.Use(handler.JSONContentType)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthHandler(deps.Pool))
		r.Get("/round", roundHandler.GetRound)
		r.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

		r.Route("/player", func(r chi.Router) {
			r.Post("/signup", playerHandler.Signup)
			r.Post("/redeem", playerHandler.Redeem)
			r.Get("/{id}/ledger", playerHandler.Ledger)
		})

		r.Post("/bet", betHandler.PlaceBet)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdminKey(deps.AdminKey))

			r.Get("/config", configHandler.GetConfig)
			r.Put("/config", configHandler.UpdateConfig)
			r.Post("/gift-codes", giftCodeHandler.Generate)
			r.Post("/settle", settleHandler.Settle)
			r.Post("/player/{id}/adjust", adminPlayerHandler.Adjust)
			r.Patch("/player/{id}/status", adminPlayerHandler.SetStatus)
		})
	})

	return r
}
