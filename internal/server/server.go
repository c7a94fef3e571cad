// Package server exposes the tribe ledger over HTTP and streams its events over websockets.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "tribehub/docs" // swagger docs
	"tribehub/internal/cache"
	"tribehub/internal/config"
	"tribehub/internal/database"
	"tribehub/internal/ledger"
	"tribehub/internal/middleware"
	"tribehub/internal/models"
	"tribehub/internal/notifications"
	"tribehub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           *middleware.Authenticator
	exec           *ledger.Executor
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	kafka          *notifications.KafkaPublisher
	hub            *notifications.EventHub

	access       *service.AccessService
	wallets      *service.WalletService
	tribes       *service.TribeService
	content      *service.ContentService
	economy      *service.EconomyService
	dispenser    *service.DispenserService
	collectibles *service.CollectibleService
	redemption   *service.RedemptionService
	events       *service.EventService
}

// NewServer connects to the configured database and redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s, err := newServer(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	s.promMiddleware = middleware.InitMetrics("tribehub-api")
	return s, nil
}

// newServer wires the ledger, its sinks and the services. Without redis the event hub
// is fed directly by the executor; with redis it listens on the shared channel so every
// replica sees every event.
func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...ledger.Option) (*Server, error) {
	s := &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
		auth:   middleware.NewAuthenticator(cfg.JWTSecret),
		hub:    notifications.NewEventHub(),
	}

	var sinks []ledger.Sink
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		sinks = append(sinks, s.notifier)
	} else {
		sinks = append(sinks, s.hub)
	}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		s.kafka = notifications.NewKafkaPublisher(brokers, cfg.KafkaEventsTopic)
		sinks = append(sinks, s.kafka)
	}

	exec, err := ledger.NewExecutor(db, append([]ledger.Option{ledger.WithSinks(sinks...)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	s.exec = exec

	key, err := cfg.ContentKeyBytes()
	if err != nil {
		return nil, err
	}
	content, err := service.NewContentService(exec, service.ContentConfig{Cooldown: cfg.PostCooldown(), Key: key})
	if err != nil {
		return nil, err
	}

	s.access = service.NewAccessService(exec)
	s.wallets = service.NewWalletService(exec)
	s.tribes = service.NewTribeService(exec)
	s.content = content
	s.economy = service.NewEconomyService(exec)
	s.dispenser = service.NewDispenserService(exec)
	s.collectibles = service.NewCollectibleService(exec)
	s.redemption = service.NewRedemptionService(exec)
	s.events = service.NewEventService(exec)

	if cfg.GenesisAdmin != "" {
		genesis, err := models.ParseAddress(cfg.GenesisAdmin)
		if err != nil {
			return nil, fmt.Errorf("GENESIS_ADMIN: %w", err)
		}
		receipt, err := s.access.Bootstrap(context.Background(), genesis)
		if err != nil {
			return nil, fmt.Errorf("bootstrap genesis admin: %w", err)
		}
		if !receipt.Noop() {
			middleware.Logger.Info("granted DEFAULT_ADMIN to genesis account", slog.String("account", genesis.String()))
		}
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	writeLimit := middleware.RateLimit(s.redis, s.config.RateLimitWrites,
		time.Duration(s.config.RateLimitWindowSeconds)*time.Second, "writes")

	// Public reads
	api.Get("/ledger/head", s.GetHead)
	api.Get("/events", s.GetEvents)

	api.Get("/roles/:role/members", s.GetRoleMembers)
	api.Get("/accounts/:address/roles", s.GetAccountRoles)
	api.Get("/accounts/:address/balance", s.GetWalletBalance)
	api.Get("/accounts/:address/tribes", s.GetUserTribes)
	api.Get("/accounts/:address/posts", s.GetUserPosts)
	api.Get("/accounts/:address/collectibles", s.GetHoldings)

	api.Get("/tribes", s.GetAllTribes)
	api.Get("/tribes/by-name/:name", s.GetTribeByName)
	api.Get("/tribes/:id/members", s.GetMembers)
	api.Get("/tribes/:id/members/:address", s.GetMemberStatus)
	api.Get("/tribes/:id/whitelist/:address", s.GetWhitelisted)
	api.Get("/tribes/:id/posts", s.GetTribePosts)
	api.Get("/tribes/:id/point-types", s.GetPointTypes)
	api.Get("/tribes/:id/points/:address", s.GetPointBalances)
	api.Get("/tribes/:id/token", s.GetTribeToken)
	api.Get("/tribes/:id/token/:address", s.GetTokenBalance)
	api.Get("/tribes/:id/collectibles", s.GetCollectibles)
	api.Get("/tribes/:id", s.GetTribeDetails)

	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id", s.GetPost)

	api.Get("/collectibles/:id/holders/:address", s.GetHolding)
	api.Get("/collectibles/:id", s.GetCollectible)

	api.Get("/dispensers/:address", s.GetDispenser)
	api.Get("/redemption/verifier", s.GetVerifier)
	api.Get("/redemption/signatures/:signature", s.GetSignatureUsed)

	// Event stream
	ws := api.Group("/ws", s.auth.WebSocketAuthRequired)
	ws.Get("/events", s.WebSocketEventsHandler())

	// Authenticated operations
	protected := api.Group("", s.auth.AuthRequired, writeLimit)

	protected.Get("/me/feed", s.GetMyFeed)

	protected.Post("/roles/:role/grant", s.GrantRole)
	protected.Post("/roles/:role/revoke", s.RevokeRole)
	protected.Put("/roles/:role/admin", s.SetRoleAdmin)
	protected.Post("/assigners", s.AuthorizeAssigner)
	protected.Delete("/assigners/:address", s.RevokeAssigner)

	protected.Post("/wallet/mint", s.MintValue)
	protected.Post("/wallet/transfer", s.TransferValue)

	protected.Post("/tribes", s.CreateTribe)
	protected.Patch("/tribes/:id", s.UpdateTribe)
	protected.Put("/tribes/:id/config", s.UpdateTribeConfig)
	protected.Delete("/tribes/:id", s.DeactivateTribe)
	protected.Post("/tribes/:id/join", s.JoinTribe)
	protected.Post("/tribes/:id/leave", s.LeaveTribe)
	protected.Post("/tribes/:id/follow", s.FollowTribe)
	protected.Delete("/tribes/:id/follow", s.UnfollowTribe)
	protected.Post("/tribes/:id/invites", s.CreateInvite)
	protected.Post("/tribes/:id/members/:address/approve", s.ApproveMember)
	protected.Post("/tribes/:id/members/:address/reject", s.RejectMember)
	protected.Post("/tribes/:id/members/:address/ban", s.BanMember)
	protected.Post("/tribes/:id/members/:address/unban", s.UnbanMember)

	protected.Post("/tribes/:id/posts", s.CreatePost)
	protected.Patch("/posts/:id", s.UpdatePost)
	protected.Post("/posts/:id/like", s.LikePost)
	protected.Post("/posts/:id/share", s.SharePost)
	protected.Post("/posts/:id/save", s.SavePost)
	protected.Post("/posts/:id/comments", s.CreateComment)

	protected.Post("/tribes/:id/point-types", s.RegisterPointType)
	protected.Post("/tribes/:id/actions", s.RegisterAction)
	protected.Post("/tribes/:id/issuers", s.GrantIssuer)
	protected.Delete("/tribes/:id/issuers/:address", s.RevokeIssuer)
	protected.Post("/tribes/:id/points/award", s.AwardPoints)
	protected.Post("/tribes/:id/points/spend", s.SpendPoints)
	protected.Post("/tribes/:id/token", s.CreateTribeToken)
	protected.Put("/tribes/:id/token/rate", s.SetExchangeRate)
	protected.Post("/tribes/:id/token/buy", s.BuyTribeTokens)

	protected.Post("/dispenser/deposit", s.DepositDispenser)
	protected.Post("/dispenser/withdraw", s.WithdrawDispenser)
	protected.Post("/dispenser/signers", s.AddDispenserSigner)
	protected.Delete("/dispenser/signers/:address", s.RemoveDispenserSigner)
	protected.Post("/dispenser/spend", s.SpendDispenser)

	protected.Post("/tribes/:id/collectibles", s.CreateCollectible)
	protected.Put("/tribes/:id/collectibles/:collectibleId/whitelist", s.SetCollectibleWhitelist)
	protected.Post("/tribes/:id/collectibles/:collectibleId/claim", s.ClaimCollectible)
	protected.Put("/redemption/verifier", s.SetVerifier)
	protected.Post("/redemption/redeem", s.RedeemPoints)
}

// NewApp builds a fiber app with the error handler, middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "tribehub",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	head, _ := s.exec.Head(ctx)

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"ledger_head": head,
		"time":        time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start event hub wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down event hub", slog.String("error", err.Error()))
	}

	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			middleware.Logger.Error("error closing kafka writer", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
