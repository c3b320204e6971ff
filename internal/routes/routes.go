package routes

import (
	"github.com/anj-alii/learniverse-skillbridge-33/internal/config"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/handlers"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/middleware"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/repository"
	"github.com/anj-alii/learniverse-skillbridge-33/internal/services"
	chatws "github.com/anj-alii/learniverse-skillbridge-33/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	swapRepo := repository.NewSwapSessionRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	var storage services.ObjectStorage
	if cfg.StorageEnabled() {
		storage = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey, cfg.StoreTimeout)
	}
	var scorer services.ProfileScorer
	if cfg.GeminiAPIKey != "" {
		scorer = services.NewGeminiScorer(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.ScoringTimeout)
	}

	chatHub := chatws.NewHub()
	go chatHub.Run()

	txRunner := services.NewPgxTxRunner(db)
	ledger := services.NewCreditLedger(txRunner, creditRepo, cfg.StoreTimeout)
	notifier := services.NewRemediationNotifier(cfg.ContributeSkillURL, chatHub)

	accountService := services.NewAccountService(txRunner, ledger, userRepo, cfg.SignupCreditGrant, cfg.StoreTimeout)
	skillService := services.NewSkillService(
		txRunner,
		ledger,
		skillRepo,
		storage,
		cfg.ContributionCreditGrant,
		cfg.StoreTimeout,
	)
	swapService := services.NewSwapService(txRunner, ledger, skillRepo, swapRepo, notifier, chatHub, cfg.StoreTimeout)
	recommendationService := services.NewRecommendationService(skillRepo, userRepo, cfg.StoreTimeout)
	matchingService := services.NewMatchingService(userRepo, skillRepo, scorer, cfg.StoreTimeout, cfg.ScoringTimeout)
	chatService := services.NewChatService(txRunner, conversationRepo, userRepo, cfg.StoreTimeout)

	authHandler := handlers.NewAuthHandler(accountService, cfg.JWTSecret, cfg.JWTTTL)
	skillHandler := handlers.NewSkillHandler(skillService)
	discoveryHandler := handlers.NewDiscoveryHandler(recommendationService, matchingService)
	swapHandler := handlers.NewSwapHandler(swapService)
	creditHandler := handlers.NewCreditHandler(ledger)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	users := authProtected.Group("/users")
	users.Put("/me", authHandler.UpdateProfile)
	users.Put("/me/password", authHandler.ChangePassword)
	users.Get("/me/skills", skillHandler.MySkills)

	skills := authProtected.Group("/skills")
	skills.Get("", skillHandler.ListSkills)
	skills.Get("/facets", skillHandler.Facets)
	skills.Get("/recommended", discoveryHandler.Recommended)
	skills.Get("/suggestions", discoveryHandler.Suggestions)
	skills.Get("/:id", skillHandler.GetSkill)
	skills.Post("", skillHandler.ContributeSkill)
	skills.Post("/:id/image", skillHandler.UploadImage)

	authProtected.Post("/matches", discoveryHandler.Matches)

	swaps := authProtected.Group("/swaps")
	swaps.Post("", swapHandler.RequestSwap)
	swaps.Get("", swapHandler.ListSwaps)
	swaps.Get("/:id", swapHandler.GetSwap)

	credits := authProtected.Group("/credits")
	credits.Get("", creditHandler.Balance)
	credits.Get("/history", creditHandler.History)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)

	return registerDocsRoutes(app, cfg)
}
