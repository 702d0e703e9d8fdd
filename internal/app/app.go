package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kindredhq/kindred/internal/config"
	"github.com/kindredhq/kindred/internal/db"
	"github.com/kindredhq/kindred/internal/llm"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/kindredhq/kindred/internal/service"
	"github.com/kindredhq/kindred/internal/service/payment"
)

// App wires config, database, repositories, and services together. Handlers
// take what they need from here at route setup.
type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	AuthService         *service.AuthService
	UserService         *service.UserService
	ProfileService      *service.ProfileService
	EmailService        *service.EmailService
	SubscriptionService *service.SubscriptionService
	PaymentService      payment.Provider
	CompanionService    *service.CompanionService
	ConversationService *service.ConversationService
	ChatService         *service.ChatService
	MemoryService       *service.MemoryService
	UsageService        *service.UsageService
	PreferencesService  *service.PreferencesService
	MessageRepository   repository.MessageRepository
}

func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	subscriptionRepository := repository.NewSubscriptionRepository(database)
	companionRepository := repository.NewCompanionRepository(database)
	conversationRepository := repository.NewConversationRepository(database)
	messageRepository := repository.NewMessageRepository(database)
	memoryRepository := repository.NewMemoryRepository(database)
	usageRepository := repository.NewUsageRepository(database)
	preferencesRepository := repository.NewPreferencesRepository(database)

	// One OpenAI client serves chat, embeddings, and moderation.
	llmClient := llm.NewClient(cfg)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.SupportEmail,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	subscriptionService := service.NewSubscriptionService(subscriptionRepository, profileRepository)

	paymentProvider, err := payment.NewProvider(cfg, subscriptionService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	authService := service.NewAuthService(
		userRepository,
		profileRepository,
		tokenRepository,
		preferencesRepository,
		subscriptionService,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.TokenMagicLinkExpiry,
		cfg.TokenPasswordResetExpiry,
	)
	userService := service.NewUserService(userRepository, profileRepository, emailService, subscriptionService)
	companionService := service.NewCompanionService(companionRepository)
	profileService := service.NewProfileService(profileRepository, userRepository, companionService, emailService)
	conversationService := service.NewConversationService(conversationRepository, companionRepository)
	memoryService := service.NewMemoryService(memoryRepository, llmClient, llmClient)
	usageService := service.NewUsageService(usageRepository, cfg.FreeDailyMessages)
	safetyService := service.NewSafetyService(llmClient)
	preferencesService := service.NewPreferencesService(preferencesRepository)
	chatService := service.NewChatService(
		profileRepository,
		companionRepository,
		conversationRepository,
		messageRepository,
		memoryService,
		usageService,
		safetyService,
		llmClient,
	)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		AuthService:         authService,
		UserService:         userService,
		ProfileService:      profileService,
		EmailService:        emailService,
		SubscriptionService: subscriptionService,
		PaymentService:      paymentProvider,
		CompanionService:    companionService,
		ConversationService: conversationService,
		ChatService:         chatService,
		MemoryService:       memoryService,
		UsageService:        usageService,
		PreferencesService:  preferencesService,
		MessageRepository:   messageRepository,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
