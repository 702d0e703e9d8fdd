package routes

import (
	"net/http"

	"github.com/kindredhq/kindred/internal/app"
	"github.com/kindredhq/kindred/internal/handler"
	"github.com/kindredhq/kindred/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	account := handler.NewAccountHandler(app.UserService, app.ProfileService, app.AuthService)
	chat := handler.NewChatHandler(app.ChatService, app.ConversationService)
	companion := handler.NewCompanionHandler(app.CompanionService)
	memory := handler.NewMemoryHandler(app.MemoryService)
	preferences := handler.NewPreferencesHandler(app.PreferencesService)
	billing := handler.NewBillingHandler(app.PaymentService)
	support := handler.NewSupportHandler(app.EmailService)
	dashboard := handler.NewDashboardHandler(app.CompanionService, app.UsageService, app.MemoryService, app.MessageRepository)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Auth (rate limited)
	authLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /auth/register", authLimiter(auth.Register))
	mux.HandleFunc("POST /auth/login", authLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("POST /auth/magic-link", authLimiter(auth.SendMagicLink))
	mux.HandleFunc("GET /auth/magic-link/{token}", auth.VerifyMagicLink)
	mux.HandleFunc("POST /auth/forgot-password", authLimiter(auth.SendPasswordReset))
	mux.HandleFunc("POST /auth/reset-password", authLimiter(auth.ResetPassword))
	mux.HandleFunc("GET /auth/session", auth.Session)

	// OAuth
	mux.HandleFunc("GET /auth/google", authLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", authLimiter(auth.GoogleCallback))
	mux.HandleFunc("GET /auth/github", authLimiter(auth.GitHubAuth))
	mux.HandleFunc("GET /auth/github/callback", authLimiter(auth.GitHubCallback))

	// Onboarding requires login but not a completed profile.
	mux.HandleFunc("POST /onboarding", middleware.RequireAuth(account.CompleteOnboarding))

	// Chat (rate limited on top of the per-user daily cap)
	chatLimiter := middleware.RateLimitChat()
	mux.HandleFunc("POST /chat", chatLimiter(middleware.RequireOnboarded(chat.Send)))
	mux.HandleFunc("POST /conversations/ensure", middleware.RequireOnboarded(chat.EnsureConversation))

	// Companion
	mux.HandleFunc("GET /companion", middleware.RequireAuth(companion.Get))
	mux.HandleFunc("POST /companion/ensure", middleware.RequireOnboarded(companion.Update))
	mux.HandleFunc("DELETE /companion/reset", middleware.RequireOnboarded(companion.Reset))

	// Memories
	mux.HandleFunc("GET /memories", middleware.RequireOnboarded(memory.List))
	mux.HandleFunc("POST /memories", middleware.RequireOnboarded(memory.Search))

	// Dashboard
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(dashboard.Overview))

	// Preferences
	mux.HandleFunc("GET /preferences", middleware.RequireAuth(preferences.Get))
	mux.HandleFunc("POST /preferences", middleware.RequireAuth(preferences.Update))

	// Account
	mux.HandleFunc("PATCH /account/nickname", middleware.RequireAuth(account.UpdateNickname))
	mux.HandleFunc("POST /account/password", middleware.RequireAuth(account.UpdatePassword))
	mux.HandleFunc("DELETE /account", middleware.RequireAuth(account.Delete))

	// Billing
	mux.HandleFunc("POST /billing/checkout", middleware.RequireAuth(billing.CreateCheckout))
	mux.HandleFunc("POST /billing/portal", middleware.RequireAuth(billing.CustomerPortal))

	// Support (rate limited)
	supportLimiter := middleware.RateLimitSupport()
	mux.HandleFunc("POST /support", supportLimiter(middleware.RequireAuth(support.Submit)))

	// Payment provider webhook (works with both Polar and Stripe)
	mux.HandleFunc("POST /webhooks/payment", billing.Webhook)

	// Global middleware, executed top to bottom.
	h := middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService, app.ProfileService, app.SubscriptionService),
		middleware.WithURLPath,
	)

	return h
}
