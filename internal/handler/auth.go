package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kindredhq/kindred/internal/config"
	"github.com/kindredhq/kindred/internal/ctxkeys"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

type AuthHandler struct {
	authService       *service.AuthService
	jwtExpiry         time.Duration
	appURL            string
	googleOAuthConfig *oauth2.Config
	githubOAuthConfig *oauth2.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtExpiry:   cfg.JWTExpiry,
		appURL:      cfg.AppURL,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
		githubOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/github/callback",
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// Register creates a password account and logs the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id":          user.ID,
		"needs_onboarding": true,
	})
}

// Login authenticates a password account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		slog.Warn("password login failed", "error", err, "email", req.Email)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	needsOnboarding, err := h.authService.NeedsOnboarding(user.ID)
	if err != nil {
		slog.Warn("failed to check onboarding status", "error", err, "user_id", user.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":          user.ID,
		"needs_onboarding": needsOnboarding,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SendMagicLink always answers OK so callers cannot probe for registered
// emails.
func (h *AuthHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.authService.SendMagicLink(req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, "please provide a valid email address")
			return
		}
		slog.Warn("magic link send failed", "error", err, "email", req.Email)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// VerifyMagicLink is hit from the email link in a browser, so it redirects
// instead of returning JSON.
func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	user, err := h.authService.VerifyMagicLink(token)
	if err != nil {
		slog.Warn("magic link verification failed", "error", err)
		http.Redirect(w, r, h.appURL+"/auth?error=invalid_link", http.StatusSeeOther)
		return
	}

	if err := h.issueSession(w, user); err != nil {
		http.Redirect(w, r, h.appURL+"/auth?error=server_error", http.StatusSeeOther)
		return
	}

	needsOnboarding, err := h.authService.NeedsOnboarding(user.ID)
	if err != nil {
		slog.Warn("failed to check onboarding status", "error", err, "user_id", user.ID)
	}

	if needsOnboarding {
		http.Redirect(w, r, h.appURL+"/onboarding", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.appURL+"/chat", http.StatusSeeOther)
}

func (h *AuthHandler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.SendPasswordReset(req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, "please provide a valid email address")
			return
		}
		slog.Warn("password reset send failed", "error", err, "email", req.Email)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.ResetPassword(req.Token, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.issueSession(w, user); err != nil {
		writeError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Session reports who is logged in; the SPA calls this on load.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile := ctxkeys.Profile(r.Context())
	subscription := ctxkeys.Subscription(r.Context())

	resp := map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	}
	if profile != nil {
		resp["nickname"] = profile.Nickname
		resp["premium"] = profile.Premium
		resp["onboarding_complete"] = profile.OnboardingComplete
	}
	if subscription != nil {
		resp["plan"] = subscription.PlanID
	}

	writeJSON(w, http.StatusOK, resp)
}

// GoogleAuth redirects to the Google consent screen.
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := h.setOAuthState(w, r)
	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code, ok := h.checkOAuthCallback(w, r, "google")
	if !ok {
		return
	}

	token, err := h.googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.oauthFailed(w, r)
		return
	}

	client := h.googleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.oauthFailed(w, r)
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Error("failed to decode google user info", "error", err)
		h.oauthFailed(w, r)
		return
	}

	h.finishOAuth(w, r, userInfo.Email, "google")
}

// GitHubAuth redirects to the GitHub consent screen.
func (h *AuthHandler) GitHubAuth(w http.ResponseWriter, r *http.Request) {
	state := h.setOAuthState(w, r)
	url := h.githubOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	code, ok := h.checkOAuthCallback(w, r, "github")
	if !ok {
		return
	}

	token, err := h.githubOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("github oauth token exchange failed", "error", err)
		h.oauthFailed(w, r)
		return
	}

	client := h.githubOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		slog.Error("failed to get github user info", "error", err)
		h.oauthFailed(w, r)
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Error("failed to decode github user info", "error", err)
		h.oauthFailed(w, r)
		return
	}

	// GitHub omits private emails from /user; fetch the primary one.
	if userInfo.Email == "" {
		emailResp, err := client.Get("https://api.github.com/user/emails")
		if err != nil {
			slog.Error("failed to get github user emails", "error", err)
			h.oauthFailed(w, r)
			return
		}
		defer emailResp.Body.Close()

		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := json.NewDecoder(emailResp.Body).Decode(&emails); err != nil {
			slog.Error("failed to decode github emails", "error", err)
			h.oauthFailed(w, r)
			return
		}

		for _, e := range emails {
			if e.Primary {
				userInfo.Email = e.Email
				break
			}
		}
	}

	if userInfo.Email == "" {
		slog.Warn("github oauth: no email found")
		h.oauthFailed(w, r)
		return
	}

	h.finishOAuth(w, r, userInfo.Email, "github")
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, user *model.User) error {
	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		return err
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.jwtExpiry))
	return nil
}

func (h *AuthHandler) setOAuthState(w http.ResponseWriter, r *http.Request) string {
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	return state
}

// checkOAuthCallback validates the state cookie and extracts the code.
func (h *AuthHandler) checkOAuthCallback(w http.ResponseWriter, r *http.Request, provider string) (string, bool) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("oauth state validation failed", "provider", provider, "error", err)
		h.oauthFailed(w, r)
		return "", false
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing code", "provider", provider)
		h.oauthFailed(w, r)
		return "", false
	}

	return code, true
}

func (h *AuthHandler) finishOAuth(w http.ResponseWriter, r *http.Request, email, provider string) {
	user, err := h.authService.AuthenticateOAuth(email, provider)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", email, "provider", provider)
		h.oauthFailed(w, r)
		return
	}

	if err := h.issueSession(w, user); err != nil {
		h.oauthFailed(w, r)
		return
	}

	needsOnboarding, err := h.authService.NeedsOnboarding(user.ID)
	if err != nil {
		slog.Warn("failed to check onboarding status", "error", err, "user_id", user.ID)
	}

	if needsOnboarding {
		http.Redirect(w, r, h.appURL+"/onboarding", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.appURL+"/chat", http.StatusSeeOther)
}

func (h *AuthHandler) oauthFailed(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.appURL+"/auth?error=oauth_failed", http.StatusSeeOther)
}

func generateOAuthState() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
