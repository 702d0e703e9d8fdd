package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kindredhq/kindred/internal/model"
	"github.com/kindredhq/kindred/internal/repository"
	"github.com/kindredhq/kindred/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
)

type AuthService struct {
	userRepository       repository.UserRepository
	profileRepository    repository.ProfileRepository
	tokenRepository      repository.TokenRepository
	preferencesRepo      repository.PreferencesRepository
	subscriptionService  *SubscriptionService
	emailService         *EmailService
	jwtSecret            string
	isProduction         bool
	jwtExpiry            time.Duration
	tokenMagicLinkExpiry time.Duration
	tokenPasswordExpiry  time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	tokenRepository repository.TokenRepository,
	preferencesRepo repository.PreferencesRepository,
	subscriptionService *SubscriptionService,
	emailService *EmailService,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
	tokenMagicLinkExpiry time.Duration,
	tokenPasswordExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:       userRepository,
		profileRepository:    profileRepository,
		tokenRepository:      tokenRepository,
		preferencesRepo:      preferencesRepo,
		subscriptionService:  subscriptionService,
		emailService:         emailService,
		jwtSecret:            jwtSecret,
		isProduction:         isProduction,
		jwtExpiry:            jwtExpiry,
		tokenMagicLinkExpiry: tokenMagicLinkExpiry,
		tokenPasswordExpiry:  tokenPasswordExpiry,
	}
}

// Register creates a password account. Email verification happens via the
// first magic link or OAuth login; password accounts are verified immediately
// so the user can start chatting.
func (s *AuthService) Register(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		PasswordHash:    &hash,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
	}

	if err := s.userRepository.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.bootstrapAccount(user.ID); err != nil {
		slog.Warn("failed to bootstrap account", "error", err, "user_id", user.ID)
	}

	slog.Info("new user registered", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, errors.New("this account uses passwordless login, use the magic link option")
	}

	if err := s.ComparePassword(password, *user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// SendMagicLink handles the combined login/signup flow: existing users get a
// login link, unknown emails get a fresh passwordless account first.
func (s *AuthService) SendMagicLink(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := validation.ValidateEmail(email); err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: time.Now(),
		}

		if err := s.userRepository.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if err := s.bootstrapAccount(user.ID); err != nil {
			slog.Warn("failed to bootstrap account", "error", err, "user_id", user.ID)
		}

		slog.Info("new passwordless user created", "email", email, "user_id", user.ID)
	}

	if err := s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypeMagicLink); err != nil {
		slog.Warn("failed to delete old magic link tokens", "error", err, "user_id", user.ID)
	}

	magicToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeMagicLink,
		Token:     magicToken,
		ExpiresAt: time.Now().Add(s.tokenMagicLinkExpiry),
	}
	if err := s.tokenRepository.Create(token); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.emailService.SendMagicLinkEmail(user.Email, magicToken, s.nickname(user.ID)); err != nil {
		slog.Error("failed to send magic link email", "error", err, "email", user.Email)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("magic link sent", "email", user.Email)
	return nil
}

// VerifyMagicLink consumes the token and returns the authenticated user.
func (s *AuthService) VerifyMagicLink(token string) (*model.User, error) {
	tokenModel, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired magic link")
	}

	if tokenModel.Type != model.TokenTypeMagicLink {
		return nil, fmt.Errorf("invalid token type")
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if user.EmailVerifiedAt == nil {
		now := time.Now()
		user.EmailVerifiedAt = &now
		if err := s.userRepository.Update(user); err != nil {
			slog.Warn("failed to verify email", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("user authenticated via magic link", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// SendPasswordReset always reports success so callers cannot enumerate
// registered emails.
func (s *AuthService) SendPasswordReset(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := validation.ValidateEmail(email); err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		slog.Info("password reset requested for non-existent email", "email", email)
		return nil
	}
	if !user.HasPassword() {
		slog.Info("password reset requested for passwordless account", "email", email)
		return nil
	}

	if err := s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypePasswordReset); err != nil {
		slog.Warn("failed to delete old reset tokens", "error", err, "user_id", user.ID)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     resetToken,
		ExpiresAt: time.Now().Add(s.tokenPasswordExpiry),
	}
	if err := s.tokenRepository.Create(token); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.emailService.SendPasswordResetEmail(user.Email, resetToken, s.nickname(user.ID)); err != nil {
		slog.Error("failed to send password reset email", "error", err, "email", user.Email)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("password reset link sent", "email", user.Email)
	return nil
}

// ResetPassword consumes the reset token and stores the new password.
func (s *AuthService) ResetPassword(token, newPassword string) (*model.User, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	tokenModel, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired reset link")
	}

	if tokenModel.Type != model.TokenTypePasswordReset {
		return nil, fmt.Errorf("invalid token type")
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = &hash
	if err := s.userRepository.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset completed", "user_id", user.ID)
	return user, nil
}

// AuthenticateOAuth creates a new account on first login with a verified
// email, or returns the existing one.
func (s *AuthService) AuthenticateOAuth(email, provider string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to lookup user: %w", err)
		}

		now := time.Now()
		user = &model.User{
			ID:              uuid.New().String(),
			Email:           email,
			EmailVerifiedAt: &now,
			CreatedAt:       now,
		}

		if err := s.userRepository.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		if err := s.bootstrapAccount(user.ID); err != nil {
			slog.Warn("failed to bootstrap account", "error", err, "user_id", user.ID)
		}

		slog.Info("new OAuth user created", "email", email, "user_id", user.ID, "provider", provider)
		return user, nil
	}

	if user.EmailVerifiedAt == nil {
		now := time.Now()
		user.EmailVerifiedAt = &now
		if err := s.userRepository.Update(user); err != nil {
			slog.Warn("failed to mark email as verified", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("user authenticated via OAuth", "user_id", user.ID, "email", user.Email, "provider", provider)
	return user, nil
}

// NeedsOnboarding reports whether the user still has to pick a nickname and
// configure their companion.
func (s *AuthService) NeedsOnboarding(userID string) (bool, error) {
	profile, err := s.profileRepository.ByUserID(userID)
	if err != nil {
		return false, fmt.Errorf("failed to get profile: %w", err)
	}
	return !profile.OnboardingComplete, nil
}

// bootstrapAccount creates the rows every new account gets: an empty
// profile, default notification preferences, and a free subscription.
func (s *AuthService) bootstrapAccount(userID string) error {
	profile := &model.Profile{
		UserID: userID,
	}
	if err := s.profileRepository.Create(profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	if err := s.preferencesRepo.Save(model.DefaultPreferences(userID)); err != nil {
		slog.Warn("failed to create default preferences", "error", err, "user_id", userID)
	}

	if err := s.subscriptionService.CreateFreeSubscription(userID); err != nil {
		slog.Warn("failed to create free subscription", "error", err, "user_id", userID)
	}

	return nil
}

func (s *AuthService) nickname(userID string) string {
	profile, err := s.profileRepository.ByUserID(userID)
	if err != nil {
		return ""
	}
	return profile.Nickname
}
