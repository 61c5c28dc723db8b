package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/socialquest-be/internal/auth"
	"github.com/isdelr/socialquest-be/internal/game"
	"github.com/isdelr/socialquest-be/internal/models"
	"github.com/isdelr/socialquest-be/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt limit
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// AuthServiceProvider defines the interface for authentication services.
type AuthServiceProvider interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	auth.TokenPair
	User models.User `json:"user"`
}

// AuthService handles registration, login and the refresh flow.
type AuthService struct {
	store      *repository.Store
	issuer     *auth.TokenIssuer
	challenges *ChallengeService
	streakLoc  *time.Location
	hashCost   int
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store *repository.Store, issuer *auth.TokenIssuer, challenges *ChallengeService, streakLoc *time.Location) *AuthService {
	if streakLoc == nil {
		streakLoc = time.UTC
	}
	return &AuthService{
		store:      store,
		issuer:     issuer,
		challenges: challenges,
		streakLoc:  streakLoc,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register creates a user with the default game state and its starter challenges.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	if !usernamePattern.MatchString(username) {
		return "", invalid("username", "must be 3-20 letters, digits or underscores")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", invalid("password", "must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return "", invalid("password", "must be at most %d bytes", maxPasswordBytes)
	}

	exists, err := s.store.Repos().Users.UsernameExists(ctx, username)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrConflict
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.NewUser(uuid.New().String(), username, string(hashed), now)

	err = s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := r.Users.Create(ctx, &user); err != nil {
			return err
		}
		if _, err := s.challenges.seed(ctx, r, user.ID, now); err != nil {
			return err
		}
		return createEvent(ctx, r, user.ID, models.EventUserRegister, fmt.Sprintf("Welcome, %s!", username), now)
	})
	if err != nil {
		return "", translate(err)
	}

	log.Info().Str("user_id", user.ID).Str("username", username).Msg("User registered")
	return user.ID, nil
}

// Login checks credentials, advances the login streak and starts a new
// session. The new refresh token replaces whatever was stored before.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" {
		return LoginResult{}, invalid("username", "is required")
	}
	if password == "" {
		return LoginResult{}, invalid("password", "is required")
	}

	user, err := s.store.Repos().Users.GetByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, translate(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	tokens, err := s.issuer.IssueTokens(user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now().UTC()
	var completed []models.Challenge
	err = s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		// re-read inside the transaction so concurrent xp grants are not overwritten
		current, err := r.Users.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		user = current
		if game.ApplyLogin(&user, now, s.streakLoc) {
			if err := r.Users.Update(ctx, &user); err != nil {
				return err
			}
		}
		if err := r.Users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
			return err
		}
		completed, err = s.challenges.recordEvent(ctx, r, user.ID, models.ActionLogin, now)
		if err != nil {
			return err
		}
		if len(completed) > 0 {
			// rewards changed the coin balance
			user, err = r.Users.GetByID(ctx, user.ID)
		}
		return err
	})
	if err != nil {
		return LoginResult{}, translate(err)
	}
	s.challenges.notifyCompleted(user.ID, completed)

	user.RefreshToken = ""
	return LoginResult{TokenPair: tokens, User: user}, nil
}

// Refresh exchanges a refresh token for a new pair. The token must match the
// one stored for its user; anything else is rejected as invalid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if refreshToken == "" {
		return auth.TokenPair{}, auth.ErrMissingToken
	}

	userID, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}

	var tokens auth.TokenPair
	err = s.store.WithTx(ctx, func(ctx context.Context, r repository.Repos) error {
		user, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return auth.ErrInvalidToken
			}
			return err
		}
		if user.RefreshToken == "" || user.RefreshToken != refreshToken {
			return auth.ErrInvalidToken
		}

		tokens, err = s.issuer.IssueTokens(userID)
		if err != nil {
			return err
		}
		return r.Users.SetRefreshToken(ctx, userID, tokens.RefreshToken)
	})
	if err != nil {
		return auth.TokenPair{}, translate(err)
	}
	return tokens, nil
}

// Logout drops the stored refresh token, ending the session.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return translate(s.store.Repos().Users.SetRefreshToken(ctx, userID, ""))
}
