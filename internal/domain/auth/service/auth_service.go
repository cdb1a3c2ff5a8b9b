// Package service implements OAuth sign-in and access tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markbates/goth"

	"github.com/FACorreiaa/subscription-finder/internal/domain/user/repository"
)

// ErrAccountInactive is returned when a user has been disabled.
var ErrAccountInactive = errors.New("account is deactivated")

// ErrMissingEmail is returned when the provider did not share an email.
var ErrMissingEmail = errors.New("identity provider returned no email")

// LoginResult is a signed-in user and their access token.
type LoginResult struct {
	User   *repository.User
	Tokens *TokenPair
}

type AuthService struct {
	users        repository.UserRepository
	tokenManager *TokenManager
	logger       *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokenManager *TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokenManager: tokenManager, logger: logger}
}

// LoginOrRegisterOAuth finds the user by the provider's email or creates one,
// then issues an access token. The bool reports whether the user is new.
func (s *AuthService) LoginOrRegisterOAuth(ctx context.Context, provider string, gothUser *goth.User) (*LoginResult, bool, error) {
	email := strings.ToLower(strings.TrimSpace(gothUser.Email))
	if email == "" {
		return nil, false, ErrMissingEmail
	}

	name := gothUser.Name
	if name == "" {
		name = displayName(gothUser.NickName, email)
	}

	user, isNewUser, err := s.users.UpsertByEmail(ctx, email, name, gothUser.AvatarURL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to sign in: %w", err)
	}

	if !user.IsActive {
		return nil, false, ErrAccountInactive
	}

	tokens, err := s.tokenManager.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "oauth login",
		slog.String("provider", provider),
		slog.String("user_id", user.ID.String()),
		slog.Bool("new_user", isNewUser),
	)
	return &LoginResult{User: user, Tokens: tokens}, isNewUser, nil
}

// displayName falls back to the nickname or the email's local part.
func displayName(nickname, email string) string {
	if nickname != "" {
		return nickname
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
