// Package users registers accounts and exchanges credentials for access
// tokens.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/cryptox"
	"github.com/dmitrijs2005/scratchmap/internal/server/auth"
	"github.com/dmitrijs2005/scratchmap/internal/server/config"
)

const minPasswordLength = 6

// dummyHash is verified against when the user does not exist so that a
// failed login costs the same either way.
var dummyHash = cryptox.HashPassword("scratchmap-dummy-password")

type Service struct {
	repo                        Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                        repo,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	user := &User{
		UserName:     username,
		PasswordHash: cryptox.HashPassword(password),
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks the password and returns the user id with a fresh access
// token. Unknown users and wrong passwords both yield ErrorUnauthorized.
func (s *Service) Login(ctx context.Context, userName, password string) (string, string, error) {
	user, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(password, dummyHash)
			return "", "", common.ErrorUnauthorized
		}
		return "", "", common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", "", common.ErrorInternal
	}
	if !ok {
		return "", "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", "", common.ErrorInternal
	}
	return user.ID, token, nil
}
