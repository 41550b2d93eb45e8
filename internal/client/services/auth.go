package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator is the account part of the remote API.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (userID, accessToken string, err error)
	SetAccessToken(token string)
}

// AuthService signs the user in and keeps the session in the local store.
//
// Contract:
//   - Register and Login need the remote and fail with remote.ErrOffline
//     otherwise.
//   - Restore loads the stored session and arms the transport with its token.
//     An expired token yields ErrSessionExpired but the session is still
//     returned, so local work continues offline.
//   - Logout forgets the session. Local data and queues are kept.
type AuthService interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (models.Session, error)
	Restore(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
}

type authService struct {
	Deps
	auth Authenticator
}

func NewAuthService(a Authenticator, d Deps) AuthService {
	return &authService{Deps: d.withDefaults(), auth: a}
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	return nil
}

func (a *authService) Register(ctx context.Context, username, password string) (string, error) {
	if err := validateCredentials(username, password); err != nil {
		return "", err
	}
	if !a.Online.Online() {
		return "", remote.ErrOffline
	}
	id, err := a.auth.Register(ctx, username, password)
	if err != nil {
		return "", fmt.Errorf("register error: %w", err)
	}
	return id, nil
}

func (a *authService) Login(ctx context.Context, username, password string) (models.Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return models.Session{}, err
	}
	if !a.Online.Online() {
		return models.Session{}, remote.ErrOffline
	}

	id, token, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return models.Session{}, fmt.Errorf("login error: %w", err)
	}
	sess := models.Session{UserID: id, Username: username, AccessToken: token}
	if err := a.Collections.SetSession(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("session saving error: %w", err)
	}
	a.auth.SetAccessToken(token)
	a.Logger.Info(ctx, "logged in", "user", username)
	return sess, nil
}

func (a *authService) Restore(ctx context.Context) (*models.Session, error) {
	sess, err := a.Collections.Session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Valid() {
		return nil, remote.ErrNoSession
	}
	if err := checkToken(sess.AccessToken, a.Now()); err != nil {
		return sess, err
	}
	a.auth.SetAccessToken(sess.AccessToken)
	return sess, nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.auth.SetAccessToken("")
	return a.Collections.ClearSession(ctx)
}

// checkToken reads the expiry without verifying the signature; the server
// does that on every call.
func checkToken(token string, now time.Time) error {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return ErrSessionExpired
	}
	return nil
}

// IsAuthError reports whether err means the user has to log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, remote.ErrNoSession) ||
		errors.Is(err, remote.ErrUnauthorized)
}
