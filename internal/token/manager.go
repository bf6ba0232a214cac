// Package token keeps the stored Fitbit access token valid.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windoze95/nickate-skill/internal/fitbit"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/models"
	"github.com/windoze95/nickate-skill/internal/secrets"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// RefreshTimeout bounds the shared token exchange and its store writes.
const RefreshTimeout = 20 * time.Second

// API is the part of the Fitbit client the manager needs.
type API interface {
	GetProfile(ctx context.Context, accessToken string) (*fitbit.Profile, error)
	RefreshToken(ctx context.Context, creds models.Credentials) (*oauth2.Token, error)
}

// Manager runs the check / refresh / re-check sequence against the
// credential store. Concurrent refreshes inside one process share a single
// exchange.
type Manager struct {
	Store secrets.Store
	API   API

	group singleflight.Group
}

// NewManager creates a new Manager.
func NewManager(store secrets.Store, api API) *Manager {
	return &Manager{Store: store, API: api}
}

// EnsureValidAccessToken returns an access token Fitbit currently accepts.
// On a 401 it refreshes at most once and re-checks at most once; any further
// rejection is an *fitbit.AuthorizationError.
func (m *Manager) EnsureValidAccessToken(ctx context.Context) (string, error) {
	creds, err := secrets.LoadCredentials(ctx, m.Store)
	if err != nil {
		return "", err
	}

	_, err = m.API.GetProfile(ctx, creds.AccessToken)
	if err == nil {
		return creds.AccessToken, nil
	}
	var authErr *fitbit.AuthorizationError
	if !errors.As(err, &authErr) {
		return "", err
	}

	logger.Get().Info("access token rejected, refreshing")
	v, err, shared := m.group.Do("refresh", func() (interface{}, error) {
		// Shared by every waiting caller, so it must outlive the first one.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()
		return m.refresh(rctx, creds)
	})
	if err != nil {
		return "", err
	}
	accessToken := v.(string)

	if _, err := m.API.GetProfile(ctx, accessToken); err != nil {
		logger.Get().Error("refreshed access token rejected", zap.Bool("shared", shared), zap.Error(err))
		return "", err
	}
	return accessToken, nil
}

// refresh performs the token exchange and persists the new pair. If the
// stored pair has moved on since creds was read, the stored access token is
// adopted instead of exchanging a stale refresh token.
func (m *Manager) refresh(ctx context.Context, creds models.Credentials) (string, error) {
	access, err := m.Store.Get(ctx, models.AccessTokenKey)
	if err != nil {
		return "", fmt.Errorf("reload %s: %w", models.AccessTokenKey, err)
	}
	if access != creds.AccessToken {
		logger.Get().Info("access token already rotated")
		return access, nil
	}

	current, err := m.Store.Get(ctx, models.RefreshTokenKey)
	if err != nil {
		return "", fmt.Errorf("reload %s: %w", models.RefreshTokenKey, err)
	}
	if current != creds.RefreshToken {
		logger.Get().Info("token pair already rotated by another writer")
		return m.Store.Get(ctx, models.AccessTokenKey)
	}

	tok, err := m.API.RefreshToken(ctx, creds)
	if err != nil {
		logger.Get().Error("token refresh failed", zap.Error(err))
		return "", err
	}

	swapper, ok := m.Store.(secrets.Swapper)
	if !ok {
		if err := secrets.SaveTokens(ctx, m.Store, tok.AccessToken, tok.RefreshToken); err != nil {
			return "", err
		}
		return tok.AccessToken, nil
	}

	swapped, err := swapper.CompareAndSwap(ctx, models.RefreshTokenKey, creds.RefreshToken, tok.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", models.RefreshTokenKey, err)
	}
	if !swapped {
		// Another process won the rotation; its pair is the live one.
		logger.Get().Warn("lost refresh token swap, adopting stored pair")
		return m.Store.Get(ctx, models.AccessTokenKey)
	}
	if err := m.Store.Put(ctx, models.AccessTokenKey, tok.AccessToken); err != nil {
		return "", fmt.Errorf("save %s: %w", models.AccessTokenKey, err)
	}
	return tok.AccessToken, nil
}
