package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/models"
	"github.com/windoze95/nickate-skill/internal/secrets"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateTokenType = "oauth_state"
	stateTTL       = 10 * time.Minute
)

// ErrInvalidState is returned when the OAuth callback state does not verify.
var ErrInvalidState = errors.New("invalid or expired oauth state")

// OAuthAPI is the Fitbit authorization code flow.
type OAuthAPI interface {
	AuthCodeURL(clientID, redirectURL, state string) string
	ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Token, error)
}

// AuthorizeService bootstraps the stored token pair through the OAuth2
// authorization code flow.
type AuthorizeService struct {
	Cfg   *config.Config
	Store secrets.Store
	API   OAuthAPI
	Now   func() time.Time
}

// NewAuthorizeService creates a new AuthorizeService.
func NewAuthorizeService(cfg *config.Config, store secrets.Store, api OAuthAPI) *AuthorizeService {
	return &AuthorizeService{Cfg: cfg, Store: store, API: api, Now: time.Now}
}

// AuthorizationURL returns the Fitbit consent URL carrying a signed,
// short-lived state token.
func (s *AuthorizeService) AuthorizationURL(ctx context.Context) (string, error) {
	clientID, err := s.Store.Get(ctx, models.ClientIDKey)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", models.ClientIDKey, err)
	}

	state, err := s.signState()
	if err != nil {
		return "", err
	}
	return s.API.AuthCodeURL(clientID, s.Cfg.EnvVars.OAuthRedirectURL, state), nil
}

// CompleteAuthorization verifies the callback state, exchanges the code and
// stores the resulting token pair.
func (s *AuthorizeService) CompleteAuthorization(ctx context.Context, code, state string) error {
	if err := s.verifyState(state); err != nil {
		return err
	}

	// Tokens may not exist yet on first authorization; the client pair must.
	clientID, err := s.Store.Get(ctx, models.ClientIDKey)
	if err != nil {
		return fmt.Errorf("load %s: %w", models.ClientIDKey, err)
	}
	clientSecret, err := s.Store.Get(ctx, models.ClientSecretKey)
	if err != nil {
		return fmt.Errorf("load %s: %w", models.ClientSecretKey, err)
	}

	tok, err := s.API.ExchangeCode(ctx, clientID, clientSecret, s.Cfg.EnvVars.OAuthRedirectURL, code)
	if err != nil {
		return err
	}
	if err := secrets.SaveTokens(ctx, s.Store, tok.AccessToken, tok.RefreshToken); err != nil {
		return err
	}

	logger.Get().Info("fitbit authorization stored", zap.Time("expiry", tok.Expiry))
	return nil
}

func (s *AuthorizeService) signState() (string, error) {
	now := s.Now()
	claims := jwt.MapClaims{
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  now.Add(stateTTL).Unix(),
		"type": stateTokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.Cfg.EnvVars.JwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return signed, nil
}

func (s *AuthorizeService) verifyState(state string) error {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.Cfg.EnvVars.JwtSecretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.Now))
	if err != nil || !token.Valid {
		return ErrInvalidState
	}
	if t, ok := claims["type"].(string); !ok || t != stateTokenType {
		return ErrInvalidState
	}
	return nil
}
