// Package secrets stores the Fitbit credential set in an external
// key-value store.
package secrets

import (
	"context"
	"fmt"

	"github.com/windoze95/nickate-skill/internal/models"
)

// Store is a named-secret key-value store.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Put(ctx context.Context, name, value string) error
}

// Swapper is implemented by stores that can replace a value only while it
// still holds the expected old value.
type Swapper interface {
	CompareAndSwap(ctx context.Context, name, old, new string) (bool, error)
}

// NotFoundError is returned when a named secret does not exist.
type NotFoundError struct {
	Name string
}

// Error returns the error message.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("secret %s not found", e.Name)
}

// LoadCredentials reads the full credential set from the store.
func LoadCredentials(ctx context.Context, store Store) (models.Credentials, error) {
	var creds models.Credentials
	fields := []struct {
		name string
		dst  *string
	}{
		{models.AccessTokenKey, &creds.AccessToken},
		{models.RefreshTokenKey, &creds.RefreshToken},
		{models.ClientIDKey, &creds.ClientID},
		{models.ClientSecretKey, &creds.ClientSecret},
	}
	for _, f := range fields {
		v, err := store.Get(ctx, f.name)
		if err != nil {
			return models.Credentials{}, fmt.Errorf("load %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return creds, nil
}

// SaveTokens writes a rotated token pair. The refresh token goes first so a
// crash between the two writes leaves a pair that can still be refreshed.
func SaveTokens(ctx context.Context, store Store, accessToken, refreshToken string) error {
	if err := store.Put(ctx, models.RefreshTokenKey, refreshToken); err != nil {
		return fmt.Errorf("save %s: %w", models.RefreshTokenKey, err)
	}
	if err := store.Put(ctx, models.AccessTokenKey, accessToken); err != nil {
		return fmt.Errorf("save %s: %w", models.AccessTokenKey, err)
	}
	return nil
}
