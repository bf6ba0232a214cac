package secrets

import (
	"context"
	"fmt"

	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/db"
)

// Open returns the Store selected by SECRETS_BACKEND.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.EnvVars.SecretsBackend {
	case config.BackendSSM:
		return NewSSMStore(ctx, cfg)
	case config.BackendS3:
		return NewS3Store(ctx, cfg)
	case config.BackendKeyring:
		return OpenKeyringStore(cfg)
	case config.BackendPostgres:
		database, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(database, cfg.EnvVars.SecretsPrefix), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.EnvVars.SecretsBackend)
	}
}
