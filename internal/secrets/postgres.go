package secrets

import (
	"context"
	"errors"
	"time"

	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps secrets in a single table. It is the only backend that
// can compare-and-swap across processes.
type PostgresStore struct {
	DB     *gorm.DB
	prefix string
}

// NewPostgresStore creates a PostgresStore on an open database.
func NewPostgresStore(db *gorm.DB, prefix string) *PostgresStore {
	return &PostgresStore{DB: db, prefix: prefix}
}

// Get reads a secret row.
func (s *PostgresStore) Get(ctx context.Context, name string) (string, error) {
	var secret models.Secret
	err := s.DB.WithContext(ctx).Where("name = ?", s.prefix+name).First(&secret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", NotFoundError{Name: name}
		}
		return "", err
	}
	return secret.Value, nil
}

// Put upserts a secret row and bumps its version.
func (s *PostgresStore) Put(ctx context.Context, name, value string) error {
	secret := models.Secret{Name: s.prefix + name, Value: value, Version: 1}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"version":    gorm.Expr("secrets.version + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&secret).Error
	if err != nil {
		logger.Get().Error("failed to store secret", zap.String("name", name), zap.Error(err))
	}
	return err
}

// CompareAndSwap replaces the value only if the row still holds old.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, name, old, new string) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Secret{}).
		Where("name = ? AND value = ?", s.prefix+name, old).
		Updates(map[string]interface{}{
			"value":   new,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
