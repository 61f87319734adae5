package tokenstore

import (
	"context"
	"errors"
	"strings"
	"time"

	dbmodel "butler/cli/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	cfgKeyAuthToken = "auth_token"
	cfgKeyTheme     = "theme_preference"
)

// Store persists the single bearer token of the active session.
type Store struct {
	db *gorm.DB
}

// NewStore uses the shared DB. Caller must not close the db through the store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: db}, nil
}

// GetToken returns the stored token, or "" when there is none.
func (s *Store) GetToken(ctx context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("token store is not initialized")
	}
	v, ok, err := rawValue(ctx, s.db, cfgKeyAuthToken)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	if s == nil || s.db == nil {
		return errors.New("token store is not initialized")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is required")
	}
	return upsertValue(s.db.WithContext(ctx), cfgKeyAuthToken, token)
}

// RemoveToken deletes the token row. Removing an absent token is not an error.
func (s *Store) RemoveToken(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("token store is not initialized")
	}
	return s.db.WithContext(ctx).Where("key = ?", cfgKeyAuthToken).Delete(&dbmodel.Config{}).Error
}

func rawValue(ctx context.Context, db *gorm.DB, key string) (string, bool, error) {
	var row dbmodel.Config
	err := db.WithContext(ctx).Model(&dbmodel.Config{}).Select("value").Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func upsertValue(tx *gorm.DB, key, value string) error {
	now := time.Now().UTC().Unix()
	row := dbmodel.Config{
		Key:       key,
		Value:     value,
		UpdatedAt: now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
}
