package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const DefaultTheme = "system"

var validThemes = map[string]struct{}{
	"light":  {},
	"dark":   {},
	"system": {},
}

// PrefsStore keeps UI preferences next to the token under their own keys.
type PrefsStore struct {
	db *gorm.DB
}

func NewPrefsStore(db *gorm.DB) (*PrefsStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &PrefsStore{db: db}, nil
}

func (s *PrefsStore) Theme(ctx context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("prefs store is not initialized")
	}
	v, ok, err := rawValue(ctx, s.db, cfgKeyTheme)
	if err != nil {
		return "", err
	}
	v = strings.ToLower(strings.TrimSpace(v))
	if _, valid := validThemes[v]; !ok || !valid {
		return DefaultTheme, nil
	}
	return v, nil
}

func (s *PrefsStore) SetTheme(ctx context.Context, theme string) error {
	if s == nil || s.db == nil {
		return errors.New("prefs store is not initialized")
	}
	theme = strings.ToLower(strings.TrimSpace(theme))
	if _, ok := validThemes[theme]; !ok {
		return fmt.Errorf("unsupported theme: %q", theme)
	}
	return upsertValue(s.db.WithContext(ctx), cfgKeyTheme, theme)
}
