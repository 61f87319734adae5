package migration

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type step struct {
	name string
	run  func(*Migration) error
}

var (
	steps    []step
	initOnce sync.Once
)

// Migration is passed to each migration step. DB is set by RunAll.
type Migration struct {
	DB   *gorm.DB
	logs []string
}

func (m *Migration) Log(v ...interface{}) {
	m.logs = append(m.logs, fmt.Sprint(v...))
}

// Logs returns what the current step reported.
func (m *Migration) Logs() []string {
	out := make([]string, len(m.logs))
	copy(out, m.logs)
	return out
}

// Init registers the built-in data steps once per process.
func Init() {
	initOnce.Do(func() {
		register("seed_theme_preference", seedThemePreference)
	})
}

func register(name string, run func(*Migration) error) {
	steps = append(steps, step{name: name, run: run})
}

// RunAll runs all registered migrations in order. Used for data/behavior one-shots; schema is synced via db.SyncSchema.
func RunAll(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	ctx := &Migration{DB: db}
	for _, s := range steps {
		ctx.logs = nil
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("migration %s failed: %w", s.name, err)
		}
	}
	return nil
}

// seedThemePreference writes the default theme row once; existing choices are kept.
func seedThemePreference(m *Migration) error {
	res := m.DB.Table("config").Clauses(clause.OnConflict{DoNothing: true}).Create(map[string]any{
		"key":        "theme_preference",
		"value":      "system",
		"updated_at": time.Now().UTC().Unix(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		m.Log("seeded theme_preference=system")
	}
	return nil
}
