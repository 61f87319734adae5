package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"butler/cli/internal/api"
)

type printer struct {
	w    io.Writer
	json bool
}

func (p printer) linef(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// emit writes v as JSON in --json mode and calls human otherwise.
func (p printer) emit(v any, human func()) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human()
	return nil
}

func (p printer) message(msg string) error {
	return p.emit(map[string]string{"message": msg}, func() { p.linef("%s", msg) })
}

func (p printer) user(u api.User) {
	p.linef("%s <%s>", u.Username, u.Email)
	p.linef("  id: %s", u.ID)
	if u.BaselineEnergy != nil {
		p.linef("  baseline energy: %d", *u.BaselineEnergy)
	}
	if len(u.CoreValues) > 0 {
		p.linef("  core values: %s", strings.Join(u.CoreValues, ", "))
	}
	if u.HealthContext != "" {
		p.linef("  health: %s", u.HealthContext)
	}
	if u.CareerContext != "" {
		p.linef("  career: %s", u.CareerContext)
	}
	if u.RelationshipContext != "" {
		p.linef("  relationships: %s", u.RelationshipContext)
	}
	if len(u.Preferences) > 0 {
		p.linef("  preferences: %s", strings.Join(u.Preferences, ", "))
	}
}

func (p printer) task(t api.Task) {
	mark := " "
	if t.IsCompleted {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %s  %s (energy %d, friction %s)", mark, t.ID, t.Title, t.EnergyCost, t.EmotionalFriction)
	if t.AssociatedValue != "" {
		line += " #" + t.AssociatedValue
	}
	if t.DueDate != nil {
		line += " due " + t.DueDate.Format(time.DateOnly)
	}
	p.linef("%s", line)
}

func (p printer) moodEntry(e api.ContextLog) {
	p.linef("%s  %s  %s energy %d", e.ID, e.Timestamp.Format(time.DateTime), e.Mood, e.EnergyLevel)
	if e.RawInput != "" {
		p.linef("  note: %s", e.RawInput)
	}
	if e.Recommendation != "" {
		p.linef("  butler: %s", e.Recommendation)
	}
}

func (p printer) chatMessage(m api.ChatMessage) {
	p.linef("%s  %s  %s: %s", m.ID, m.Timestamp.Format(time.DateTime), m.Role, m.Content)
}
