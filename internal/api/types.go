package api

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	BaselineEnergy      *int      `json:"baseline_energy,omitempty"`
	CoreValues          []string  `json:"core_values,omitempty"`
	HealthContext       string    `json:"health_context,omitempty"`
	CareerContext       string    `json:"career_context,omitempty"`
	RelationshipContext string    `json:"relationship_context,omitempty"`
	Preferences         []string  `json:"preferences,omitempty"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}

// EmotionalFriction classifies how hard a task feels to start.
type EmotionalFriction string

const (
	FrictionLow    EmotionalFriction = "Low"
	FrictionMedium EmotionalFriction = "Medium"
	FrictionHigh   EmotionalFriction = "High"
)

// ParseFriction accepts any casing of the three levels.
func ParseFriction(v string) (EmotionalFriction, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low":
		return FrictionLow, nil
	case "medium":
		return FrictionMedium, nil
	case "high":
		return FrictionHigh, nil
	default:
		return "", fmt.Errorf("unknown emotional friction %q (want Low, Medium or High)", v)
	}
}

const (
	MinEnergyCost = 1
	MaxEnergyCost = 10
)

type Task struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Title             string            `json:"title"`
	EnergyCost        int               `json:"energy_cost"`
	EmotionalFriction EmotionalFriction `json:"emotional_friction"`
	AssociatedValue   string            `json:"associated_value,omitempty"`
	IsCompleted       bool              `json:"is_completed"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// TaskInput is the set of mutable task fields sent on create and update.
type TaskInput struct {
	Title             string            `json:"title"`
	EnergyCost        int               `json:"energy_cost"`
	EmotionalFriction EmotionalFriction `json:"emotional_friction"`
	AssociatedValue   string            `json:"associated_value,omitempty"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
}

type ParsedTask struct {
	Title             string            `json:"title"`
	EnergyCost        int               `json:"energy_cost"`
	EmotionalFriction EmotionalFriction `json:"emotional_friction"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
}

// Input converts a parse result into a create request.
func (p ParsedTask) Input() TaskInput {
	return TaskInput{
		Title:             p.Title,
		EnergyCost:        p.EnergyCost,
		EmotionalFriction: p.EmotionalFriction,
		DueDate:           p.DueDate,
	}
}

type ContextLog struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RawInput       string    `json:"raw_input"`
	Mood           string    `json:"mood"`
	EnergyLevel    int       `json:"energy_level"`
	Recommendation string    `json:"recommendation,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type userEnvelope struct {
	User User `json:"user"`
}
