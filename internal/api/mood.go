package api

import (
	"context"
	"regexp"

	"butler/cli/internal/apiclient"
)

const moodLoggedDegraded = "Mood logged. AI recommendation unavailable."

type MoodInput struct {
	Mood     string
	Energy   int
	RawInput string
}

type LogMoodResult struct {
	Message        string
	Recommendation string
	ContextLogID   string
	Degraded       bool
}

type consulter interface {
	Consult(ctx context.Context, in ConsultInput) (ConsultResponse, error)
}

var aiFailurePattern = regexp.MustCompile(`(?i)\b(ai|model|llm|gemini|openai)\b`)

// LogMood records a mood through the consult endpoint. When the entry was
// saved but the recommendation step failed, it reports success without a
// recommendation instead of an error.
func LogMood(ctx context.Context, c consulter, in MoodInput) (LogMoodResult, error) {
	res, err := c.Consult(ctx, ConsultInput{
		CurrentMood:   in.Mood,
		CurrentEnergy: in.Energy,
		RawInput:      in.RawInput,
	})
	if err == nil {
		return LogMoodResult{
			Message:        "Mood logged.",
			Recommendation: res.Recommendation,
			ContextLogID:   res.ContextLogID,
		}, nil
	}
	apiErr, ok := apiclient.AsError(err)
	if !ok || apiErr.Kind == apiclient.KindValidation {
		return LogMoodResult{}, err
	}
	if apiErr.ContextLogID != "" || aiFailurePattern.MatchString(apiErr.Message) {
		return LogMoodResult{
			Message:      moodLoggedDegraded,
			ContextLogID: apiErr.ContextLogID,
			Degraded:     true,
		}, nil
	}
	return LogMoodResult{}, err
}
