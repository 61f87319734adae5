package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"butler/cli/internal/apiclient"
)

const DefaultHistoryLimit = 20

type ConsultInput struct {
	CurrentMood   string `json:"current_mood"`
	CurrentEnergy int    `json:"current_energy"`
	RawInput      string `json:"raw_input,omitempty"`
}

type ConsultResponse struct {
	Recommendation string `json:"recommendation"`
	ContextLogID   string `json:"context_log_id"`
}

// MoodPatch only sends non-nil fields.
type MoodPatch struct {
	Mood        *string `json:"mood,omitempty"`
	EnergyLevel *int    `json:"energy_level,omitempty"`
	RawInput    *string `json:"raw_input,omitempty"`
}

type ButlerProfilePatch struct {
	CoreValues     *[]string `json:"core_values,omitempty"`
	BaselineEnergy *int      `json:"baseline_energy,omitempty"`
}

type ButlerAPI struct {
	c *apiclient.Client
}

func NewButlerAPI(c *apiclient.Client) *ButlerAPI {
	return &ButlerAPI{c: c}
}

type historyEnvelope struct {
	History []ContextLog `json:"history"`
}

func (a *ButlerAPI) Consult(ctx context.Context, in ConsultInput) (ConsultResponse, error) {
	if strings.TrimSpace(in.CurrentMood) == "" {
		return ConsultResponse{}, apiclient.ValidationError("mood is required")
	}
	if in.CurrentEnergy < MinEnergyCost || in.CurrentEnergy > MaxEnergyCost {
		return ConsultResponse{}, apiclient.ValidationError("energy must be between %d and %d", MinEnergyCost, MaxEnergyCost)
	}
	return apiclient.Request[ConsultResponse](ctx, a.c, "/butler/consult", apiclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
}

func (a *ButlerAPI) GetHistory(ctx context.Context, limit int) ([]ContextLog, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out, err := apiclient.Request[historyEnvelope](ctx, a.c, "/butler/history", apiclient.RequestOptions{
		Query: url.Values{"limit": {strconv.Itoa(limit)}},
	})
	if err != nil {
		return nil, err
	}
	if out.History == nil {
		return []ContextLog{}, nil
	}
	return out.History, nil
}

func (a *ButlerAPI) GetMood(ctx context.Context, id string) (ContextLog, error) {
	path, err := moodPath(id)
	if err != nil {
		return ContextLog{}, err
	}
	return apiclient.Request[ContextLog](ctx, a.c, path, apiclient.RequestOptions{})
}

func (a *ButlerAPI) UpdateMood(ctx context.Context, id string, patch MoodPatch) (ContextLog, error) {
	path, err := moodPath(id)
	if err != nil {
		return ContextLog{}, err
	}
	if patch.Mood == nil && patch.EnergyLevel == nil && patch.RawInput == nil {
		return ContextLog{}, apiclient.ValidationError("nothing to update")
	}
	return apiclient.Request[ContextLog](ctx, a.c, path, apiclient.RequestOptions{
		Method: http.MethodPatch,
		Body:   patch,
	})
}

func (a *ButlerAPI) DeleteMood(ctx context.Context, id string) error {
	path, err := moodPath(id)
	if err != nil {
		return err
	}
	_, err = apiclient.Request[struct{}](ctx, a.c, path, apiclient.RequestOptions{Method: http.MethodDelete})
	return err
}

func (a *ButlerAPI) UpdateButlerProfile(ctx context.Context, patch ButlerProfilePatch) (User, error) {
	if patch.CoreValues == nil && patch.BaselineEnergy == nil {
		return User{}, apiclient.ValidationError("nothing to update")
	}
	out, err := apiclient.Request[userEnvelope](ctx, a.c, "/butler/profile", apiclient.RequestOptions{
		Method: http.MethodPatch,
		Body:   patch,
	})
	return out.User, err
}

// AwaitRecommendation re-reads a mood entry until the server has attached a
// recommendation. Exhaustion yields ok=false, not an error.
func (a *ButlerAPI) AwaitRecommendation(ctx context.Context, id string, opts PollOptions) (string, bool, error) {
	if _, err := moodPath(id); err != nil {
		return "", false, err
	}
	return Poll(ctx, opts, func(ctx context.Context) (string, bool, error) {
		entry, err := a.GetMood(ctx, id)
		if err != nil {
			return "", false, err
		}
		rec := strings.TrimSpace(entry.Recommendation)
		return rec, rec != "", nil
	})
}

func moodPath(id string) (string, error) {
	return resourcePath("/butler/history", id, "", "mood entry id")
}
