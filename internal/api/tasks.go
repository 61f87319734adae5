package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"butler/cli/internal/apiclient"
)

type TaskAPI struct {
	c *apiclient.Client
}

func NewTaskAPI(c *apiclient.Client) *TaskAPI {
	return &TaskAPI{c: c}
}

type taskEnvelope struct {
	Task Task `json:"task"`
}

type tasksEnvelope struct {
	Tasks []Task `json:"tasks"`
}

// GetTasks lists the user's tasks; completed ones only when asked for.
func (a *TaskAPI) GetTasks(ctx context.Context, includeCompleted bool) ([]Task, error) {
	var query url.Values
	if includeCompleted {
		query = url.Values{"includeCompleted": {"true"}}
	}
	out, err := apiclient.Request[tasksEnvelope](ctx, a.c, "/tasks", apiclient.RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	if out.Tasks == nil {
		return []Task{}, nil
	}
	return out.Tasks, nil
}

func (a *TaskAPI) GetTask(ctx context.Context, id string) (Task, error) {
	path, err := taskPath(id, "")
	if err != nil {
		return Task{}, err
	}
	out, err := apiclient.Request[taskEnvelope](ctx, a.c, path, apiclient.RequestOptions{})
	return out.Task, err
}

func (a *TaskAPI) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	if err := ValidateTaskInput(in); err != nil {
		return Task{}, err
	}
	out, err := apiclient.Request[taskEnvelope](ctx, a.c, "/tasks", apiclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
	return out.Task, err
}

// taskReplacement is the PUT body. Cleared optional fields are sent as
// "" and null so the server drops them.
type taskReplacement struct {
	Title             string            `json:"title"`
	EnergyCost        int               `json:"energy_cost"`
	EmotionalFriction EmotionalFriction `json:"emotional_friction"`
	AssociatedValue   string            `json:"associated_value"`
	DueDate           *time.Time        `json:"due_date"`
}

// UpdateTask replaces all mutable fields of the task.
func (a *TaskAPI) UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error) {
	path, err := taskPath(id, "")
	if err != nil {
		return Task{}, err
	}
	if err := ValidateTaskInput(in); err != nil {
		return Task{}, err
	}
	out, err := apiclient.Request[taskEnvelope](ctx, a.c, path, apiclient.RequestOptions{
		Method: http.MethodPut,
		Body:   taskReplacement(in),
	})
	return out.Task, err
}

func (a *TaskAPI) CompleteTask(ctx context.Context, id string) (Task, error) {
	path, err := taskPath(id, "complete")
	if err != nil {
		return Task{}, err
	}
	out, err := apiclient.Request[taskEnvelope](ctx, a.c, path, apiclient.RequestOptions{Method: http.MethodPatch})
	return out.Task, err
}

func (a *TaskAPI) DeleteTask(ctx context.Context, id string) error {
	path, err := taskPath(id, "")
	if err != nil {
		return err
	}
	_, err = apiclient.Request[struct{}](ctx, a.c, path, apiclient.RequestOptions{Method: http.MethodDelete})
	return err
}

// ParseTask turns free text into task fields. On failure the returned
// *apiclient.Error keeps any ContextLogID the server attached.
func (a *TaskAPI) ParseTask(ctx context.Context, text string) (ParsedTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedTask{}, apiclient.ValidationError("text is required")
	}
	return apiclient.Request[ParsedTask](ctx, a.c, "/tasks/magic-parse", apiclient.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"text": text},
	})
}

func ValidateTaskInput(in TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apiclient.ValidationError("title is required")
	}
	if in.EnergyCost < MinEnergyCost || in.EnergyCost > MaxEnergyCost {
		return apiclient.ValidationError("energy cost must be between %d and %d", MinEnergyCost, MaxEnergyCost)
	}
	if _, err := ParseFriction(string(in.EmotionalFriction)); err != nil {
		return apiclient.ValidationError("%s", err.Error())
	}
	return nil
}

func taskPath(id, suffix string) (string, error) {
	return resourcePath("/tasks", id, suffix, "task id")
}

func resourcePath(prefix, id, suffix, label string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apiclient.ValidationError("%s is required", label)
	}
	path := prefix + "/" + url.PathEscape(id)
	if suffix != "" {
		path += "/" + suffix
	}
	return path, nil
}
