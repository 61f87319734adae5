package api

import (
	"context"
	"net/http"

	"butler/cli/internal/apiclient"
)

type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type RegisterInput struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	CoreValues []string `json:"core_values,omitempty"`
}

// ProfilePatch only sends non-nil fields.
type ProfilePatch struct {
	Username            *string   `json:"username,omitempty"`
	Email               *string   `json:"email,omitempty"`
	BaselineEnergy      *int      `json:"baseline_energy,omitempty"`
	CoreValues          *[]string `json:"core_values,omitempty"`
	HealthContext       *string   `json:"health_context,omitempty"`
	CareerContext       *string   `json:"career_context,omitempty"`
	RelationshipContext *string   `json:"relationship_context,omitempty"`
	Preferences         *[]string `json:"preferences,omitempty"`
}

func (p ProfilePatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.BaselineEnergy == nil && p.CoreValues == nil &&
		p.HealthContext == nil && p.CareerContext == nil && p.RelationshipContext == nil && p.Preferences == nil
}

type AuthAPI struct {
	c *apiclient.Client
}

func NewAuthAPI(c *apiclient.Client) *AuthAPI {
	return &AuthAPI{c: c}
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return apiclient.Request[AuthResponse](ctx, a.c, "/auth/login", apiclient.RequestOptions{
		Method:   http.MethodPost,
		Body:     map[string]string{"email": email, "password": password},
		SkipAuth: true,
	})
}

func (a *AuthAPI) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	return apiclient.Request[AuthResponse](ctx, a.c, "/auth/register", apiclient.RequestOptions{
		Method:   http.MethodPost,
		Body:     in,
		SkipAuth: true,
	})
}

func (a *AuthAPI) GetProfile(ctx context.Context) (User, error) {
	out, err := apiclient.Request[userEnvelope](ctx, a.c, "/auth/profile", apiclient.RequestOptions{})
	return out.User, err
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, patch ProfilePatch) (User, error) {
	if patch.Empty() {
		return User{}, apiclient.ValidationError("nothing to update")
	}
	out, err := apiclient.Request[userEnvelope](ctx, a.c, "/auth/profile", apiclient.RequestOptions{
		Method: http.MethodPatch,
		Body:   patch,
	})
	return out.User, err
}

func (a *AuthAPI) DeleteAccount(ctx context.Context) (MessageResponse, error) {
	return apiclient.Request[MessageResponse](ctx, a.c, "/auth/profile", apiclient.RequestOptions{Method: http.MethodDelete})
}

func (a *AuthAPI) ChangePassword(ctx context.Context, currentPassword, newPassword string) (MessageResponse, error) {
	return apiclient.Request[MessageResponse](ctx, a.c, "/auth/change-password", apiclient.RequestOptions{
		Method: http.MethodPost,
		Body: map[string]string{
			"current_password": currentPassword,
			"new_password":     newPassword,
		},
	})
}
