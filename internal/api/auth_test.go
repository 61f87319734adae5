package api

import (
	"context"
	"net/http"
	"testing"
)

func TestAuthAPI_LoginAndRegisterSkipAuth(t *testing.T) {
	c, rec := newRecordingServer(t, http.StatusOK, `{"message":"ok","user":{"id":"u1","email":"a@b.c"},"token":"t1"}`)
	auth := NewAuthAPI(c)
	ctx := context.Background()

	res, err := auth.Login(ctx, "a@b.c", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Token != "t1" || res.User.ID != "u1" {
		t.Fatalf("unexpected login response: %+v", res)
	}
	req := rec.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/auth/login" || req.Auth != "" {
		t.Fatalf("unexpected login request: %+v", req)
	}
	if req.Body["email"] != "a@b.c" || req.Body["password"] != "secret1" {
		t.Fatalf("unexpected login body: %+v", req.Body)
	}

	if _, err := auth.Register(ctx, RegisterInput{Username: "ann", Email: "a@b.c", Password: "secret1", CoreValues: []string{"family"}}); err != nil {
		t.Fatal(err)
	}
	req = rec.last(t)
	if req.Path != "/api/auth/register" || req.Auth != "" {
		t.Fatalf("unexpected register request: %+v", req)
	}
	if values, ok := req.Body["core_values"].([]any); !ok || len(values) != 1 || values[0] != "family" {
		t.Fatalf("unexpected core values: %+v", req.Body)
	}
}

func TestAuthAPI_RegisterOmitsEmptyCoreValues(t *testing.T) {
	c, rec := newRecordingServer(t, http.StatusOK, `{"token":"t1","user":{"id":"u1"}}`)
	if _, err := NewAuthAPI(c).Register(context.Background(), RegisterInput{Username: "ann", Email: "a@b.c", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.last(t).Body["core_values"]; ok {
		t.Fatal("core_values should be omitted when empty")
	}
}

func TestAuthAPI_UpdateProfileSendsOnlyProvidedFields(t *testing.T) {
	c, rec := newRecordingServer(t, http.StatusOK, `{"user":{"id":"u1","username":"new"}}`)
	name := "new"
	user, err := NewAuthAPI(c).UpdateProfile(context.Background(), ProfilePatch{Username: &name})
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "new" {
		t.Fatalf("unexpected user: %+v", user)
	}
	req := rec.last(t)
	if req.Method != http.MethodPatch || req.Path != "/api/auth/profile" || req.Auth != "Bearer tok" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.Body) != 1 || req.Body["username"] != "new" {
		t.Fatalf("patch should carry only username, got %+v", req.Body)
	}

	if _, err := NewAuthAPI(c).UpdateProfile(context.Background(), ProfilePatch{}); err == nil {
		t.Fatal("expected error for empty patch")
	}
}

func TestAuthAPI_ProfileRoutes(t *testing.T) {
	c, rec := newRecordingServer(t, http.StatusOK, `{"user":{"id":"u1"},"message":"done"}`)
	auth := NewAuthAPI(c)
	ctx := context.Background()

	user, err := auth.GetProfile(ctx)
	if err != nil || user.ID != "u1" {
		t.Fatalf("get profile: %+v %v", user, err)
	}
	if req := rec.last(t); req.Method != http.MethodGet || req.Path != "/api/auth/profile" || req.Auth != "Bearer tok" {
		t.Fatalf("unexpected request: %+v", req)
	}

	if _, err := auth.DeleteAccount(ctx); err != nil {
		t.Fatal(err)
	}
	if req := rec.last(t); req.Method != http.MethodDelete || req.Path != "/api/auth/profile" {
		t.Fatalf("unexpected request: %+v", req)
	}

	msg, err := auth.ChangePassword(ctx, "old-pass", "new-pass")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Message != "done" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	req := rec.last(t)
	if req.Path != "/api/auth/change-password" || req.Body["current_password"] != "old-pass" || req.Body["new_password"] != "new-pass" {
		t.Fatalf("unexpected request: %+v", req)
	}
}
