package command

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a small in-memory rendition of the butler REST API.
type fakeBackend struct {
	mu            sync.Mutex
	users         map[string]map[string]any
	passwords     map[string]string
	tasks         []map[string]any
	moods         map[string]map[string]any
	chat          []map[string]any
	nextID        int
	consultFails  bool
	moodReadsLeft int
	srv           *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		users:     map[string]map[string]any{},
		passwords: map[string]string{},
		moods:     map[string]map[string]any{},
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s%d", prefix, b.nextID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	switch {
	case path == "/auth/register" && r.Method == http.MethodPost:
		email, _ := body["email"].(string)
		if _, exists := b.users[email]; exists {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "User already exists"})
			return
		}
		user := map[string]any{"id": b.id("u"), "username": body["username"], "email": email, "core_values": body["core_values"]}
		b.users[email] = user
		b.passwords[email], _ = body["password"].(string)
		writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered", "user": user, "token": "token-" + email})
		return
	case path == "/auth/login" && r.Method == http.MethodPost:
		email, _ := body["email"].(string)
		pw, _ := body["password"].(string)
		if b.passwords[email] == "" || b.passwords[email] != pw {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "user": b.users[email], "token": "token-" + email})
		return
	}

	user := b.authUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
		return
	}

	switch {
	case path == "/auth/profile" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	case path == "/auth/profile" && r.Method == http.MethodPatch:
		for k, v := range body {
			user[k] = v
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	case path == "/auth/profile" && r.Method == http.MethodDelete:
		email, _ := user["email"].(string)
		delete(b.users, email)
		delete(b.passwords, email)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Account deleted"})
	case path == "/butler/profile" && r.Method == http.MethodPatch:
		for k, v := range body {
			user[k] = v
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	case path == "/tasks" && r.Method == http.MethodGet:
		out := []map[string]any{}
		for _, t := range b.tasks {
			if t["is_completed"] == true && r.URL.Query().Get("includeCompleted") != "true" {
				continue
			}
			out = append(out, t)
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
	case path == "/tasks" && r.Method == http.MethodPost:
		task := map[string]any{"id": b.id("t"), "user_id": user["id"], "is_completed": false, "created_at": time.Now().UTC().Format(time.RFC3339)}
		for k, v := range body {
			task[k] = v
		}
		b.tasks = append(b.tasks, task)
		writeJSON(w, http.StatusCreated, map[string]any{"task": task})
	case path == "/tasks/magic-parse" && r.Method == http.MethodPost:
		writeJSON(w, http.StatusOK, map[string]any{"title": body["text"], "energy_cost": 4, "emotional_friction": "High"})
	case strings.HasPrefix(path, "/tasks/"):
		b.serveTask(w, r, strings.TrimPrefix(path, "/tasks/"), body)
	case path == "/butler/consult" && r.Method == http.MethodPost:
		id := b.id("m")
		b.moods[id] = map[string]any{"id": id, "user_id": user["id"], "mood": body["current_mood"], "energy_level": body["current_energy"], "raw_input": body["raw_input"], "timestamp": time.Now().UTC().Format(time.RFC3339)}
		if b.consultFails {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to get recommendation", "context_log_id": id})
			return
		}
		b.moods[id]["recommendation"] = "Take a short walk."
		writeJSON(w, http.StatusOK, map[string]any{"recommendation": "Take a short walk.", "context_log_id": id})
	case path == "/butler/history" && r.Method == http.MethodGet:
		out := []map[string]any{}
		for _, m := range b.moods {
			out = append(out, m)
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": out})
	case strings.HasPrefix(path, "/butler/history/"):
		b.serveMood(w, r, strings.TrimPrefix(path, "/butler/history/"), body)
	case path == "/chat/message" && r.Method == http.MethodPost:
		now := time.Now().UTC().Format(time.RFC3339)
		userMsg := map[string]any{"id": b.id("c"), "role": "user", "content": body["message"], "timestamp": now}
		reply := map[string]any{"id": b.id("c"), "role": "assistant", "content": "Noted, sir.", "timestamp": now}
		b.chat = append(b.chat, userMsg, reply)
		writeJSON(w, http.StatusOK, map[string]any{"user_message": userMsg, "reply": reply})
	case path == "/chat/history" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"messages": b.chat})
	case path == "/chat/history" && r.Method == http.MethodDelete:
		n := len(b.chat)
		b.chat = nil
		writeJSON(w, http.StatusOK, map[string]any{"message": "Chat history cleared", "deleted_count": n})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	}
}

func (b *fakeBackend) authUser(r *http.Request) map[string]any {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	email, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil
	}
	return b.users[email]
}

func (b *fakeBackend) serveTask(w http.ResponseWriter, r *http.Request, rest string, body map[string]any) {
	id, action, _ := strings.Cut(rest, "/")
	for i, t := range b.tasks {
		if t["id"] != id {
			continue
		}
		switch {
		case action == "" && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"task": t})
		case action == "" && r.Method == http.MethodPut:
			for k, v := range body {
				t[k] = v
			}
			writeJSON(w, http.StatusOK, map[string]any{"task": t})
		case action == "complete" && r.Method == http.MethodPatch:
			t["is_completed"] = true
			writeJSON(w, http.StatusOK, map[string]any{"task": t})
		case action == "" && r.Method == http.MethodDelete:
			b.tasks = append(b.tasks[:i:i], b.tasks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found"})
}

func (b *fakeBackend) serveMood(w http.ResponseWriter, r *http.Request, id string, body map[string]any) {
	m, ok := b.moods[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Entry not found"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		if _, has := m["recommendation"]; !has {
			if b.moodReadsLeft <= 1 {
				m["recommendation"] = "Rest first, then the easy task."
			}
			b.moodReadsLeft--
		}
		writeJSON(w, http.StatusOK, m)
	case http.MethodPatch:
		if v, ok := body["mood"]; ok {
			m["mood"] = v
		}
		if v, ok := body["energy_level"]; ok {
			m["energy_level"] = v
		}
		if v, ok := body["raw_input"]; ok {
			m["raw_input"] = v
		}
		writeJSON(w, http.StatusOK, m)
	case http.MethodDelete:
		delete(b.moods, id)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Entry deleted"})
	}
}
