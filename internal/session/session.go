package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"butler/cli/internal/api"
	"butler/cli/internal/apiclient"
)

var (
	// ErrSuperseded is returned when a sign-in, sign-up or restore finished
	// after a later session operation started; its result was discarded.
	ErrSuperseded       = errors.New("session changed while the request was in flight")
	ErrNotAuthenticated = errors.New("not signed in")
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateRestoring       State = "restoring"
	StateAuthenticated   State = "authenticated"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, in api.RegisterInput) (api.AuthResponse, error)
	GetProfile(ctx context.Context) (api.User, error)
	UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.User, error)
	DeleteAccount(ctx context.Context) (api.MessageResponse, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (api.MessageResponse, error)
}

type ButlerProfileAPI interface {
	UpdateButlerProfile(ctx context.Context, patch api.ButlerProfilePatch) (api.User, error)
}

type TokenStore interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context) error
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State State
	Token string
	User  *api.User
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

type SignUpInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	CoreValues      []string
}

type Options struct {
	Auth   AuthAPI
	Butler ButlerProfileAPI
	Tokens TokenStore
	Logger *slog.Logger
}

// Manager owns the current user and token. It is safe for concurrent use;
// network calls never run under its lock.
type Manager struct {
	auth   AuthAPI
	butler ButlerProfileAPI
	tokens TokenStore
	logger *slog.Logger

	mu        sync.Mutex
	snap      Snapshot
	gen       uint64
	nextSubID int
	subs      map[int]func(Snapshot)
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Auth == nil {
		return nil, errors.New("auth api is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		auth:   opts.Auth,
		butler: opts.Butler,
		tokens: opts.Tokens,
		logger: logger,
		snap:   Snapshot{State: StateUnauthenticated},
		subs:   map[int]func(Snapshot){},
	}, nil
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySnapshot(m.snap)
}

func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated()
}

// Subscribe registers fn for every published transition. Callbacks run
// synchronously after the transition and must not call back into m's
// mutating methods.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Restore rebuilds the session from a stored token at cold start. A token
// the backend rejects is removed.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.tokens.GetToken(ctx)
	if err != nil {
		m.logger.Warn("read stored token failed", "err", err)
		token = ""
	}
	token = strings.TrimSpace(token)
	if token == "" {
		m.begin(Snapshot{State: StateUnauthenticated})
		return nil
	}

	gen := m.begin(Snapshot{State: StateRestoring, Token: token})
	user, err := m.auth.GetProfile(ctx)
	if err != nil {
		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return ErrSuperseded
		}
		m.removeTokenLocked(ctx)
		m.gen++
		snap := m.setLocked(Snapshot{State: StateUnauthenticated})
		subs := m.subscribersLocked()
		m.mu.Unlock()
		notify(subs, snap)
		m.logger.Info("stored session rejected", "err", err)
		return err
	}
	return m.commit(ctx, gen, token, user, false)
}

func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if err := validateSignIn(email, password); err != nil {
		return err
	}
	gen := m.issue()
	res, err := m.auth.Login(ctx, strings.TrimSpace(email), password)
	if err == nil {
		err = m.commitAuth(ctx, gen, res)
	}
	if err != nil {
		m.abandon(gen)
	}
	return err
}

func (m *Manager) SignUp(ctx context.Context, in SignUpInput) error {
	if err := ValidateSignUp(in); err != nil {
		return err
	}
	gen := m.issue()
	res, err := m.auth.Register(ctx, api.RegisterInput{
		Username:   strings.TrimSpace(in.Username),
		Email:      strings.TrimSpace(in.Email),
		Password:   in.Password,
		CoreValues: cleanValues(in.CoreValues),
	})
	if err == nil {
		err = m.commitAuth(ctx, gen, res)
	}
	if err != nil {
		m.abandon(gen)
	}
	return err
}

// SignOut always succeeds; storage failures are logged.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.removeTokenLocked(ctx)
	snap := m.setLocked(Snapshot{State: StateUnauthenticated})
	subs := m.subscribersLocked()
	m.mu.Unlock()
	notify(subs, snap)
}

func (m *Manager) RefreshProfile(ctx context.Context) (api.User, error) {
	gen, err := m.requireAuth()
	if err != nil {
		return api.User{}, err
	}
	user, err := m.auth.GetProfile(ctx)
	if err != nil {
		return api.User{}, err
	}
	return user, m.replaceUser(gen, user)
}

func (m *Manager) UpdateProfile(ctx context.Context, patch api.ProfilePatch) (api.User, error) {
	gen, err := m.requireAuth()
	if err != nil {
		return api.User{}, err
	}
	user, err := m.auth.UpdateProfile(ctx, patch)
	if err != nil {
		return api.User{}, err
	}
	return user, m.replaceUser(gen, user)
}

func (m *Manager) UpdateButlerProfile(ctx context.Context, patch api.ButlerProfilePatch) (api.User, error) {
	if m.butler == nil {
		return api.User{}, errors.New("butler api is not configured")
	}
	gen, err := m.requireAuth()
	if err != nil {
		return api.User{}, err
	}
	user, err := m.butler.UpdateButlerProfile(ctx, patch)
	if err != nil {
		return api.User{}, err
	}
	return user, m.replaceUser(gen, user)
}

func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword, confirm string) (string, error) {
	if currentPassword == "" || newPassword == "" {
		return "", apiclient.ValidationError("please fill in all fields")
	}
	if err := validateNewPassword(newPassword, confirm); err != nil {
		return "", err
	}
	if _, err := m.requireAuth(); err != nil {
		return "", err
	}
	res, err := m.auth.ChangePassword(ctx, currentPassword, newPassword)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

// DeleteAccount removes the account server-side, then signs out.
func (m *Manager) DeleteAccount(ctx context.Context) (string, error) {
	if _, err := m.requireAuth(); err != nil {
		return "", err
	}
	res, err := m.auth.DeleteAccount(ctx)
	if err != nil {
		return "", err
	}
	m.SignOut(ctx)
	return res.Message, nil
}

func (m *Manager) commitAuth(ctx context.Context, gen uint64, res api.AuthResponse) error {
	token := strings.TrimSpace(res.Token)
	if token == "" {
		return &apiclient.Error{Kind: apiclient.KindDecode, Message: "auth response did not include a token"}
	}
	return m.commit(ctx, gen, token, res.User, true)
}

// commit publishes Authenticated if no other session operation started since gen.
func (m *Manager) commit(ctx context.Context, gen uint64, token string, user api.User, persist bool) error {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	if persist {
		if err := m.tokens.SetToken(ctx, token); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.gen++
	snap := m.setLocked(Snapshot{State: StateAuthenticated, Token: token, User: &user})
	subs := m.subscribersLocked()
	m.mu.Unlock()
	notify(subs, snap)
	return nil
}

func (m *Manager) replaceUser(gen uint64, user api.User) error {
	m.mu.Lock()
	if m.gen != gen || !m.snap.IsAuthenticated() {
		m.mu.Unlock()
		return ErrSuperseded
	}
	snap := m.setLocked(Snapshot{State: StateAuthenticated, Token: m.snap.Token, User: &user})
	subs := m.subscribersLocked()
	m.mu.Unlock()
	notify(subs, snap)
	return nil
}

// begin starts a new session operation and publishes its initial state.
func (m *Manager) begin(next Snapshot) uint64 {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	snap := m.setLocked(next)
	subs := m.subscribersLocked()
	m.mu.Unlock()
	notify(subs, snap)
	return gen
}

// issue starts a sign-in or sign-up. Anything in flight, a restore included,
// is superseded; the published state does not change until it completes.
func (m *Manager) issue() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

// abandon resolves a failed sign-in or sign-up that superseded a restore, so
// the session never stays in Restoring. Otherwise the state is untouched.
func (m *Manager) abandon(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.snap.State != StateRestoring {
		m.mu.Unlock()
		return
	}
	m.gen++
	snap := m.setLocked(Snapshot{State: StateUnauthenticated})
	subs := m.subscribersLocked()
	m.mu.Unlock()
	notify(subs, snap)
}

func (m *Manager) requireAuth() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.snap.IsAuthenticated() {
		return 0, ErrNotAuthenticated
	}
	return m.gen, nil
}

func (m *Manager) removeTokenLocked(ctx context.Context) {
	if err := m.tokens.RemoveToken(ctx); err != nil {
		m.logger.Warn("remove stored token failed", "err", err)
	}
}

func (m *Manager) setLocked(next Snapshot) Snapshot {
	m.snap = copySnapshot(next)
	return copySnapshot(m.snap)
}

func (m *Manager) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(copySnapshot(snap))
	}
}

func copySnapshot(s Snapshot) Snapshot {
	if s.User != nil {
		u := *s.User
		u.CoreValues = append([]string(nil), u.CoreValues...)
		u.Preferences = append([]string(nil), u.Preferences...)
		s.User = &u
	}
	return s
}

func cleanValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
