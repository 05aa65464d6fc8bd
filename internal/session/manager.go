// Package session owns the authentication token pair and the cached user
// profile. It implements api.TokenSource: any 401 observed anywhere in the
// remote adapter invalidates the whole session immediately.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shelfdesk/shelfdesk/internal/api"
	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/store"
)

const (
	authPath = "/auth"

	// profileTimeout bounds the remote profile fetch; past it the cached
	// snapshot is used instead.
	profileTimeout = 5 * time.Second

	// logoutTimeout bounds the best-effort remote sign-out notification.
	logoutTimeout = 3 * time.Second
)

// State is the session lifecycle state.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// ModeSource reports whether operations should target the local backend.
type ModeSource interface {
	UseLocal() bool
}

// Manager is the session manager. It persists the token pair and profile
// snapshot in the store so sessions survive restarts.
type Manager struct {
	store  *store.Store
	users  *store.Collection[domain.User]
	mode   ModeSource
	logger *slog.Logger

	client *api.Client // attached after construction; nil in pure local setups

	mu      sync.Mutex
	state   State
	session domain.Session
}

// NewManager creates a session manager over the given store and local users
// collection. A session persisted by an earlier run is resumed.
func NewManager(s *store.Store, users *store.Collection[domain.User], mode ModeSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:  s,
		users:  users,
		mode:   mode,
		logger: logger,
	}
	if sess, ok := s.GetSession(); ok {
		m.session = sess
		m.state = StateAuthenticated
		logger.Debug("resumed persisted session", "user", sess.User.Username)
	}
	return m
}

// AttachClient wires the remote API client. The manager and the client
// reference each other (the client sources tokens from the manager), so the
// client is attached after both exist.
func (m *Manager) AttachClient(c *api.Client) { m.client = c }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether an access token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.AccessToken != ""
}

// CurrentUser returns the cached profile snapshot, if any.
func (m *Manager) CurrentUser() (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.User, m.session.User.Username != ""
}

// AccessToken implements api.TokenSource.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.AccessToken
}

// Invalidate implements api.TokenSource. The server proved the token
// invalid, so the whole session is cleared regardless of which request
// observed the 401.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAnonymous && m.session.AccessToken == "" {
		return
	}
	m.logger.Warn("session invalidated by server")
	m.clearLocked()
}

// clearLocked wipes in-memory and persisted session state. Callers must
// hold m.mu.
func (m *Manager) clearLocked() {
	m.session = domain.Session{}
	m.state = StateAnonymous
	m.store.ClearSession()
}

// Login authenticates with the given credentials. On success the token
// pair and profile snapshot are stored and the state becomes Authenticated;
// on failure any previously held session is cleared and the state returns
// to Anonymous.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	var sess domain.Session
	var err error
	if m.mode.UseLocal() {
		sess, err = m.loginLocal(ctx, creds)
	} else {
		sess, err = m.loginRemote(ctx, creds)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		// Anonymous means no token held. A failed re-login over an
		// existing session drops that session too rather than leaving
		// its tokens behind.
		m.clearLocked()
		return domain.Session{}, err
	}

	m.session = sess
	m.state = StateAuthenticated
	if serr := m.store.SaveSession(sess); serr != nil {
		m.logger.Error("failed to persist session", "error", serr)
	}
	m.logger.Info("logged in", "user", sess.User.Username, "role", sess.User.Role)
	return sess, nil
}

func (m *Manager) loginLocal(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	matches, err := m.users.Filter(ctx, func(u domain.User) bool {
		return u.Username == creds.Username
	})
	if err != nil {
		return domain.Session{}, err
	}
	if len(matches) == 0 || !domain.CheckPassword(matches[0].PasswordHash, creds.Password) {
		return domain.Session{}, &domain.AuthError{Message: "Invalid username or password"}
	}
	return domain.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		User:         matches[0].Profile(),
	}, nil
}

func (m *Manager) loginRemote(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if m.client == nil {
		return domain.Session{}, &domain.AuthError{Message: "no api endpoint configured"}
	}
	body, err := m.client.Post(ctx, authPath+"/login", creds)
	if err != nil {
		return domain.Session{}, err
	}
	var sess domain.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("failed to parse login response: %w", err)
	}
	if sess.AccessToken == "" {
		return domain.Session{}, &domain.AuthError{Message: "login response carried no token"}
	}
	return sess, nil
}

// Register creates a new account and immediately logs in with the same
// credentials.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (domain.Session, error) {
	if m.mode.UseLocal() {
		if err := m.registerLocal(ctx, reg); err != nil {
			return domain.Session{}, err
		}
	} else {
		if m.client == nil {
			return domain.Session{}, &domain.AuthError{Message: "no api endpoint configured"}
		}
		if _, err := m.client.Post(ctx, authPath+"/register", reg); err != nil {
			return domain.Session{}, err
		}
	}
	return m.Login(ctx, domain.Credentials{Username: reg.Username, Password: reg.Password})
}

func (m *Manager) registerLocal(ctx context.Context, reg domain.Registration) error {
	taken, err := m.users.Filter(ctx, func(u domain.User) bool {
		return u.Username == reg.Username || u.Email == reg.Email
	})
	if err != nil {
		return err
	}
	for _, u := range taken {
		if u.Username == reg.Username {
			return &domain.AuthError{Message: "Username already exists"}
		}
		return &domain.AuthError{Message: "Email already exists"}
	}

	hash, err := domain.HashPassword(reg.Password)
	if err != nil {
		return err
	}
	_, err = m.users.Create(ctx, domain.User{
		Username:     reg.Username,
		Email:        reg.Email,
		FullName:     reg.FullName,
		Role:         "User",
		PasswordHash: hash,
	})
	return err
}

// FetchProfile returns the user profile. A snapshot already held in memory
// is returned without a network call; a remote fetch is bounded by a 5s
// deadline and falls back to the persisted snapshot on rate limiting or
// timeout.
func (m *Manager) FetchProfile(ctx context.Context) (domain.User, error) {
	m.mu.Lock()
	if m.session.AccessToken == "" {
		m.mu.Unlock()
		return domain.User{}, &domain.AuthError{Message: "Authentication token missing"}
	}
	if m.session.User.Username != "" {
		user := m.session.User
		m.mu.Unlock()
		return user, nil
	}
	m.mu.Unlock()

	if m.mode.UseLocal() || m.client == nil {
		// Local sessions always persist the snapshot at login.
		if sess, ok := m.store.GetSession(); ok && sess.User.Username != "" {
			return sess.User, nil
		}
		return domain.User{}, &domain.AuthError{Message: "no profile for session"}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, profileTimeout)
	defer cancel()

	body, err := m.client.Get(fetchCtx, authPath+"/profile", nil)
	if err != nil {
		if cached, ok := m.degradedProfile(err); ok {
			return cached, nil
		}
		return domain.User{}, err
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.User{}, fmt.Errorf("failed to parse profile response: %w", err)
	}

	m.mu.Lock()
	m.session.User = user
	m.mu.Unlock()
	if serr := m.store.SaveUser(user); serr != nil {
		m.logger.Error("failed to persist profile", "error", serr)
	}
	return user, nil
}

// degradedProfile returns the persisted snapshot when the fetch failed for
// a reason that does not discredit it: rate limiting or a timeout.
func (m *Manager) degradedProfile(err error) (domain.User, bool) {
	var apiErr *domain.APIError
	rateLimited := errors.As(err, &apiErr) && apiErr.Status == 429
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if !rateLimited && !timedOut {
		return domain.User{}, false
	}
	sess, ok := m.store.GetSession()
	if !ok || sess.User.Username == "" {
		return domain.User{}, false
	}
	m.logger.Warn("using cached profile", "error", err)
	return sess.User, true
}

// Logout notifies the server on a best-effort basis and unconditionally
// clears local session state.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.session.AccessToken
	m.mu.Unlock()

	if token != "" && !m.mode.UseLocal() && m.client != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, logoutTimeout)
		defer cancel()
		if _, err := m.client.Post(notifyCtx, authPath+"/logout", nil); err != nil {
			m.logger.Warn("remote logout failed", "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	m.logger.Info("logged out")
}

// Refresh exchanges the refresh token for a new access token. Any failure
// clears the session entirely and forces a re-login.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	refreshToken := m.session.RefreshToken
	if refreshToken == "" {
		m.clearLocked()
		m.mu.Unlock()
		return domain.ErrNoRefreshToken
	}
	m.state = StateRefreshing
	m.mu.Unlock()

	var next domain.Session
	var err error
	if m.mode.UseLocal() || m.client == nil {
		// Local tokens are opaque; refreshing rotates both.
		next = domain.Session{AccessToken: uuid.NewString(), RefreshToken: uuid.NewString()}
	} else {
		next, err = m.refreshRemote(ctx, refreshToken)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		m.clearLocked()
		return err
	}

	m.session.AccessToken = next.AccessToken
	if next.RefreshToken != "" {
		m.session.RefreshToken = next.RefreshToken
	}
	m.state = StateAuthenticated
	if serr := m.store.SaveSession(m.session); serr != nil {
		m.logger.Error("failed to persist session", "error", serr)
	}
	return nil
}

func (m *Manager) refreshRemote(ctx context.Context, refreshToken string) (domain.Session, error) {
	payload := map[string]string{"refreshToken": refreshToken}
	body, err := m.client.Post(ctx, authPath+"/refresh-token", payload)
	if err != nil {
		return domain.Session{}, err
	}
	var next domain.Session
	if err := json.Unmarshal(body, &next); err != nil {
		return domain.Session{}, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if next.AccessToken == "" {
		return domain.Session{}, &domain.AuthError{Message: "refresh response carried no token"}
	}
	return next, nil
}
