package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/myhome/myhome/internal/notify"
)

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is
	// held. The session is cleared before the error is returned.
	ErrNoRefreshToken = errors.New("no refresh token held")

	// ErrNotAuthenticated is returned when an operation needs a live
	// session and none exists.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Backend is the slice of the authentication API the manager consumes.
// internal/api.Client implements it.
type Backend interface {
	Login(ctx context.Context, email, password string) (*User, Tokens, error)
	Register(ctx context.Context, data RegisterData) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context) (*User, error)
}

// Options tune the manager's timing behavior. Zero values take the
// defaults below.
type Options struct {
	// Lifetime is the client-side session lifetime applied at login and on
	// every refresh. The JWT exp claim, when present and earlier, bounds it.
	Lifetime time.Duration
	// RefreshLeeway is how long before expiry the proactive refresh fires.
	RefreshLeeway time.Duration
	// PollInterval is the period of the wall-clock expiry check. The poll
	// is a second line of defense against a missed proactive timer, e.g.
	// after the host slept past the firing point.
	PollInterval time.Duration
	// WelcomeDelay is the delay before the post-login welcome notice.
	WelcomeDelay time.Duration
}

func (o *Options) withDefaults() {
	if o.Lifetime <= 0 {
		o.Lifetime = 24 * time.Hour
	}
	if o.RefreshLeeway <= 0 {
		o.RefreshLeeway = 5 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Minute
	}
	if o.WelcomeDelay <= 0 {
		o.WelcomeDelay = 500 * time.Millisecond
	}
}

// Manager maintains the single session of the running client: it logs in,
// persists and restores the session, renews the access token before expiry,
// and tears everything down on logout, expiry, or refresh failure.
//
// Concurrent refresh attempts (proactive timer vs. a 401-triggered reactive
// refresh) are collapsed through a single-flight group, so at most one
// refresh request is ever in flight and all callers share its result.
type Manager struct {
	backend  Backend
	store    Store
	notifier notify.Notifier
	logger   zerolog.Logger
	opts     Options

	now func() time.Time

	mu           sync.Mutex
	sess         *Session
	refreshTimer *time.Timer

	sf        singleflight.Group
	stopPoll  chan struct{}
	closeOnce sync.Once
}

func NewManager(backend Backend, store Store, notifier notify.Notifier, logger zerolog.Logger, opts Options) *Manager {
	opts.withDefaults()
	m := &Manager{
		backend:  backend,
		store:    store,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		stopPoll: make(chan struct{}),
	}
	go m.watchExpiry()
	return m
}

// Close cancels the proactive refresh timer and the expiry poll. The
// session record itself is left untouched.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.stopPoll) })
	m.mu.Lock()
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.mu.Unlock()
}

// Login authenticates against the backend and, on success, installs and
// persists a new session. Errors are surfaced as a notification and then
// returned, so callers can keep their own error state.
func (m *Manager) Login(ctx context.Context, email, password string) (*User, error) {
	user, tokens, err := m.backend.Login(ctx, email, password)
	if err != nil {
		m.notifier.Error(err.Error())
		return nil, err
	}

	now := m.now()
	sess := &Session{User: *user, Tokens: tokens, ExpiresAt: m.computeExpiry(tokens.AccessToken, now)}

	m.mu.Lock()
	m.sess = sess
	m.armRefreshTimerLocked()
	snapshot := *sess
	m.mu.Unlock()

	if err := m.store.Save(&snapshot); err != nil {
		m.logger.Warn().Err(err).Msg("persist session after login")
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	notify.Delayed(m.opts.WelcomeDelay, func() {
		m.notifier.Success(fmt.Sprintf("Welcome back, %s!", name))
	})

	m.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Time("expiry", snapshot.ExpiresAt).Msg("logged in")
	return user, nil
}

// Register creates a new account. It deliberately does not authenticate the
// caller; a separate Login is required afterwards.
func (m *Manager) Register(ctx context.Context, data RegisterData) (*User, error) {
	if data.Role != "" && !data.Role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", data.Role)
	}
	user, err := m.backend.Register(ctx, data)
	if err != nil {
		m.notifier.Error(err.Error())
		return nil, err
	}
	m.notifier.Success("Account created. Please sign in.")
	return user, nil
}

// Logout best-effort-notifies the backend, then unconditionally clears the
// session. A failed backend call is swallowed: local state is cleared
// regardless.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	var rt string
	if m.sess != nil {
		rt = m.sess.Tokens.RefreshToken
	}
	m.mu.Unlock()

	if rt != "" {
		if err := m.backend.Logout(ctx, rt); err != nil {
			m.logger.Debug().Err(err).Msg("backend logout call failed")
		}
	}

	m.clear("")
	m.notifier.Info("You have been logged out.")
}

// Refresh exchanges the held refresh token for a new access token,
// extending the session expiry. Any failure ends the session: a rejected or
// missing refresh token is treated the same as expiry, with no retry.
// Concurrent callers share a single in-flight refresh.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.sf.Do("refresh", func() (interface{}, error) {
		return nil, m.refresh(ctx)
	})
	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	var rt string
	if m.sess != nil {
		rt = m.sess.Tokens.RefreshToken
	}
	m.mu.Unlock()

	if rt == "" {
		m.clear("")
		return ErrNoRefreshToken
	}

	access, err := m.backend.RefreshToken(ctx, rt)
	if err != nil {
		m.clear("Your session has ended. Please sign in again.")
		return fmt.Errorf("refresh access token: %w", err)
	}

	now := m.now()
	m.mu.Lock()
	if m.sess == nil {
		// Logged out while the refresh was in flight; discard the result.
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.sess.Tokens.AccessToken = access
	m.sess.ExpiresAt = m.computeExpiry(access, now)
	m.armRefreshTimerLocked()
	snapshot := *m.sess
	m.mu.Unlock()

	if err := m.store.Save(&snapshot); err != nil {
		m.logger.Warn().Err(err).Msg("persist session after refresh")
	}
	m.logger.Debug().Time("expiry", snapshot.ExpiresAt).Msg("access token refreshed")
	return nil
}

// Load restores a persisted session at process start. An absent, expired,
// or unreadable record yields false without any network call; expired and
// unreadable records are cleared. A restored record is then verified
// against the backend's profile endpoint; server-side rejection clears the
// session even though the local expiry had not elapsed.
func (m *Manager) Load(ctx context.Context) bool {
	rec, err := m.store.Load()
	if err != nil {
		m.logger.Warn().Err(err).Msg("stored session unreadable, clearing")
		if cerr := m.store.Clear(); cerr != nil {
			m.logger.Warn().Err(cerr).Msg("clear session store")
		}
		return false
	}
	if rec == nil {
		return false
	}
	if !rec.Live(m.now()) {
		if err := m.store.Clear(); err != nil {
			m.logger.Warn().Err(err).Msg("clear expired session")
		}
		return false
	}

	m.mu.Lock()
	m.sess = rec
	m.armRefreshTimerLocked()
	m.mu.Unlock()

	user, err := m.backend.Profile(ctx)
	if err != nil {
		m.logger.Info().Err(err).Msg("restored session rejected by backend")
		m.clear("Your session is no longer valid. Please sign in again.")
		return false
	}

	m.mu.Lock()
	if m.sess == nil {
		m.mu.Unlock()
		return false
	}
	m.sess.User = *user
	snapshot := *m.sess
	m.mu.Unlock()

	if err := m.store.Save(&snapshot); err != nil {
		m.logger.Warn().Err(err).Msg("persist session after restore")
	}
	return true
}

// Clear drops the session from memory and durable storage without
// contacting the backend. Clearing an already-cleared session is a no-op.
func (m *Manager) Clear() {
	m.clear("")
}

func (m *Manager) clear(notice string) {
	m.mu.Lock()
	had := m.sess != nil
	m.sess = nil
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("clear session store")
	}
	if had && notice != "" {
		m.notifier.Info(notice)
	}
}

// Token returns the current access token, or "" when logged out. It is the
// token source for outbound authenticated requests.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.Tokens.AccessToken
}

// Current returns a copy of the authenticated user, or nil when logged out.
func (m *Manager) Current() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	u := m.sess.User
	return &u
}

func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// ExpiresAt returns the current session expiry, zero when logged out.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return time.Time{}
	}
	return m.sess.ExpiresAt
}

// computeExpiry estimates when the session ends: now plus the configured
// lifetime, pulled in to the access token's own exp claim when the token is
// a JWT expiring sooner.
func (m *Manager) computeExpiry(accessToken string, now time.Time) time.Time {
	base := now.Add(m.opts.Lifetime)
	if exp, ok := tokenExpiry(accessToken); ok && exp.After(now) && exp.Before(base) {
		return exp
	}
	return base
}

// armRefreshTimerLocked (re)schedules the proactive refresh. The previous
// timer is always cancelled first, so a stale timer tied to a superseded
// expiry never fires. Callers must hold m.mu.
func (m *Manager) armRefreshTimerLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	if m.sess == nil {
		return
	}
	d := m.sess.ExpiresAt.Sub(m.now()) - m.opts.RefreshLeeway
	if d < 0 {
		d = 0
	}
	expiry := m.sess.ExpiresAt
	m.refreshTimer = time.AfterFunc(d, func() {
		m.mu.Lock()
		superseded := m.sess == nil || !m.sess.ExpiresAt.Equal(expiry)
		m.mu.Unlock()
		if superseded {
			return
		}
		if err := m.Refresh(context.Background()); err != nil {
			m.logger.Warn().Err(err).Msg("proactive refresh failed")
		}
	})
}

// watchExpiry forces a logout the moment wall-clock time crosses the
// session expiry, independent of the proactive timer.
func (m *Manager) watchExpiry() {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopPoll:
			return
		case <-ticker.C:
			m.mu.Lock()
			expired := m.sess != nil && !m.now().Before(m.sess.ExpiresAt)
			m.mu.Unlock()
			if expired {
				m.clear("Your session has expired. Please sign in again.")
			}
		}
	}
}
