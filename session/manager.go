// Package session resolves who is acting: a signed-in provider identity, a locally chosen
// display name, or nobody yet. Only the first two may write.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/postfeed/overlay"
	"github.com/cppla/postfeed/utils"
)

// State is the identity state of the profile.
type State int

const (
	Unresolved State = iota
	AnonymousNamed
	Authenticated
)

func (s State) String() string {
	switch s {
	case AnonymousNamed:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unresolved"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Scope selects what sign-out wipes.
type Scope string

const (
	// ScopeAll wipes the whole profile, overlay included.
	ScopeAll Scope = "all"
	// ScopeIdentity wipes the chosen name and session token only.
	ScopeIdentity Scope = "identity"
)

// ParseScope maps configuration to a Scope; anything unknown is ScopeAll.
func ParseScope(v string) Scope {
	if strings.EqualFold(strings.TrimSpace(v), string(ScopeIdentity)) {
		return ScopeIdentity
	}
	return ScopeAll
}

var (
	ErrEmptyName     = errors.New("display name cannot be empty")
	ErrAuthenticated = errors.New("signed in: the provider name is used")
)

// Invalidator drops cached remote data.
type Invalidator interface {
	Invalidate()
}

// Options configures session tokens and sign-out behaviour.
type Options struct {
	Secret       []byte
	TTL          time.Duration
	SignOutScope Scope
}

// Status is a snapshot of the identity.
type Status struct {
	State    State  `json:"state"`
	Username string `json:"username,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Manager is the identity state machine of one profile.
type Manager struct {
	store *overlay.Store
	cache Invalidator
	opts  Options
	log   *zap.Logger

	now func() time.Time

	mu       sync.RWMutex
	resolved bool
	state    State
	username string
	provider string
	// expiresAt is the session token expiry while Authenticated.
	expiresAt time.Time
}

// NewManager creates a Manager in the Unresolved state. cache may be nil.
func NewManager(store *overlay.Store, cache Invalidator, opts Options, logger *zap.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	if opts.SignOutScope == "" {
		opts.SignOutScope = ScopeAll
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, cache: cache, opts: opts, log: logger.Named("session"), now: time.Now}
}

// Resolve determines the identity once; later calls return the current status.
// A valid stored session wins over the chosen name and refreshes it.
func (m *Manager) Resolve(ctx context.Context) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveLocked(ctx)
	m.expireLocked(ctx)
	return m.statusLocked()
}

func (m *Manager) resolveLocked(ctx context.Context) {
	if m.resolved {
		return
	}
	m.resolved = true

	if token := m.store.SessionToken(ctx); token != "" {
		claims, err := utils.ParseToken(m.opts.Secret, token)
		if err == nil && strings.TrimSpace(claims.Username) != "" {
			m.state = Authenticated
			m.username = claims.Username
			m.provider = claims.Provider
			if claims.ExpiresAt != nil {
				m.expiresAt = claims.ExpiresAt.Time
			}
			m.store.SetUsername(ctx, claims.Username)
			return
		}
		m.log.Info("stored session rejected", zap.Error(err))
		m.store.ClearSessionToken(ctx)
	}

	if name := strings.TrimSpace(m.store.Username(ctx)); name != "" {
		m.state = AnonymousNamed
		m.username = name
	}
}

// ChooseName sets the local display name. It is refused while signed in.
func (m *Manager) ChooseName(ctx context.Context, name string) (Status, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Status{}, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveLocked(ctx)
	m.expireLocked(ctx)
	if m.state == Authenticated {
		return m.statusLocked(), ErrAuthenticated
	}
	m.store.SetUsername(ctx, name)
	m.state = AnonymousNamed
	m.username = name
	m.provider = ""
	m.expiresAt = time.Time{}
	return m.statusLocked(), nil
}

// SignInWithProvider starts an authenticated session from a provider profile. The display
// name is the first non-empty of name, email and subject.
func (m *Manager) SignInWithProvider(ctx context.Context, provider string, p Profile) (Status, error) {
	name := p.DisplayName()
	if name == "" {
		return Status{}, ErrEmptyName
	}
	token, err := utils.GenerateToken(m.opts.Secret, name, provider, p.Subject, m.opts.TTL)
	if err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.SetSessionToken(ctx, token)
	m.store.SetUsername(ctx, name)
	m.resolved = true
	m.state = Authenticated
	m.username = name
	m.provider = provider
	m.expiresAt = m.now().Add(m.opts.TTL)
	m.log.Info("signed in", zap.String("provider", provider), zap.String("username", name))
	return m.statusLocked(), nil
}

// SignOut returns to Unresolved and drops the chosen identity and the cached collection.
// With ScopeAll the whole overlay is wiped as well.
func (m *Manager) SignOut(ctx context.Context) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.SignOutScope == ScopeIdentity {
		m.store.ClearIdentity(ctx)
	} else {
		m.store.Clear(ctx)
	}
	if m.cache != nil {
		m.cache.Invalidate()
	}
	m.log.Info("signed out", zap.String("username", m.username), zap.String("scope", string(m.opts.SignOutScope)))

	m.resolved = true
	m.state = Unresolved
	m.username = ""
	m.provider = ""
	m.expiresAt = time.Time{}
	return m.statusLocked()
}

// Username returns the acting username; ok is false while Unresolved.
func (m *Manager) Username() (string, bool) {
	st := m.Status()
	if st.State == Unresolved {
		return "", false
	}
	return st.Username, true
}

// Status returns the current identity without resolving it. An Authenticated session whose
// token expired is downgraded to AnonymousNamed under the same name.
func (m *Manager) Status() Status {
	m.mu.RLock()
	if !m.expiredLocked() {
		defer m.mu.RUnlock()
		return m.statusLocked()
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked(context.Background())
	return m.statusLocked()
}

func (m *Manager) expiredLocked() bool {
	return m.state == Authenticated && !m.expiresAt.IsZero() && !m.now().Before(m.expiresAt)
}

// expireLocked drops an expired session token and keeps its name as the chosen one.
func (m *Manager) expireLocked(ctx context.Context) {
	if !m.expiredLocked() {
		return
	}
	m.store.ClearSessionToken(ctx)
	m.log.Info("session expired", zap.String("username", m.username), zap.Time("expires_at", m.expiresAt))
	m.state = AnonymousNamed
	m.provider = ""
	m.expiresAt = time.Time{}
}

func (m *Manager) statusLocked() Status {
	return Status{State: m.state, Username: m.username, Provider: m.provider}
}
