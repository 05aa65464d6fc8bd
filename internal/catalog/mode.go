package catalog

import (
	"log/slog"
	"sync"

	"github.com/shelfdesk/shelfdesk/internal/store"
)

// flagKey is the persisted mode flag. True selects the local backend.
const flagKey = "useLocalStorage"

// Mode is the process-wide selector between the local store and the remote
// API. The flag persists across restarts. The default is remote; with no
// remote endpoint configured it is local.
type Mode struct {
	store  *store.Store
	logger *slog.Logger

	mu       sync.Mutex
	local    bool
	onChange []func()
}

// NewMode loads the persisted mode flag, falling back to the default
// implied by whether a remote endpoint exists.
func NewMode(s *store.Store, haveRemote bool, logger *slog.Logger) *Mode {
	if logger == nil {
		logger = slog.Default()
	}
	local := !haveRemote
	if v, ok := s.GetFlag(flagKey); ok {
		local = v
	}
	return &Mode{store: s, logger: logger, local: local}
}

// UseLocal reports whether operations target the local backend.
func (m *Mode) UseLocal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local
}

// SetLocal switches backends for all entities at once, persists the flag
// and fires the registered reload hooks so consuming views rebuild their
// state under the newly selected backend.
func (m *Mode) SetLocal(local bool) error {
	m.mu.Lock()
	if m.local == local {
		m.mu.Unlock()
		return nil
	}
	m.local = local
	err := m.store.SetFlag(flagKey, local)
	hooks := make([]func(), len(m.onChange))
	copy(hooks, m.onChange)
	m.mu.Unlock()

	m.logger.Info("backend mode changed", "local", local)
	for _, fn := range hooks {
		fn()
	}
	return err
}

// Toggle flips the mode flag.
func (m *Mode) Toggle() error {
	return m.SetLocal(!m.UseLocal())
}

// OnChange registers a hook fired after every mode switch.
func (m *Mode) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}
