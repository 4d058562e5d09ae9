package settings

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"shinyhunt.ai/internal/catalog"
)

// ChangeFn observes a reload that changed the configuration.
type ChangeFn func(old, cur Config)

// Manager caches the typed configuration read from a Store.
type Manager struct {
	store Store
	cat   *catalog.Catalog
	log   *zap.Logger

	mu       sync.RWMutex
	cur      Config
	lastErr  string
	onChange []ChangeFn
}

func NewManager(store Store, cat *catalog.Catalog, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, cat: cat, log: log, cur: DefaultConfig()}
}

// Current returns the last loaded configuration.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

func (m *Manager) OnChange(fn ChangeFn) {
	m.mu.Lock()
	m.onChange = append(m.onChange, fn)
	m.mu.Unlock()
}

// Reload reads the store and swaps the cached configuration. Parse problems
// are logged once per distinct message and never fail the reload.
func (m *Manager) Reload(ctx context.Context) error {
	values, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	cfg, perr := Parse(values, m.cat)

	m.mu.Lock()
	old := m.cur
	m.cur = cfg
	logParse := false
	if perr != nil && perr.Error() != m.lastErr {
		m.lastErr = perr.Error()
		logParse = true
	} else if perr == nil {
		m.lastErr = ""
	}
	fns := append([]ChangeFn(nil), m.onChange...)
	m.mu.Unlock()

	if logParse {
		m.log.Warn("settings contain invalid values, defaults kept", zap.Error(perr))
	}
	if !equal(old, cfg) {
		m.log.Debug("settings reloaded", zap.Bool("enabled", cfg.Enabled))
		for _, fn := range fns {
			fn(old, cfg)
		}
	}
	return nil
}

func equal(a, b Config) bool {
	if a.Enabled != b.Enabled ||
		a.UseMasterball != b.UseMasterball ||
		a.AutoAdvanceRoutes != b.AutoAdvanceRoutes ||
		a.DungeonHunt != b.DungeonHunt ||
		a.SafariHunt != b.SafariHunt ||
		a.Tokens != b.Tokens ||
		a.Safari != b.Safari ||
		a.AllowAutoBestRoute != b.AllowAutoBestRoute ||
		a.PreferredDungeon != b.PreferredDungeon ||
		a.MasterballForFarming != b.MasterballForFarming ||
		a.DebugTelemetry != b.DebugTelemetry {
		return false
	}
	if !sameRef(a.TokenFarmRoute, b.TokenFarmRoute) || !sameRef(a.SafariFarmRoute, b.SafariFarmRoute) {
		return false
	}
	if len(a.FallbackBallPriority) != len(b.FallbackBallPriority) {
		return false
	}
	for i := range a.FallbackBallPriority {
		if a.FallbackBallPriority[i] != b.FallbackBallPriority[i] {
			return false
		}
	}
	return true
}

func sameRef(a, b *catalog.RouteRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
