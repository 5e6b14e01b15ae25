package config

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/msgboard/msgboard/pkg/logger"
)

const defaultDebounce = 100 * time.Millisecond

// Manager holds the active configuration and reloads it when a source changes.
type Manager struct {
	Service     Service
	current     atomic.Pointer[Config]
	sources     []Source
	callbacks   []func(*Config)
	callbackMu  sync.RWMutex
	reloadMu    sync.Mutex
	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
	closeOnce   sync.Once
	debounce    time.Duration
	timerMu     sync.Mutex
	timer       *time.Timer
}

// NewManager creates a new configuration manager.
func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:   service,
		callbacks: make([]func(*Config), 0),
		debounce:  defaultDebounce,
	}
}

// Load loads configuration from sources and starts watching those that support it.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.reloadMu.Unlock()

	config, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.applyConfig(config)

	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchCtx, m.watchCancel = context.WithCancel(context.WithoutCancel(ctx))
	m.startWatching(sources)
	return config, nil
}

// Sources returns a copy of the currently configured sources.
func (m *Manager) Sources() []Source {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	return append([]Source{}, m.sources...)
}

// Get returns the current configuration, or nil before the first Load.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Reload forces a configuration reload from all sources. A failed reload
// keeps the previous configuration.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	newConfig, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.applyConfig(newConfig)
	return nil
}

// SetDebounce sets how long file events are coalesced before reloading.
// Must be called before Load.
func (m *Manager) SetDebounce(duration time.Duration) {
	m.debounce = duration
}

// OnChange registers a callback invoked whenever the configuration changes.
func (m *Manager) OnChange(callback func(*Config)) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Close stops watching and releases all sources.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.watchWg.Wait()
		m.timerMu.Lock()
		if m.timer != nil {
			m.timer.Stop()
		}
		m.timerMu.Unlock()
		for _, source := range m.Sources() {
			if source == nil {
				continue
			}
			if err := source.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}

func (m *Manager) startWatching(sources []Source) {
	ctx := m.watchCtx
	for _, source := range sources {
		if source == nil {
			continue
		}
		src := source
		m.watchWg.Add(1)
		go func() {
			defer m.watchWg.Done()
			if err := src.Watch(ctx, func() { m.scheduleReload(ctx) }); err != nil {
				logger.FromContext(ctx).Debug("configuration source not watched", "source", src.Type(), "error", err)
			}
		}()
	}
}

// scheduleReload coalesces bursts of file events into a single reload.
func (m *Manager) scheduleReload(ctx context.Context) {
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		if err := m.Reload(ctx); err != nil {
			logger.FromContext(ctx).Error("failed to reload configuration", "error", err)
			return
		}
		logger.FromContext(ctx).Info("configuration reloaded")
	}
	if m.debounce <= 0 {
		reload()
		return
	}
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, reload)
}

func (m *Manager) applyConfig(config *Config) {
	old := m.current.Swap(config)
	if old != nil && configEqual(old, config) {
		return
	}
	m.callbackMu.RLock()
	callbacks := slices.Clone(m.callbacks)
	m.callbackMu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback(config)
		}
	}
}

func configEqual(a, b *Config) bool {
	return reflect.DeepEqual(a, b)
}
