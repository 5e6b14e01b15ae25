package config

import (
	"context"
	"sync"

	"github.com/msgboard/msgboard/pkg/logger"
)

// ContextKey is the type of keys this package stores in a context.
type ContextKey string

const (
	// ManagerCtxKey is the context key used to store the *Manager instance
	ManagerCtxKey ContextKey = "config_manager"
)

// ContextWithManager stores the configuration manager in the context
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ManagerCtxKey, m)
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// ManagerFromContext retrieves the configuration manager from the context,
// falling back to a lazily loaded manager with defaults and environment only.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, ok := ctx.Value(ManagerCtxKey).(*Manager); ok && m != nil {
			return m
		}
	}
	return getDefaultManager()
}

// FromContext returns the active configuration for the provided context.
// It never returns nil.
func FromContext(ctx context.Context) *Config {
	if cfg := ManagerFromContext(ctx).Get(); cfg != nil {
		return cfg
	}
	return Default()
}

func getDefaultManager() *Manager {
	defaultManagerOnce.Do(func() {
		ctx := context.Background()
		m := NewManager(NewService())
		if _, err := m.Load(ctx); err != nil {
			logger.FromContext(ctx).Warn("failed to load default configuration, using fallback defaults", "error", err)
		}
		defaultManager = m
	})
	return defaultManager
}
