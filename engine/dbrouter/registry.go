package dbrouter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in policy names accepted in configuration.
const (
	PolicyReplica = "replica"
	PolicyPinned  = "pinned"
)

// ErrUnknownPolicy is returned when configuration names a policy that was
// never registered.
var ErrUnknownPolicy = errors.New("unknown routing policy")

// FactoryOptions carries configuration available to policy factories.
type FactoryOptions struct {
	PinnedModels []string
}

// Factory builds a policy from configuration.
type Factory func(opts FactoryOptions) (Policy, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		PolicyReplica: func(FactoryOptions) (Policy, error) {
			return ReplicaPolicy{}, nil
		},
		PolicyPinned: func(opts FactoryOptions) (Policy, error) {
			models := make([]Model, 0, len(opts.PinnedModels))
			for _, m := range opts.PinnedModels {
				if trimmed := strings.TrimSpace(m); trimmed != "" {
					models = append(models, Model(trimmed))
				}
			}
			if len(models) == 0 {
				return nil, fmt.Errorf("pinned policy requires at least one model")
			}
			return NewPinnedPolicy(models...), nil
		},
	}
)

// Register adds or replaces a named policy factory.
func Register(name string, factory Factory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[key] = factory
}

// Registered returns the sorted list of known policy names.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves policy names, in order, into policies.
func Build(names []string, opts FactoryOptions) ([]Policy, error) {
	policies := make([]Policy, 0, len(names))
	for _, raw := range names {
		name := normalizeName(raw)
		if name == "" {
			continue
		}
		factoriesMu.RLock()
		factory, ok := factories[name]
		factoriesMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPolicy, raw, strings.Join(Registered(), ", "))
		}
		policy, err := factory(opts)
		if err != nil {
			return nil, fmt.Errorf("build routing policy %q: %w", name, err)
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PolicyName returns the configuration label for p, falling back to its Go
// type for policies registered outside this package.
func PolicyName(p Policy) string {
	switch p.(type) {
	case ReplicaPolicy, *ReplicaPolicy:
		return PolicyReplica
	case *PinnedPolicy:
		return PolicyPinned
	case *Chain:
		return "chain"
	default:
		return fmt.Sprintf("%T", p)
	}
}
