package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/msgboard/msgboard/pkg/config/definition"
	"gopkg.in/yaml.v3"
)

// cliProvider exposes changed CLI flags as a configuration source.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider creates a source from flag name to value pairs. Only flags
// declared in the field registry are mapped; the rest are ignored.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{flags: flags}
}

func (c *cliProvider) Load() (map[string]any, error) {
	config := make(map[string]any)
	if len(c.flags) == 0 {
		return config, nil
	}
	flagToPath := definition.CreateRegistry().GetCLIFlagMapping()
	for key, value := range c.flags {
		path, ok := flagToPath[key]
		if !ok {
			continue
		}
		if err := setNested(config, path, value); err != nil {
			return nil, fmt.Errorf("failed to set CLI flag %s: %w", key, err)
		}
	}
	return config, nil
}

func (c *cliProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

func (c *cliProvider) Close() error {
	return nil
}

// setNested sets a value in a nested map using dot notation.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

// yamlProvider reads a YAML file and reloads it on change.
type yamlProvider struct {
	path      string
	watcher   *Watcher
	watcherMu sync.Mutex
	watchOnce sync.Once
	closeOnce sync.Once
}

// NewYAMLProvider creates a new YAML file configuration source.
// A missing file yields an empty source.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return filterNilValues(config), nil
}

// filterNilValues drops nil leaves so empty YAML keys don't clobber defaults.
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if filtered := filterNilValues(nested); len(filtered) > 0 {
				result[k] = filtered
			}
			continue
		}
		result[k] = v
	}
	return result
}

func (y *yamlProvider) Watch(ctx context.Context, callback func()) error {
	if _, err := os.Stat(y.path); err != nil {
		return fmt.Errorf("cannot watch %s: %w", y.path, err)
	}
	var watchErr error
	y.watchOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()
		watcher, err := NewWatcher()
		if err != nil {
			watchErr = fmt.Errorf("failed to create watcher: %w", err)
			return
		}
		if err := watcher.Watch(ctx, y.path); err != nil {
			_ = watcher.Close()
			watchErr = fmt.Errorf("failed to watch YAML file: %w", err)
			return
		}
		y.watcher = watcher
	})
	if watchErr != nil {
		return watchErr
	}
	y.watcherMu.Lock()
	defer y.watcherMu.Unlock()
	if y.watcher != nil {
		y.watcher.OnChange(callback)
	}
	return nil
}

func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

func (y *yamlProvider) Close() error {
	var closeErr error
	y.closeOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()
		if y.watcher != nil {
			if err := y.watcher.Close(); err != nil {
				closeErr = fmt.Errorf("failed to close watcher: %w", err)
			}
			y.watcher = nil
		}
	})
	return closeErr
}
