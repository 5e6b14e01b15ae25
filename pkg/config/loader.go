package config

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// loader implements the Service interface on top of koanf.
type loader struct {
	koanf          *koanf.Koanf
	validator      *validator.Validate
	metadata       Metadata
	metadataMu     sync.RWMutex
	currentConfig  atomic.Value // stores *Config
	watchCallbacks []func(*Config)
	callbackMu     sync.RWMutex
}

// sensitiveStringDecodeHook converts strings to SensitiveString.
func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

// NewService creates a new configuration service with validation support.
func NewService() Service {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		panic(fmt.Sprintf("config: register validators: %v", err))
	}
	return &loader{
		koanf:     koanf.New("."),
		validator: v,
		metadata: Metadata{
			Sources: make(map[string]SourceType),
		},
		watchCallbacks: make([]func(*Config), 0),
	}
}

// Load loads configuration with the precedence defaults < sources (in order) < environment.
func (l *loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.reset()
	if err := l.loadDefaults(); err != nil {
		return nil, err
	}
	if err := l.loadSources(sources); err != nil {
		return nil, err
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	config, err := l.unmarshalAndValidate()
	if err != nil {
		return nil, err
	}
	l.currentConfig.Store(config)
	l.notify(config)
	return config, nil
}

func (l *loader) reset() {
	l.koanf = koanf.New(".")
	l.metadataMu.Lock()
	l.metadata.Sources = make(map[string]SourceType)
	l.metadata.LoadedAt = time.Now()
	l.metadataMu.Unlock()
}

func (l *loader) loadDefaults() error {
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}
	for _, key := range l.koanf.Keys() {
		l.trackSource(key, SourceDefault)
	}
	return nil
}

// transformEnvKey converts an environment variable name to a koanf path,
// e.g. BOARD_PAGE_SIZE -> board.page_size.
func transformEnvKey(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_'
	})
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// loadEnvironment applies environment variables. Variables declared through
// `env` struct tags map to their paths; anything else is only accepted when it
// names an existing key, so unrelated variables like PATH never leak in.
func (l *loader) loadEnvironment() error {
	before := l.snapshot()
	envToPath := GenerateEnvToConfigMap()
	if err := l.koanf.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key string, value string) (string, any) {
			if path, ok := envToPath[key]; ok {
				return path, value
			}
			path := transformEnvKey(key)
			if _, known := before[path]; known {
				return path, value
			}
			return "", nil
		},
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	l.trackChanges(before, SourceEnv)
	return nil
}

func (l *loader) loadSources(sources []Source) error {
	for _, source := range sources {
		if source == nil || source.Type() == SourceEnv {
			continue
		}
		if err := l.loadSource(source); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) loadSource(source Source) error {
	data, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load from source %s: %w", source.Type(), err)
	}
	if len(data) == 0 {
		return nil
	}
	before := l.snapshot()
	if source.Type() == SourceYAML {
		// Set leaf keys one by one so a partial file keeps sibling defaults.
		for key, value := range flattenMap("", data) {
			if err := l.koanf.Set(key, value); err != nil {
				return fmt.Errorf("failed to set key %s from source %s: %w", key, source.Type(), err)
			}
		}
	} else if err := l.koanf.Load(rawMap(data), nil); err != nil {
		return fmt.Errorf("failed to apply source %s: %w", source.Type(), err)
	}
	l.trackChanges(before, source.Type())
	return nil
}

func (l *loader) snapshot() map[string]any {
	out := make(map[string]any)
	for _, key := range l.koanf.Keys() {
		out[key] = l.koanf.Get(key)
	}
	return out
}

func (l *loader) trackChanges(before map[string]any, source SourceType) {
	for _, key := range l.koanf.Keys() {
		prev, existed := before[key]
		if !existed || !reflect.DeepEqual(prev, l.koanf.Get(key)) {
			l.trackSource(key, source)
		}
	}
}

// flattenMap flattens a nested map into dot-notation keys
func flattenMap(prefix string, m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for fk, fv := range flattenMap(key, nested) {
				result[fk] = fv
			}
			continue
		}
		result[key] = v
	}
	return result
}

func (l *loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.koanf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				sensitiveStringDecodeHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Watch registers a callback invoked after every successful Load.
func (l *loader) Watch(_ context.Context, callback func(*Config)) error {
	if callback == nil {
		return fmt.Errorf("callback cannot be nil")
	}
	l.callbackMu.Lock()
	l.watchCallbacks = append(l.watchCallbacks, callback)
	l.callbackMu.Unlock()
	return nil
}

func (l *loader) notify(config *Config) {
	l.callbackMu.RLock()
	callbacks := slices.Clone(l.watchCallbacks)
	l.callbackMu.RUnlock()
	for _, callback := range callbacks {
		callback(config)
	}
}

// Validate checks struct tags first, then cross-field rules.
func (l *loader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := l.validator.Struct(config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := validateCustom(config); err != nil {
		return fmt.Errorf("custom validation failed: %w", err)
	}
	return nil
}

// GetSource returns the source type for a specific configuration key.
func (l *loader) GetSource(key string) SourceType {
	l.metadataMu.RLock()
	defer l.metadataMu.RUnlock()
	if source, ok := l.metadata.Sources[key]; ok {
		return source
	}
	return SourceDefault
}

func (l *loader) trackSource(key string, source SourceType) {
	l.metadataMu.Lock()
	defer l.metadataMu.Unlock()
	l.metadata.Sources[key] = source
}

func validateCustom(config *Config) error {
	db := &config.Database
	if _, ok := db.Node(db.DefaultAlias); !ok {
		return fmt.Errorf("database default_alias %q is not a configured alias %v", db.DefaultAlias, db.Aliases())
	}
	for _, alias := range db.Aliases() {
		node, _ := db.Node(alias)
		if err := validateNode(db.Driver, alias, &node); err != nil {
			return err
		}
	}
	for _, rate := range []RateConfig{config.RateLimit.GlobalRate, config.RateLimit.PostRate} {
		if rate.Limit > 0 && rate.Period <= 0 {
			return fmt.Errorf("rate limit period must be positive when a limit is set")
		}
	}
	if config.Monitoring.Enabled && !strings.HasPrefix(config.Monitoring.Path, "/") {
		return fmt.Errorf("monitoring path must start with '/'")
	}
	return nil
}

func validateNode(driver, alias string, node *NodeConfig) error {
	switch driver {
	case DriverSQLite:
		if node.Path == "" {
			return fmt.Errorf("database %s: sqlite path is required", alias)
		}
	case DriverPostgres:
		if node.ConnString != "" {
			return nil
		}
		if node.Host == "" || node.Port == "" || node.User == "" || node.DBName == "" {
			return fmt.Errorf("database %s configuration incomplete: either conn_string or individual components required", alias)
		}
	}
	return nil
}

// rawMap adapts plain map data to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
