package config

import (
	"reflect"
	"strings"
	"sync"
)

// EnvMapping represents a mapping between environment variable and config path
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var (
	cachedMappings []EnvMapping
	mappingsOnce   sync.Once
)

// GenerateEnvMappings generates environment variable mappings from config struct tags.
// A struct field carrying an `env` tag prefixes the tags of its children, so
// Database.Primary.Host maps to DB_PRIMARY_HOST.
func GenerateEnvMappings() []EnvMapping {
	mappingsOnce.Do(func() {
		cachedMappings = extractMappings(reflect.TypeOf(Config{}), "", "")
	})
	return cachedMappings
}

func extractMappings(t reflect.Type, pathPrefix, envPrefix string) []EnvMapping {
	var mappings []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		configPath := koanfTag
		if pathPrefix != "" {
			configPath = pathPrefix + "." + koanfTag
		}
		envVar := ""
		if envTag := field.Tag.Get("env"); envTag != "" && envTag != "-" {
			envVar = envPrefix + envTag
		}
		if isNestedStruct(field.Type) {
			childPrefix := envPrefix
			if envVar != "" {
				childPrefix = envVar + "_"
			}
			mappings = append(mappings, extractMappings(field.Type, configPath, childPrefix)...)
			continue
		}
		if envVar != "" {
			mappings = append(mappings, EnvMapping{EnvVar: envVar, ConfigPath: configPath})
		}
	}
	return mappings
}

func isNestedStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() != "time"
}

// GenerateEnvToConfigMap generates a map from env var to config path
func GenerateEnvToConfigMap() map[string]string {
	mappings := GenerateEnvMappings()
	result := make(map[string]string, len(mappings))
	for _, m := range mappings {
		result[m.EnvVar] = m.ConfigPath
	}
	return result
}

// GetEnvVarForConfigPath returns the environment variable for a given config path
func GetEnvVarForConfigPath(configPath string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == configPath {
			return m.EnvVar
		}
	}
	return ""
}

// IsSensitiveConfigPath checks if a config path is marked as sensitive
func IsSensitiveConfigPath(configPath string) bool {
	return checkSensitiveField(reflect.TypeOf(Config{}), strings.Split(configPath, "."))
}

func checkSensitiveField(t reflect.Type, pathParts []string) bool {
	if len(pathParts) == 0 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("koanf") != pathParts[0] {
			continue
		}
		if len(pathParts) == 1 {
			if field.Type == reflect.TypeOf(SensitiveString("")) {
				return true
			}
			return field.Tag.Get("sensitive") == "true"
		}
		if isNestedStruct(field.Type) {
			return checkSensitiveField(field.Type, pathParts[1:])
		}
	}
	return false
}
