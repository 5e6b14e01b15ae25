package definition

import (
	"reflect"
	"sort"
)

// FieldDef declares one configuration key: where it lives, its default, and
// how it surfaces on the command line and in the environment.
type FieldDef struct {
	Path      string // dotted koanf path, e.g. "database.primary.path"
	Default   any
	CLIFlag   string // empty when the key has no flag
	Shorthand string
	EnvVar    string
	Type      reflect.Type // drives flag registration
	Help      string
}

// Registry indexes field definitions by path.
type Registry struct {
	fields map[string]FieldDef
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]FieldDef)}
}

// Register adds or replaces the definition at field.Path.
func (r *Registry) Register(field *FieldDef) {
	r.fields[field.Path] = *field
}

// GetDefault returns the default for path, or nil for unknown paths.
func (r *Registry) GetDefault(path string) any {
	return r.fields[path].Default
}

// GetCLIFlagMapping maps flag names to config paths.
func (r *Registry) GetCLIFlagMapping() map[string]string {
	mapping := make(map[string]string)
	for _, field := range r.FlagFields() {
		mapping[field.CLIFlag] = field.Path
	}
	return mapping
}

// FlagFields returns the fields exposed as CLI flags ordered by flag name.
func (r *Registry) FlagFields() []FieldDef {
	out := make([]FieldDef, 0, len(r.fields))
	for _, field := range r.fields {
		if field.CLIFlag != "" {
			out = append(out, field)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CLIFlag < out[j].CLIFlag })
	return out
}
