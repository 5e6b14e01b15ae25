package config

import "encoding/json"

const redacted = "[REDACTED]"

// SensitiveString holds a secret that must never reach logs or API responses.
type SensitiveString string

// String redacts non-empty values.
func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// Value returns the underlying secret.
func (s SensitiveString) Value() string {
	return string(s)
}

// MarshalJSON redacts non-empty values.
func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads the plain secret.
func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SensitiveString(raw)
	return nil
}

// MarshalYAML redacts non-empty values.
func (s SensitiveString) MarshalYAML() (any, error) {
	return s.String(), nil
}
