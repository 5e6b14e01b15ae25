package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// identifierPattern matches router names and database aliases:
// lowercase, starting with a letter, at most 63 characters.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("router_name", validateIdentifier); err != nil {
		return err
	}
	return v.RegisterValidation("db_alias", validateIdentifier)
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}
