package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct tags of cfg and reports the first failing
// field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("invalid config: %s failed on '%s' (value: %v)", e.Field(), e.Tag(), e.Value())
	}
	return fmt.Errorf("invalid config: %w", err)
}
