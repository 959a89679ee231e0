package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags and rules that tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if cfg.Google.ClientID != "" && cfg.Google.ClientSecret == "" {
		return fmt.Errorf("google.client_secret is required when google.client_id is set")
	}
	if cfg.Google.ClientSecret != "" && cfg.Google.ClientID == "" {
		return fmt.Errorf("google.client_id is required when google.client_secret is set")
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		if e.Param() != "" {
			return fmt.Errorf("%s: validation failed on '%s=%s' (value: %v)", e.Namespace(), e.Tag(), e.Param(), e.Value())
		}
		return fmt.Errorf("%s: validation failed on '%s' (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
