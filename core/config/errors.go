package config

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is matched by every ConfigurationError raised for an absent secret.
var ErrMissingCredential = errors.New("missing credential")

// ConfigurationError reports a required setting that is absent or unusable.
// The process must not start serving when Load returns one.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
