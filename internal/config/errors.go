package config

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a missing setting that prevents one operation from running.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError names the setting an operation needed but did not get.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not configured", e.Setting)
	}
	return fmt.Sprintf("%s: %s", e.Setting, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ErrorKind reports the failure classification used in logs.
func (e *ConfigurationError) ErrorKind() string { return "configuration" }
