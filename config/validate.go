package config

import (
	"errors"
	"fmt"
	"strings"
)

var errMissingSecret = errors.New("config: JWTSecret must be set for an exposed gateway")

// Validate checks the loaded configuration for inconsistencies that would
// only surface at request time.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil configuration")
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		return errors.New("config: ListenAddress must not be empty")
	}
	if c.LogFileMaxSizeMB < 0 {
		return fmt.Errorf("config: LogFileMaxSizeMB must not be negative, got %d", c.LogFileMaxSizeMB)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errMissingSecret
	}
	return nil
}
