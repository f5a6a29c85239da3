package config

import (
	"fmt"
	"time"
)

// NATSConfig points at the broker used for advisory notifications. Optional:
// with an empty URL the library publishes nothing.
type NATSConfig struct {
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *NATSConfig) Validate() error {
	if c.Url == "" {
		return nil
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid nats.timeout: %v", c.Timeout)
	}
	return nil
}
