package config

import (
	"fmt"
	"net/url"
	"time"
)

// RemoteConfig describes the authoritative commerce backend. Token is the
// bearer credential attached to every call when present; guests carry none.
type RemoteConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *RemoteConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("remote.baseurl is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid remote.baseurl: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid remote.timeout: %v", c.Timeout)
	}
	return nil
}
