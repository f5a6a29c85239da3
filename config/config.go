// Package config defines the configuration surface of the sync engine. Every
// section carries koanf tags for the loader and validates itself.
package config

import (
	"fmt"
	"strings"

	"github.com/acmeware/shopsync/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config is the root configuration passed explicitly to the gateway,
// orchestrator and materializer constructors. There are no lazily constructed
// globals; the struct is built once and handed down.
type Config struct {
	Remote         RemoteConfig         `koanf:"remote"`
	Cache          CacheConfig          `koanf:"cache"`
	Checkout       CheckoutConfig       `koanf:"checkout"`
	Log            LogConfig            `koanf:"log"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
	Nats           NATSConfig           `koanf:"nats"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Remote Gateway ---\n")
	b.WriteString(fmt.Sprintf("  remote.baseurl: %s\n", c.Remote.BaseURL))
	b.WriteString(fmt.Sprintf("  remote.token: %s\n", maskSecret(c.Remote.Token)))
	b.WriteString(fmt.Sprintf("  remote.timeout: %v\n", c.Remote.Timeout))

	b.WriteString("\n--- Local Cache ---\n")
	b.WriteString(fmt.Sprintf("  cache.driver: %s\n", c.Cache.Driver))
	b.WriteString(fmt.Sprintf("  cache.dsn: %s\n", maskDSN(c.Cache.DSN)))

	b.WriteString("\n--- Checkout ---\n")
	b.WriteString(fmt.Sprintf("  checkout.taxrate: %v\n", c.Checkout.TaxRate))
	b.WriteString(fmt.Sprintf("  checkout.freeshippingthreshold: %v\n", c.Checkout.FreeShippingThreshold))
	b.WriteString(fmt.Sprintf("  checkout.shippingfee: %v\n", c.Checkout.ShippingFee))

	b.WriteString("\n--- Resilience ---\n")
	b.WriteString(fmt.Sprintf("  circuitbreaker.consecutivefailures: %d\n", c.CircuitBreaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  circuitbreaker.errorratepercent: %d\n", c.CircuitBreaker.ErrorRatePercent))
	b.WriteString(fmt.Sprintf("  circuitbreaker.opentimeout: %v\n", c.CircuitBreaker.OpenTimeout))

	b.WriteString("\n--- Observability & Messaging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  nats.url: %s\n", c.Nats.Url))
	b.WriteString(fmt.Sprintf("  nats.timeout: %v\n", c.Nats.Timeout))

	return b.String()
}

func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "<not configured>"
	}
	// Mask credentials embedded in a URL-style DSN.
	parts := strings.Split(dsn, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return dsn
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Checkout.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.CircuitBreaker.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	return nil
}
