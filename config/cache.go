package config

import "fmt"

// Cache driver names.
const (
	CacheDriverSQLite   = "sqlite"
	CacheDriverPostgres = "postgres"
	CacheDriverMemory   = "memory"
)

// CacheConfig selects the durable local cache backend. SQLite is the default
// device-local store; postgres serves shared or server-rendered deployments;
// memory is for tests and throwaway sessions.
type CacheConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

func (c *CacheConfig) Validate() error {
	switch c.Driver {
	case CacheDriverSQLite, CacheDriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("cache.dsn is required for driver %q", c.Driver)
		}
	case CacheDriverMemory:
	default:
		return fmt.Errorf("unknown cache.driver: %q", c.Driver)
	}
	return nil
}
