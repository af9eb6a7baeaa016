// internal/config/model.go
//
// Typed configuration model for the storefront scoping service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers: optional
// `.env` dotenv values, `conf/global.yaml`, and `STOREFRONT_`-prefixed
// environment overrides (highest precedence).
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml`
//     tags unless configured otherwise.
//   - The `Paths` block is filled at runtime; YAML must not try to set it.
//   - Oxford commas, two spaces after periods.
package config

import "time"

//
// HTTP section
//

// HTTP holds the ops endpoint tunables (/metrics, /healthz).
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Database section
//

// Database holds the control-plane DSN.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Cache section
//

// Redis holds connection settings for the distributed cache backend.
// Addr is only required when Cache.Backend is "redis".
type Redis struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// Cache selects and tunes the cache backend.  TTL zero means entries live
// until explicitly invalidated.
type Cache struct {
	Backend string        `koanf:"backend" validate:"required,oneof=memory redis"`
	TTL     time.Duration `koanf:"ttl"`
	Redis   Redis         `koanf:"redis"`
}

//
// Scope section
//

// Scope holds the deployment-wide filter switches.  Either flag disables
// its listing filter dimension for every call.
type Scope struct {
	IgnoreACL           bool `koanf:"ignore_acl"`
	IgnoreTenantScoping bool `koanf:"ignore_tenant_scoping"`
}

//
// Events section
//

// Events tunes the in-process entity-changed bus.
type Events struct {
	Buffer int `koanf:"buffer"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or STOREFRONT_ROOT override) so later code
// can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Scope    Scope    `koanf:"scope"`
	Events   Events   `koanf:"events"`
	Paths    Paths    `koanf:"-"`
}
