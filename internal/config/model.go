// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the configuration tree that `loader.go` builds from
// four overlay layers:
//
//   • optional `conf/.env`                 – dotenv values,
//   • `conf/app.yaml`                      – primary static file (optional),
//   • plain hosting variables               – DATABASE_URL, SECRET_KEY, …,
//   • `SERVICII_`-prefixed env overrides    – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through Vault
// before unmarshalling, so the model only ever holds plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import (
	"crypto/hmac"
	"crypto/sha256"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	// BaseURL is the public origin used in sitemap.xml.  Empty means "derive
	// from the request".
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
}

//
// Database section
//

// Database holds the MySQL connection.  DSN accepts both driver form and
// mysql:// URLs.
type Database struct {
	DSN         string `koanf:"dsn"          validate:"required"`
	MaxOpen     int    `koanf:"max_open"     validate:"gte=0"`
	MaxIdle     int    `koanf:"max_idle"     validate:"gte=0"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

//
// Admin and security sections
//

// Admin configures the single shared-password panel.
type Admin struct {
	Password   string `koanf:"password"    validate:"required,notplaceholder"`
	PathPrefix string `koanf:"path_prefix" validate:"required,startswith=/,ne=/admin"`
}

// Security holds the process secret.  Session and CSRF keys are derived
// from SecretKey with distinct labels.
type Security struct {
	SecretKey     string `koanf:"secret_key"     validate:"required,min=16,notplaceholder"`
	SecureCookies bool   `koanf:"secure_cookies"`
}

//
// External services
//

// Geocoder configures the Nominatim-compatible lookup.
type Geocoder struct {
	BaseURL   string        `koanf:"base_url"   validate:"required,url"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
	Timeout   time.Duration `koanf:"timeout"    validate:"gt=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl"  validate:"gte=0"`
	CacheSize int           `koanf:"cache_size" validate:"gte=1"`
}

// Redis is optional; an empty Addr keeps the geocode cache in-process.
type Redis struct {
	Addr     string `koanf:"addr"     validate:"omitempty,hostname_port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"       validate:"gte=0"`
}

// Cloudinary accepts either URL or the three discrete credentials.
type Cloudinary struct {
	URL       string `koanf:"url"        validate:"omitempty,startswith=cloudinary://"`
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	Folder    string `koanf:"folder"     validate:"required"`
}

// Enabled reports whether enough credentials are present to upload.
func (c Cloudinary) Enabled() bool {
	return c.URL != "" || (c.CloudName != "" && c.APIKey != "" && c.APISecret != "")
}

// SMTP configures contact-form delivery.  An empty Host disables sending.
type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"     validate:"gte=0,lte=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"     validate:"required_with=Host"`
	To       string `koanf:"to"       validate:"required_with=Host"`
}

// Enabled reports whether a relay is configured.
func (s SMTP) Enabled() bool { return s.Host != "" }

// GeoIP points at an optional MaxMind country database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

// Log configures the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	Dir   string `koanf:"dir"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SERVICII_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load().
type Config struct {
	HTTP       HTTP       `koanf:"http"`
	Database   Database   `koanf:"database"`
	Admin      Admin      `koanf:"admin"`
	Security   Security   `koanf:"security"`
	Geocoder   Geocoder   `koanf:"geocoder"`
	Redis      Redis      `koanf:"redis"`
	Cloudinary Cloudinary `koanf:"cloudinary"`
	SMTP       SMTP       `koanf:"smtp"`
	GeoIP      GeoIP      `koanf:"geoip"`
	Log        Log        `koanf:"log"`
	Paths      Paths      `koanf:"-"`
}

// Key derives a 32-byte key for label (e.g. "session-hash", "csrf") from
// SecretKey, so one configured secret feeds every signer independently.
func (s Security) Key(label string) []byte {
	m := hmac.New(sha256.New, []byte(s.SecretKey))
	m.Write([]byte(label))
	return m.Sum(nil)
}
