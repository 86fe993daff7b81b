// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` from these layers (highest
precedence last):

  1. Built-in defaults.
  2. Optional `.env` file at `<root>/conf/.env`.
  3. `conf/app.yaml`, when present.
  4. Plain hosting variables (`DATABASE_URL`, `ADMIN_PASSWORD`,
     `SECRET_KEY`, `CLOUDINARY_*`, `SMTP_*`) as set by PaaS dashboards.
  5. Environment variables prefixed `SERVICII_`, where `__` maps to "."
     (e.g., `SERVICII_HTTP__LISTEN_ADDR → http.listen_addr`).

String values of the form `vault:<mount>/<path>#<key>` are then resolved
through the supplied SecretResolver.  The merged tree is unmarshalled,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG – root discovery, YAML read.
  • ERROR – YAML parse, env overlay, secret, unmarshal, validation failures.
  • INFO  – final "config loaded" with key highlights.
  • Uses the global sugared logger so early boot issues surface on the
    bootstrap console.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "SERVICII_"
	rootEnv     = "SERVICII_ROOT"
	yamlRelPath = "conf/app.yaml"
	vaultPrefix = "vault:"
)

var current atomic.Pointer[Config]

// SecretResolver fetches one key from a secret store.  *vault.Client
// satisfies it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// defaults are loaded before any file or environment layer.
var defaults = map[string]any{
	"http.listen_addr":      ":8080",
	"database.max_open":     15,
	"database.max_idle":     5,
	"database.auto_migrate": true,
	"admin.path_prefix":     "/control-9f3a7",
	"geocoder.base_url":     "https://nominatim.openstreetmap.org/search",
	"geocoder.user_agent":   "servicii-ro-germania",
	"geocoder.timeout":      "5s",
	"geocoder.cache_ttl":    "168h",
	"geocoder.cache_size":   1024,
	"cloudinary.folder":     "romani-servicii-de",
	"smtp.port":             587,
	"log.level":             "info",
}

// hostingEnv maps the plain variable names used by hosting dashboards onto
// config keys.
var hostingEnv = map[string]string{
	"DATABASE_URL":          "database.dsn",
	"ADMIN_PASSWORD":        "admin.password",
	"SECRET_KEY":            "security.secret_key",
	"CLOUDINARY_URL":        "cloudinary.url",
	"CLOUDINARY_CLOUD_NAME": "cloudinary.cloud_name",
	"CLOUDINARY_API_KEY":    "cloudinary.api_key",
	"CLOUDINARY_API_SECRET": "cloudinary.api_secret",
	"SMTP_HOST":             "smtp.host",
	"SMTP_PORT":             "smtp.port",
	"SMTP_USER":             "smtp.username",
	"SMTP_PASSWORD":         "smtp.password",
	"MAIL_FROM":             "smtp.from",
	"CONTACT_TO":            "smtp.to",
	"REDIS_ADDR":            "redis.addr",
	"PORT":                  "http.listen_addr",
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SERVICII_ROOT or climbs directories until conf/app.yaml
// is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv(rootEnv); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, yamlRelPath)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root directory and calls LoadFrom.
func Load(ctx context.Context, secrets SecretResolver) (*Config, error) {
	return LoadFrom(ctx, rootDir(), secrets)
}

// LoadFrom reads every layer relative to root, validates, and caches the
// result.  secrets may be nil when no value references Vault.
func LoadFrom(ctx context.Context, root string, secrets SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	yamlPath := filepath.Join(root, yamlRelPath)
	switch _, err := os.Stat(yamlPath); {
	case err == nil:
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	case errors.Is(err, fs.ErrNotExist):
		zap.S().Debugw("config yaml absent, using environment only", "file", yamlPath)
	default:
		return nil, err
	}

	for name, key := range hostingEnv {
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if name == "PORT" {
			val = ":" + val
		}
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	// SERVICII_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = filepath.Join(root, "logs")
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"admin_prefix", cfg.Admin.PathPrefix,
		"cloudinary", cfg.Cloudinary.Enabled(),
		"smtp", cfg.SMTP.Enabled(),
		"redis", cfg.Redis.Addr != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets replaces every `vault:` string in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretResolver) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("%s references vault but no vault client is configured", key)
		}
		plain, err := secrets.Resolve(ctx, strings.TrimPrefix(s, vaultPrefix))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, plain); err != nil {
			return err
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the most recently loaded Config, or nil before Load.
func Get() *Config { return current.Load() }
