// cmd/web/main.go
//
// Directory – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Bootstrap console logger, then load config (conf/.env → conf/app.yaml
//     → hosting env aliases → SERVICII_* overrides → vault: references).
//
//  2. Start the daily rotating logger (tees to console in a TTY).
//
//  3. Open MySQL, optionally apply embedded migrations.
//
//  4. Build the shared component Deps: store, search (geocoder with Redis
//     or in-process cache), submissions workflow, views, session, CSRF,
//     mailer, image uploader.
//
//  5. Router: RequestID → RealIP → Recoverer → request info → access log
//     → security headers → (ForceHTTPS) → principal.  /metrics is served
//     beside the components.
//
//  6. Serve until SIGINT/SIGTERM, then drain.
//
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/auth"
	"github.com/servicii-ro/directory/internal/component"
	"github.com/servicii-ro/directory/internal/config"
	"github.com/servicii-ro/directory/internal/database"
	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/geo"
	"github.com/servicii-ro/directory/internal/imagestore"
	"github.com/servicii-ro/directory/internal/logger"
	"github.com/servicii-ro/directory/internal/mailer"
	"github.com/servicii-ro/directory/internal/middleware"
	"github.com/servicii-ro/directory/internal/requestinfo"
	"github.com/servicii-ro/directory/internal/server"
	"github.com/servicii-ro/directory/internal/session"
	"github.com/servicii-ro/directory/internal/vault"
	"github.com/servicii-ro/directory/internal/view"

	_ "github.com/servicii-ro/directory/components/admin"
	_ "github.com/servicii-ro/directory/components/public"
)

func main() {
	boot := logger.Bootstrap()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		boot.Errorw("fatal", "err", err)
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config (Vault only when VAULT_ADDR is set) ─────────────────
	//
	var secrets config.SecretResolver
	if vault.Enabled() {
		vc, err := vault.New(ctx, zap.S().Infof)
		if err != nil {
			return err
		}
		secrets = vc
	}
	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	log, err := logger.New(cfg.Log.Dir, cfg.Log.Level, logger.IsTTY())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 3.  Database ────────────────────────────────────────────────────
	//
	db, err := database.OpenWithOptions(ctx, cfg.Database.DSN, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database online")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	//
	// ── 4.  Shared dependencies ─────────────────────────────────────────
	//
	store := directory.NewSQLStore(db)

	var geoStore geo.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unreachable, geocode cache stays in-process", "err", err)
			geoStore = geo.NewMemoryStore(cfg.Geocoder.CacheSize)
		} else {
			geoStore = geo.NewRedisStore(rdb)
		}
	} else {
		geoStore = geo.NewMemoryStore(cfg.Geocoder.CacheSize)
	}
	geocoder := geo.NewGeocoder(geo.Options{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
		CacheTTL:  cfg.Geocoder.CacheTTL,
		Store:     geoStore,
	})

	countries, err := requestinfo.OpenCountries(cfg.GeoIP.DBPath)
	if err != nil {
		log.Warnw("geoip database unavailable", "path", cfg.GeoIP.DBPath, "err", err)
	}
	defer countries.Close()

	mail, err := mailer.New(cfg.SMTP)
	if err != nil {
		return err
	}
	images, err := imagestore.New(cfg.Cloudinary)
	if err != nil {
		return err
	}
	if !cfg.Cloudinary.Enabled() {
		log.Warn("cloudinary not configured, image uploads disabled")
	}

	sessions := session.NewManager(
		cfg.Security.Key("session-hash"),
		cfg.Security.Key("session-block"),
		cfg.Security.SecureCookies)

	deps := &component.Deps{
		Store:         store,
		Search:        directory.NewSearch(store, geocoder),
		Submissions:   directory.NewSubmissions(store),
		View:          view.New(),
		Sessions:      sessions,
		CSRF:          form.NewCSRF(cfg.Security.Key("csrf")),
		Mailer:        mail,
		Images:        images,
		AdminPassword: cfg.Admin.Password,
		AdminPrefix:   cfg.Admin.PathPrefix,
		ContactTo:     cfg.SMTP.To,
		BaseURL:       cfg.HTTP.BaseURL,
		Health:        db.PingContext,
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(requestinfo.Enrich(countries))
	r.Use(middleware.AccessLog, middleware.Security)
	if cfg.HTTP.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	r.Use(auth.Attach(sessions))

	r.Handle("/metrics", promhttp.Handler())
	component.MountAll(r, deps)
	r.NotFound(deps.NotFound)

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	log.Infow("starting", "addr", cfg.HTTP.ListenAddr, "admin_prefix", cfg.Admin.PathPrefix)
	return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, r))
}
