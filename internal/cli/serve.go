package cli

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/config"
	"github.com/evcraddock/keyswap/internal/geocode"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
	"github.com/evcraddock/keyswap/internal/logging"
	"github.com/evcraddock/keyswap/internal/manager"
	"github.com/evcraddock/keyswap/internal/market"
	"github.com/evcraddock/keyswap/internal/metrics"
	"github.com/evcraddock/keyswap/internal/scheduler"
	"github.com/evcraddock/keyswap/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: "Start the Keyswap HTTP JSON API. Settings come from the server config file " +
			"and KS_* environment variables.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dev {
				cfg.DevMode = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logging.Setup(cfg.DevMode)

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(database)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, database)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&dev, "dev", false, "dev mode: text logs, no email, generated JWT secret")

	return cmd
}

// app is the wired server and the resources it owns.
type app struct {
	deps      web.Deps
	scheduler *scheduler.Scheduler
	closers   []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("closing resource", "error", err)
		}
	}
}

// buildApp wires every service from cfg over database.
func buildApp(ctx context.Context, cfg *config.Config, database *sql.DB) (*app, error) {
	a := &app{}

	managers := manager.NewRepository(database)
	seeded, err := managers.SeedIfEmpty()
	if err != nil {
		return nil, fmt.Errorf("seeding managers: %w", err)
	}
	if seeded > 0 {
		slog.Info("seeded property managers", "count", seeded)
	}
	directory, err := manager.LoadDirectory(managers)
	if err != nil {
		return nil, err
	}

	markets := market.NewRepository(database)
	seeded, err = markets.SeedIfEmpty()
	if err != nil {
		return nil, fmt.Errorf("seeding markets: %w", err)
	}
	if seeded > 0 {
		slog.Info("seeded market statistics", "count", seeded)
	}

	secret, err := jwtSecret(cfg)
	if err != nil {
		return nil, err
	}
	authSvc := auth.NewService(
		auth.NewUserStore(database),
		auth.NewSessionStore(database),
		auth.NewTokenIssuer(secret),
		cfg.Auth.SessionTTL,
	)

	geocoder, err := buildGeocoder(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	assumptions := cfg.Finance.Assumptions()
	policy := cfg.Finance.ParsePolicy()

	a.deps = web.Deps{
		Auth:        authSvc,
		Geocoder:    geocoder,
		Passkeys:    auth.NewPasskeyStore(database),
		Listings:    listing.NewService(listing.NewRepository(database), geocoder, assumptions, policy),
		Managers:    directory,
		Markets:     markets,
		Inquiries:   inquiry.NewService(inquiry.NewRepository(database), inquiry.NewNotifier(cfg.SMTP, cfg.DevMode)),
		Throttle:    auth.NewThrottle(cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
		Assumptions: assumptions,
		ParsePolicy: policy,
		BaseURL:     cfg.BaseURL,
		TrustProxy:  cfg.TrustProxy,
	}
	if cfg.Metrics {
		a.deps.Registry = metrics.InitRegistry()
	}

	a.scheduler = scheduler.New(authSvc)
	if err := a.scheduler.Register(cfg.Schedule.CleanupCron); err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// buildGeocoder returns nil when no Mapbox token is configured. With a
// Redis address the client is wrapped in a shared cache.
func buildGeocoder(ctx context.Context, cfg *config.Config, a *app) (geocode.Geocoder, error) {
	if cfg.Geocode.MapboxToken == "" {
		slog.Warn("geocoding disabled: no mapbox token configured")
		return nil, nil
	}

	mapbox, err := geocode.NewClient(cfg.Geocode.MapboxToken, cfg.Geocode.BaseURL, cfg.Geocode.RPS)
	if err != nil {
		return nil, err
	}
	if cfg.Redis.Addr == "" {
		return mapbox, nil
	}

	cache := geocode.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	a.closers = append(a.closers, cache.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		slog.Warn("geocode cache unavailable, lookups will go upstream", "addr", cfg.Redis.Addr, "error", err)
	}

	return geocode.NewCached(mapbox, cache, cfg.Geocode.CacheTTL), nil
}

// jwtSecret returns the configured signing secret. Dev mode without one
// gets a random per-process secret, so tokens do not survive restarts.
func jwtSecret(cfg *config.Config) ([]byte, error) {
	if cfg.Auth.JWTSecret != "" {
		return []byte(cfg.Auth.JWTSecret), nil
	}
	if !cfg.DevMode {
		return nil, fmt.Errorf("auth.jwt_secret is required outside dev mode")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating jwt secret: %w", err)
	}
	slog.Warn("using a generated JWT secret; sessions end when the server restarts")
	return secret, nil
}

// runServe serves the API until ctx is canceled, then shuts down gracefully.
func runServe(ctx context.Context, cfg *config.Config, database *sql.DB) error {
	a, err := buildApp(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer a.close()

	handler, err := web.NewServer(a.deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.scheduler.Start()
	defer a.scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("API listening", "addr", cfg.Addr, "base_url", cfg.BaseURL, "dev_mode", cfg.DevMode,
			"geocoding", a.deps.Geocoder != nil, "metrics", a.deps.Registry != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}
