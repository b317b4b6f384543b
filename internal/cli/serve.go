package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mgrendahl/tackle/internal/api"
	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/auth"
	"github.com/mgrendahl/tackle/pkg/cache"
	"github.com/mgrendahl/tackle/pkg/config"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/session"
	"github.com/mgrendahl/tackle/pkg/store"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server receives a stop signal.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command that runs the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cfgPath string
		addr    string
		noAuth  bool
		seed    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the tackle HTTP API server.

Configuration is read from ~/.config/tackle/config.toml (override with
--config) plus TACKLE_* environment variables. With an empty config the
server runs fully in-memory: memory stores, memory sessions, file cache.
Configure MongoDB and Redis for a deployment that survives restarts.

During development, --no-auth --seed gives a ready-to-browse workspace
under a fixed local identity without any OAuth setup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if noAuth {
				cfg.Server.NoAuth = true
			}
			return c.runServe(cmd.Context(), cfg, seed)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/tackle/config.toml)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "serve under a fixed local identity (development)")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed demo data at startup (development)")

	return cmd
}

// runServe assembles the backend from cfg and runs the server until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg config.Config, seed bool) error {
	logger := serverLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if c.Logger.GetLevel() == LogDebug {
		logger.SetLevel(LogDebug) // --verbose wins over the config level
	}
	registerLogHooks(logger)
	defer observability.Reset()

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := closeStores(closeCtx); err != nil {
			logger.Warn("close stores", "error", err)
		}
	}()

	backend := "memory"
	if cfg.Mongo.URI != "" {
		backend = "mongodb"
	}
	logger.Info("stores ready", "backend", backend)

	deps, closeBackend, err := buildDeps(ctx, cfg, stores, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	if seed {
		userID := session.Dev().UserID()
		counts, err := seedWorkspace(ctx, stores, userID)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		logger.Info("seeded demo workspace", "user", userID, "records", counts.total())
	}

	server := api.New(api.Config{
		BaseURL:      cfg.Server.BaseURL,
		NoAuth:       cfg.Server.NoAuth,
		CookieSecure: strings.HasPrefix(cfg.Server.BaseURL, "https://"),
	}, deps)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("server listening", "addr", cfg.Server.Addr, "base_url", cfg.Server.BaseURL, "no_auth", cfg.Server.NoAuth)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", shutdownTimeout)
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh // drain http.ErrServerClosed

	logger.Info("server stopped")
	return nil
}

// buildDeps wires sessions, cache, auth provider and the dashboard
// service on top of the stores. When Redis is configured, one client
// backs sessions, state tokens and the cache; the returned close
// function releases it.
func buildDeps(ctx context.Context, cfg config.Config, stores *store.Stores, logger *log.Logger) (api.Deps, func(), error) {
	deps := api.Deps{Stores: stores, Logger: logger}
	closeFn := func() {}

	var byteCache cache.Cache
	switch {
	case cfg.Cache.Disabled:
		byteCache = cache.NewNullCache()
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return api.Deps{}, nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.Sessions = session.NewRedisStoreWithClient(client)
		deps.States = session.NewRedisStateStore(client)
		byteCache = cache.NewRedisCacheWithClient(client)
		closeFn = func() { _ = client.Close() }
		logger.Info("redis connected", "addr", cfg.Redis.Addr)
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				dir = ""
			}
		}
		if dir != "" {
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				logger.Warn("file cache unavailable, caching disabled", "dir", dir, "error", err)
				byteCache = cache.NewNullCache()
			} else {
				byteCache = fc
			}
		} else {
			byteCache = cache.NewNullCache()
		}
	}

	switch cfg.Auth.Provider {
	case "static":
		deps.Provider = auth.NewStaticProvider("", "", "")
	default:
		deps.Provider = auth.NewGitHubProvider(auth.GitHubConfig{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			RedirectURI:  cfg.RedirectURI(),
		})
	}

	deps.Dashboard = dashboard.NewService(stores, byteCache, nil, logger)
	return deps, closeFn, nil
}
