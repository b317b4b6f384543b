package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mgrendahl/tackle/pkg/buildinfo"
	"github.com/mgrendahl/tackle/pkg/cache"
	"github.com/mgrendahl/tackle/pkg/config"
	"github.com/mgrendahl/tackle/pkg/session"
	"github.com/mgrendahl/tackle/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "tackle"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "tackle",
		Short:        "Tackle is a lightweight CRM server and toolkit",
		Long:         `Tackle manages contacts, leads, deals and accounts behind a JSON API with a customizable widget dashboard. The CLI runs the server and provides admin tooling for seeding, moving and inspecting workspace data.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.adminCommand())
	root.AddCommand(c.vizCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backend Factory
// =============================================================================

// openStores connects the record stores selected by cfg: MongoDB when a
// URI is configured, otherwise the in-memory stores. The returned close
// function is safe to call on either backend.
func openStores(ctx context.Context, cfg config.Config) (*store.Stores, func(context.Context) error, error) {
	if cfg.Mongo.URI == "" {
		return store.NewMemoryStores(), func(context.Context) error { return nil }, nil
	}
	return store.ConnectMongo(ctx, store.MongoConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
}

// newCache returns the byte cache for CLI render commands: the file
// cache under cacheDir, or a null cache when caching is disabled.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/tackle/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flag Helpers
// =============================================================================

// resolveUser returns the workspace owner a command operates on: the
// --user flag when set, then the logged-in CLI session, then the local
// development identity the no-auth server writes under.
func resolveUser(ctx context.Context, flag string) string {
	if flag != "" {
		return flag
	}
	if cliStore, err := session.NewCLIStore(); err == nil {
		if sess, err := cliStore.GetSession(ctx); err == nil && sess != nil {
			return sess.UserID()
		}
	}
	return session.Dev().UserID()
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}
