package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgrendahl/tackle/pkg/cache"
	"github.com/mgrendahl/tackle/pkg/config"
	"github.com/mgrendahl/tackle/pkg/relmap"
	"github.com/mgrendahl/tackle/pkg/store"
)

// Output formats for rendered relationship maps.
const (
	formatSVG  = "svg"
	formatPNG  = "png"
	formatDOT  = "dot"
	formatJSON = "json"
)

// defaultScale produces 2x resolution PNGs suitable for high-DPI displays.
const defaultScale = 2.0

// vizOpts holds the command-line flags for the viz commands.
type vizOpts struct {
	output   string   // output file path (or base path for multiple formats)
	formats  []string // output formats: "svg", "png", "dot", "json"
	user     string   // workspace user the records belong to
	cfgPath  string   // config file path
	maxNodes int      // cap contacts and deals drawn per map
	detailed bool     // include titles, stages and values in labels
	scale    float64  // PNG resolution multiplier
	noCache  bool     // skip the render cache
}

// vizCommand creates the viz command group.
func (c *CLI) vizCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Render relationship maps",
	}

	cmd.AddCommand(c.vizAccountCommand())

	return cmd
}

// vizAccountCommand creates the "viz account" subcommand.
func (c *CLI) vizAccountCommand() *cobra.Command {
	var formatsStr string
	opts := vizOpts{scale: defaultScale}

	cmd := &cobra.Command{
		Use:   "account <id>",
		Short: "Render an account's relationship map",
		Long: `Render an account's relationship map.

The map shows the account with its contacts and deals as a directed
graph. Deals that name a contact get a second, dashed edge from that
contact.

Formats: svg and png are rendered with Graphviz, dot emits the raw
Graphviz source, and json emits the node and edge lists.

Rendered svg and png artifacts are cached locally for faster
subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runVizAccount(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "workspace user (default: current CLI user)")
	cmd.Flags().StringVar(&opts.cfgPath, "config", "", "config file path")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "cap contacts and deals drawn; cut records collapse into one node (0 = no cap)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include titles, deal stages and values in node labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatPNG: true, formatDOT: true, formatJSON: true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', 'dot', or 'json')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output flag and the
// account ID. If output is empty, the account ID names the files. If
// output has a format extension (.svg, .png, ...), it is stripped.
// This is used when generating multiple files (e.g. acme.svg, acme.dot).
func basePath(output, accountID string) string {
	if output == "" {
		return "account-" + accountID
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runVizAccount loads the account's graph and renders it to the
// requested formats.
func (c *CLI) runVizAccount(ctx context.Context, accountID string, opts *vizOpts) error {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return err
	}

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStores(ctx) }()

	userID := resolveUser(ctx, opts.user)

	account, err := stores.Accounts.Get(ctx, userID, accountID)
	if err != nil {
		return fmt.Errorf("load account %s: %w", accountID, err)
	}
	contacts, err := stores.Contacts.List(ctx, userID, store.ContactFilter{AccountID: accountID})
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	deals, err := stores.Deals.List(ctx, userID, store.DealFilter{AccountID: accountID})
	if err != nil {
		return fmt.Errorf("load deals: %w", err)
	}

	g := relmap.Graph{Account: account, Contacts: contacts, Deals: deals}
	mapOpts := relmap.Options{Detailed: opts.detailed, MaxNodes: opts.maxNodes}

	artifacts, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer artifacts.Close()
	keyer := cache.NewDefaultKeyer()

	paths := make([]string, 0, len(opts.formats))
	renders, hits := 0, 0
	for _, format := range opts.formats {
		key := keyer.RelmapKey(userID, account.ID, cache.RelmapKeyOpts{
			Format:   format,
			MaxNodes: opts.maxNodes,
			Detailed: opts.detailed,
		})
		data, cached, err := renderAccountMap(ctx, g, mapOpts, format, opts.scale, artifacts, key)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if format == formatSVG || format == formatPNG {
			renders++
			if cached {
				hits++
			}
		}

		path := outputPath(opts, accountID, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	nodes, edges := relmap.Build(g, mapOpts)
	printSuccess("Rendered relationship map for %s", account.Name)
	for _, path := range paths {
		printFile(path)
	}
	printStats(len(nodes), len(edges), renders > 0 && hits == renders)
	return nil
}

// outputPath picks the file name for one format. A single format with
// an explicit --output writes exactly there; everything else derives
// from the base path.
func outputPath(opts *vizOpts, accountID, format string) string {
	if len(opts.formats) == 1 && opts.output != "" {
		return opts.output
	}
	return basePath(opts.output, accountID) + "." + format
}

// renderAccountMap produces one format's bytes. Graphviz renders (svg,
// png) go through the cache; dot and json are cheap pure functions and
// skip it.
func renderAccountMap(ctx context.Context, g relmap.Graph, mapOpts relmap.Options, format string, scale float64, artifacts cache.Cache, key string) ([]byte, bool, error) {
	switch format {
	case formatJSON:
		nodes, edges := relmap.Build(g, mapOpts)
		data, err := json.MarshalIndent(struct {
			Nodes []relmap.Node `json:"nodes"`
			Edges []relmap.Edge `json:"edges"`
		}{nodes, edges}, "", "  ")
		return data, false, err
	case formatDOT:
		return []byte(relmap.ToDOT(g, mapOpts)), false, nil
	}

	if data, ok, err := artifacts.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
	spinner.Start()

	dot := relmap.ToDOT(g, mapOpts)
	var data []byte
	var err error
	if format == formatPNG {
		data, err = relmap.RenderPNG(ctx, dot, scale)
	} else {
		data, err = relmap.RenderSVG(ctx, dot)
	}
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return nil, false, err
	}
	spinner.Stop()

	// Best effort; a render is still usable when the cache write fails.
	_ = artifacts.Set(ctx, key, data, cache.TTLRelmap)
	return data, false, nil
}
