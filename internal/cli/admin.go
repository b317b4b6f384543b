package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/config"
	"github.com/mgrendahl/tackle/pkg/crm"
	tackleio "github.com/mgrendahl/tackle/pkg/io"
	"github.com/mgrendahl/tackle/pkg/store"
)

// adminCommand groups workspace administration subcommands.
func (c *CLI) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer workspace data",
		Long: `Seed, export, import and preview workspace data directly against the
configured storage backend.

These commands bypass the HTTP API and talk to storage, so they work
without a running server. Without MongoDB configured they operate on an
empty in-memory workspace that vanishes when the command exits, which is
only useful for previewing layouts.`,
	}

	cmd.AddCommand(c.adminSeedCommand())
	cmd.AddCommand(c.adminExportCommand())
	cmd.AddCommand(c.adminImportCommand())
	cmd.AddCommand(c.adminLayoutCommand())

	return cmd
}

// adminStores opens the stores an admin command operates on and warns
// when the backend is in-memory.
func (c *CLI) adminStores(ctx context.Context, cfgPath string) (*store.Stores, func(context.Context) error, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open stores: %w", err)
	}
	if cfg.Mongo.URI == "" {
		printWarning("no MongoDB configured, changes vanish when this command exits")
	}
	return stores, closeStores, nil
}

// =============================================================================
// admin seed
// =============================================================================

// adminSeedCommand creates the "admin seed" subcommand.
func (c *CLI) adminSeedCommand() *cobra.Command {
	var (
		cfgPath string
		user    string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the workspace with demo data",
		Long: `Fill a workspace with a demo dataset: accounts, contacts, a lead
funnel, a deal pipeline and email templates. Seeding an already-seeded
workspace fails on the first duplicate email.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stores, closeStores, err := c.adminStores(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeStores(ctx) }()

			userID := resolveUser(ctx, user)
			prog := newProgress(c.Logger)
			counts, err := seedWorkspace(ctx, stores, userID)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Seeded %d records", counts.total()))

			printSuccess("Workspace seeded for %s", userID)
			printKeyValue("Accounts", strconv.Itoa(counts.Accounts))
			printKeyValue("Contacts", strconv.Itoa(counts.Contacts))
			printKeyValue("Leads", strconv.Itoa(counts.Leads))
			printKeyValue("Deals", strconv.Itoa(counts.Deals))
			printKeyValue("Templates", strconv.Itoa(counts.Templates))
			printNewline()
			printNextStep("Browse it", "tackle serve --no-auth")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/tackle/config.toml)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "workspace owner (default: current CLI user)")

	return cmd
}

// =============================================================================
// admin export / import
// =============================================================================

// Workspace transfer formats.
const (
	dumpFormatJSON = "json" // full workspace dump
	dumpFormatCSV  = "csv"  // contacts only
)

// workspaceDump is the JSON envelope "admin export" writes and "admin
// import" reads. Records keep their IDs so cross-references
// (contact to account, deal to contact) survive the round trip.
type workspaceDump struct {
	ExportedAt  time.Time           `json:"exported_at"`
	User        string              `json:"user"`
	Accounts    []crm.Account       `json:"accounts,omitempty"`
	Contacts    []crm.Contact       `json:"contacts,omitempty"`
	Leads       []crm.Lead          `json:"leads,omitempty"`
	Deals       []crm.Deal          `json:"deals,omitempty"`
	Templates   []crm.EmailTemplate `json:"templates,omitempty"`
	Preferences *crm.Preferences    `json:"preferences,omitempty"`
}

func (d workspaceDump) records() int {
	return len(d.Accounts) + len(d.Contacts) + len(d.Leads) + len(d.Deals) + len(d.Templates)
}

// adminExportCommand creates the "admin export" subcommand.
func (c *CLI) adminExportCommand() *cobra.Command {
	var (
		cfgPath string
		user    string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the workspace to JSON, or contacts to CSV",
		Long: `Export a workspace.

The default is a full JSON dump (accounts, contacts, leads, deals,
templates, preferences) that "admin import" can restore. With --format
csv (or a .csv file name) only the contacts are written, in the same
column layout the API import endpoint accepts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			f, err := dumpFormat(path, format)
			if err != nil {
				return err
			}
			if path == "" {
				path = "workspace." + f
			}

			stores, closeStores, err := c.adminStores(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeStores(ctx) }()

			return c.runExport(ctx, stores, resolveUser(ctx, user), path, f)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/tackle/config.toml)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "workspace owner (default: current CLI user)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format: json (default), csv")

	return cmd
}

// runExport gathers the workspace and writes it to path.
func (c *CLI) runExport(ctx context.Context, stores *store.Stores, userID, path, format string) error {
	dump, err := gatherWorkspace(ctx, stores, userID)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	switch format {
	case dumpFormatCSV:
		if err := tackleio.WriteContactsCSV(dump.Contacts, out); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Exported %d contacts", len(dump.Contacts))
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dump); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Exported %d records", dump.records())
	}
	printFile(path)
	return nil
}

// gatherWorkspace reads every collection of userID's workspace. A user
// without saved preferences gets a dump without a preferences block.
func gatherWorkspace(ctx context.Context, stores *store.Stores, userID string) (workspaceDump, error) {
	dump := workspaceDump{ExportedAt: time.Now().UTC(), User: userID}

	var err error
	if dump.Accounts, err = stores.Accounts.List(ctx, userID, store.AccountFilter{}); err != nil {
		return dump, fmt.Errorf("list accounts: %w", err)
	}
	if dump.Contacts, err = stores.Contacts.List(ctx, userID, store.ContactFilter{}); err != nil {
		return dump, fmt.Errorf("list contacts: %w", err)
	}
	if dump.Leads, err = stores.Leads.List(ctx, userID, store.LeadFilter{}); err != nil {
		return dump, fmt.Errorf("list leads: %w", err)
	}
	if dump.Deals, err = stores.Deals.List(ctx, userID, store.DealFilter{}); err != nil {
		return dump, fmt.Errorf("list deals: %w", err)
	}
	if dump.Templates, err = stores.Templates.List(ctx, userID); err != nil {
		return dump, fmt.Errorf("list templates: %w", err)
	}

	prefs, err := stores.Preferences.Get(ctx, userID)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		// Nothing saved yet.
	case err != nil:
		return dump, fmt.Errorf("load preferences: %w", err)
	default:
		dump.Preferences = &prefs
	}

	return dump, nil
}

// adminImportCommand creates the "admin import" subcommand.
func (c *CLI) adminImportCommand() *cobra.Command {
	var (
		cfgPath string
		user    string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a workspace dump or a contacts CSV",
		Long: `Import records into a workspace.

JSON dumps restore every collection; CSV files add contacts. Records are
re-owned by the target user. A record whose ID or email already exists
in the workspace is skipped, so importing the same file twice is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := dumpFormat(args[0], format)
			if err != nil {
				return err
			}

			stores, closeStores, err := c.adminStores(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeStores(ctx) }()

			return c.runImport(ctx, stores, resolveUser(ctx, user), args[0], f)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/tackle/config.toml)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "workspace owner (default: current CLI user)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "import format: json, csv (default: by extension)")

	return cmd
}

// runImport loads path and writes its records into userID's workspace.
func (c *CLI) runImport(ctx context.Context, stores *store.Stores, userID, path, format string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	var dump workspaceDump
	switch format {
	case dumpFormatCSV:
		contacts, err := tackleio.ReadContactsCSV(in, userID)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		dump.Contacts = contacts
	default:
		if err := json.NewDecoder(in).Decode(&dump); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	created, skipped, err := restoreWorkspace(ctx, stores, userID, dump)
	if err != nil {
		return err
	}

	printSuccess("Imported %d records", created)
	if skipped > 0 {
		printDetail("%d already present, skipped", skipped)
	}
	if dump.Preferences != nil {
		printDetail("preferences restored")
	}
	return nil
}

// restoreWorkspace creates the dump's records under userID, in
// dependency order so references point at records that exist. Conflicts
// are counted, not fatal.
func restoreWorkspace(ctx context.Context, stores *store.Stores, userID string, dump workspaceDump) (created, skipped int, err error) {
	count := func(createErr error) error {
		switch {
		case stderrors.Is(createErr, store.ErrConflict):
			skipped++
			return nil
		case createErr != nil:
			return createErr
		default:
			created++
			return nil
		}
	}

	for _, a := range dump.Accounts {
		a.OwnerID = userID
		if err := count(createAccount(ctx, stores, a)); err != nil {
			return created, skipped, err
		}
	}
	for _, ct := range dump.Contacts {
		ct.OwnerID = userID
		if err := count(createContact(ctx, stores, ct)); err != nil {
			return created, skipped, err
		}
	}
	for _, l := range dump.Leads {
		l.OwnerID = userID
		if err := count(createLead(ctx, stores, l)); err != nil {
			return created, skipped, err
		}
	}
	for _, d := range dump.Deals {
		d.OwnerID = userID
		if err := count(createDeal(ctx, stores, d)); err != nil {
			return created, skipped, err
		}
	}
	for _, t := range dump.Templates {
		t.OwnerID = userID
		if err := count(createTemplate(ctx, stores, t)); err != nil {
			return created, skipped, err
		}
	}

	if dump.Preferences != nil {
		p := *dump.Preferences
		p.UserID = userID
		if err := p.Validate(); err != nil {
			return created, skipped, fmt.Errorf("restore preferences: %w", err)
		}
		if err := stores.Preferences.Put(ctx, p); err != nil {
			return created, skipped, fmt.Errorf("restore preferences: %w", err)
		}
	}

	return created, skipped, nil
}

// dumpFormat resolves the transfer format from the flag, falling back
// to the file extension, falling back to JSON.
func dumpFormat(path, flag string) (string, error) {
	switch flag {
	case dumpFormatJSON, dumpFormatCSV:
		return flag, nil
	case "":
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'json' or 'csv')", flag)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return dumpFormatCSV, nil
	}
	return dumpFormatJSON, nil
}

// =============================================================================
// admin layout
// =============================================================================

// adminLayoutCommand creates the "admin layout" subcommand, an
// interactive preview of a user's widget board.
func (c *CLI) adminLayoutCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "layout [user]",
		Short: "Preview a user's dashboard layout in the terminal",
		Long: `Render a user's widget board as a 12-column grid in the terminal.

Keys: j/k (or arrows) cycle through the visible widgets, c compacts the
board upward, q quits. The preview is read-only; nothing is saved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			user := ""
			if len(args) == 1 {
				user = args[0]
			}
			userID := resolveUser(ctx, user)

			stores, closeStores, err := c.adminStores(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeStores(ctx) }()

			svc := dashboard.NewService(stores, nil, nil, c.Logger)
			prefs, err := svc.Preferences(ctx, userID)
			if err != nil {
				return fmt.Errorf("load preferences for %s: %w", userID, err)
			}

			p := tea.NewProgram(newLayoutModel(userID, prefs))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run layout preview: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/tackle/config.toml)")

	return cmd
}
