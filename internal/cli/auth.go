package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgrendahl/tackle/pkg/auth"
	"github.com/mgrendahl/tackle/pkg/session"
)

// cliSessionTTL is the duration for CLI sessions (30 days).
const cliSessionTTL = 30 * 24 * time.Hour

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var static bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate using the GitHub device flow",
		Long: `Start the GitHub device authorization flow.

You'll be given a code to enter at https://github.com/login/device.
Once authorized, your session is saved locally and CLI commands act
on that user's workspace.

Your session is stored in ~/.config/tackle/sessions/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if existing, _ := loadCLISession(ctx); existing != nil {
				printInfo("Already logged in as @%s", existing.User.Login)
				printDetail("Run 'tackle logout' first to re-authenticate")
				return nil
			}

			if static {
				return c.runStaticLogin(ctx)
			}
			_, err := c.runDeviceLogin(ctx)
			return err
		},
	}

	cmd.Flags().BoolVar(&static, "static", false, "save a local development session instead of talking to GitHub")

	return cmd
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deleteCLISession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// whoamiCommand creates the whoami command.
func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := loadCLISession(ctx)
			if err != nil {
				return err
			}

			user := *sess.User
			if user.Provider != "static" {
				ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()

				spinner := newSpinnerWithContext(ctx, "Verifying session...")
				spinner.Start()

				provider := auth.NewGitHubProvider(auth.GitHubConfig{
					ClientID: os.Getenv("TACKLE_GITHUB_CLIENT_ID"),
				})
				identity, err := provider.FetchIdentity(ctx, sess.AccessToken)
				if err != nil {
					spinner.StopWithError("Session invalid")
					return fmt.Errorf("verify session: %w", err)
				}
				spinner.Stop()
				user = identity
			}

			printSuccess("Tackle Session")
			printKeyValue("Username", "@"+user.Login)
			if user.Name != "" {
				printKeyValue("Name", user.Name)
			}
			if user.Email != "" {
				printKeyValue("Email", user.Email)
			}
			printKeyValue("Provider", user.Provider)
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))

			return nil
		},
	}
}

// =============================================================================
// Session Management
// =============================================================================

// loadCLISession loads the CLI session from disk.
func loadCLISession(ctx context.Context) (*session.Session, error) {
	store, err := session.NewCLIStore()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in (run 'tackle login' first)")
	}

	return sess, nil
}

func saveCLISession(ctx context.Context, accessToken string, user *auth.Identity) (*session.Session, error) {
	store, err := session.NewCLIStore()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sess, err := session.New(accessToken, user, cliSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return sess, nil
}

func deleteCLISession(ctx context.Context) error {
	store, err := session.NewCLIStore()
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	return store.DeleteSession(ctx)
}

// =============================================================================
// Device Flow Login
// =============================================================================

func (c *CLI) runDeviceLogin(ctx context.Context) (*session.Session, error) {
	provider := auth.NewGitHubProvider(auth.GitHubConfig{
		ClientID: os.Getenv("TACKLE_GITHUB_CLIENT_ID"),
	})

	loginCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	code, err := provider.RequestDeviceCode(loginCtx)
	if err != nil {
		return nil, fmt.Errorf("request device code: %w", err)
	}

	printNewline()
	fmt.Println(StyleTitle.Render("GitHub Device Authorization"))
	printNewline()
	printKeyValue("Code", StyleNumber.Render(code.UserCode))
	printKeyValue("URL", StyleLink.Render(code.VerificationURI))
	printNewline()

	if err := openBrowser(code.VerificationURI); err != nil {
		printDetail("Copy the URL above and paste it in your browser")
	} else {
		printDetail("Opening browser...")
	}
	printInline("Waiting for authorization...")

	token, err := provider.PollForToken(loginCtx, code.DeviceCode, code.Interval)
	if err != nil {
		fmt.Println()
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	identity, err := provider.FetchIdentity(loginCtx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch identity: %w", err)
	}

	sess, err := saveCLISession(ctx, token.AccessToken, &identity)
	if err != nil {
		return nil, err
	}

	fmt.Println()
	printSuccess("Logged in as @%s", identity.Login)

	return sess, nil
}

// runStaticLogin saves a development session backed by the static
// provider. Record ownership lines up with what 'serve --no-auth' uses.
func (c *CLI) runStaticLogin(ctx context.Context) error {
	provider := auth.NewStaticProvider("", "", "")

	token, err := provider.Exchange(ctx, "static")
	if err != nil {
		return fmt.Errorf("exchange: %w", err)
	}
	identity, err := provider.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		return fmt.Errorf("fetch identity: %w", err)
	}

	if _, err := saveCLISession(ctx, token.AccessToken, &identity); err != nil {
		return err
	}

	printSuccess("Logged in as @%s (static)", identity.Login)
	printDetail("Commands act on the local development workspace")
	return nil
}

func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
