// Package cli is the storefront command line surface: one command per view
// of the order-management client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/guard"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/pagination"
)

// Command annotations.
const (
	// skipRestore marks commands that must not load the identity up front.
	skipRestore = "skip-restore"
	// viewRoute holds the navigation paths of the view a command stands
	// for, comma separated; "{id}" is replaced by the first argument.
	viewRoute = "view-route"
)

// Options configures a command tree.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Env takes precedence over the process environment.
	Env map[string]string
}

type globalFlags struct {
	apiURL   string
	session  string
	store    string
	stateDir string
	logLevel string
}

type cli struct {
	opts  Options
	flags globalFlags
	app   *app.App
}

// Execute runs the command line args and releases the application.
func Execute(ctx context.Context, opts Options, args []string) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	c := &cli{opts: opts}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		c.app.Close(ctx)
	}
	return err
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Client for the order-management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.apiURL, "api-url", "", "order-management API base URL (STOREFRONT_API_URL)")
	pf.StringVar(&c.flags.session, "session", "", "client session id (STOREFRONT_SESSION_ID)")
	pf.StringVar(&c.flags.store, "store", "", "state store: file, redis or memory (STOREFRONT_STORE)")
	pf.StringVar(&c.flags.stateDir, "state-dir", "", "directory of the file store (STOREFRONT_STATE_DIR)")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level (LOG_LEVEL)")

	root.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.productsCommand(),
		c.categoriesCommand(),
		c.cartCommand(),
		c.checkoutCommand(),
		c.ordersCommand(),
		c.paymentsCommand(),
		c.deliveriesCommand(),
		c.promotionsCommand(),
		c.usersCommand(),
		c.chatCommand(),
		c.dashboardCommand(),
		c.navigateCommand(),
		c.doctorCommand(),
	)
	return root
}

func (c *cli) overrides() map[string]string {
	out := make(map[string]string, len(c.opts.Env)+5)
	for k, v := range c.opts.Env {
		out[k] = v
	}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("STOREFRONT_API_URL", c.flags.apiURL)
	set("STOREFRONT_SESSION_ID", c.flags.session)
	set("STOREFRONT_STORE", c.flags.store)
	set("STOREFRONT_STATE_DIR", c.flags.stateDir)
	set("LOG_LEVEL", c.flags.logLevel)
	return out
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithOverrides(c.overrides())
	if err != nil {
		return err
	}
	log := logger.NewWithWriter("storefront", cfg.LogLevel, c.opts.Stderr)

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	c.app = a

	ctx := a.Context(cmd.Context())
	if cmd.Annotations[skipRestore] == "" {
		if _, err := a.Session.Restore(ctx); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		ctx = a.Context(ctx)
	}
	if err := c.authorize(ctx, cmd, args); err != nil {
		return err
	}
	cmd.SetContext(ctx)
	return nil
}

// authorize resolves the view route of cmd through the guard. The command
// runs when any of its paths is allowed; otherwise a redirect to login is
// reported as 401 and a redirect to unauthorized as 403.
func (c *cli) authorize(ctx context.Context, cmd *cobra.Command, args []string) error {
	paths := cmd.Annotations[viewRoute]
	if paths == "" {
		return nil
	}
	var denied guard.Decision
	for i, path := range strings.Split(paths, ",") {
		if len(args) > 0 {
			path = strings.ReplaceAll(path, "{id}", args[0])
		}
		d, err := c.app.Guard.Resolve(ctx, path)
		if err != nil {
			return err
		}
		if d.Allowed {
			return nil
		}
		if i == 0 {
			denied = d
		}
	}
	if denied.Redirect == guard.PathLogin {
		return apperrors.Unauthorized(fmt.Sprintf("%s requires a signed in user", denied.Path))
	}
	return apperrors.Forbidden(fmt.Sprintf("%s is not available to this role", denied.Path))
}

func noRestore() map[string]string {
	return map[string]string{skipRestore: "true"}
}

// view annotates a command with the navigation paths it stands for.
func view(paths ...string) map[string]string {
	return map[string]string{viewRoute: strings.Join(paths, ",")}
}

// print writes v to stdout as indented JSON.
func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.opts.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.opts.Stdout, format, args...)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid id %q", arg))
	}
	return id, nil
}

func parseQuantity(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid quantity %q", arg))
	}
	return n, nil
}

// parsePositiveQuantity parses a quantity that must be at least 1.
func parsePositiveQuantity(arg string) (int, error) {
	n, err := parseQuantity(arg)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, apperrors.Validation(fmt.Sprintf("invalid quantity %d", n),
			map[string]string{"quantite": "must be at least 1"})
	}
	return n, nil
}

// Report writes the user-facing rendering of err to w.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", apperrors.UserMessage(err))
	fields := apperrors.FieldErrors(err)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
	fmt.Fprintf(w, "  (%v)\n", err)
}

type pageFlags struct {
	page    int
	perPage int
}

func (f *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 0, "page number (0 lists everything)")
	cmd.Flags().IntVar(&f.perPage, "per-page", pagination.DefaultPerPage, "items per page")
}

// printPage prints items whole, or one page of them when a page is set.
func printPage[T any](c *cli, items []T, f pageFlags) error {
	if f.page <= 0 {
		return c.print(items)
	}
	return c.print(pagination.Paginate(items, pagination.New(f.page, f.perPage)))
}
