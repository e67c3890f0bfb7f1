package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"LexAI/internal/app"
	"LexAI/internal/config"
	"LexAI/internal/route"
	"LexAI/internal/telemetry"
)

// annotationRoute names the screen a command stands for; the route guard
// runs against it before the command does.
const annotationRoute = "route"

var (
	errNotLoggedIn   = errors.New("not logged in (run `lexai login`)")
	errAdminRequired = errors.New("admin privileges required")
)

type openFunc func(ctx context.Context, cfg *config.Config) (*app.App, error)

// cli carries flag values and the application opened for one invocation.
type cli struct {
	open    openFunc
	cfgPath string
	baseURL string
	debug   bool

	cfgFile string // resolved config path
	app     *app.App
}

func newCLI(open openFunc) *cli {
	return &cli{open: open}
}

// execute runs root and releases the application whatever the outcome.
func (c *cli) execute(ctx context.Context, root *cobra.Command) error {
	defer func() {
		if err := c.teardown(); err != nil {
			fmt.Fprintf(root.ErrOrStderr(), "Warning: %v\n", err)
		}
	}()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lexai",
		Short: "Terminal client for the LexAI legal assistant",
		Long: `A terminal client for the LexAI legal assistant.

Ask legal questions in an interactive chat, browse and export your
conversation history, search similar court decisions and, for
administrators, manage users and review answer feedback.

Quick Start:
  lexai login                      # Sign in
  lexai chat                       # Start chatting
  lexai history list               # List conversations
  lexai similar "işe iade davası"  # Search similar decisions`,
		Version:           telemetry.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "Config file (default ~/.lexai/config.toml)")
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "LexAI service URL (overrides config)")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.whoamiCmd(),
		c.chatCmd(),
		c.historyCmd(),
		c.similarCmd(),
		c.adminCmd(),
		c.themeCmd(),
		c.configCmd(),
	)
	return root
}

// setup loads configuration, opens the application and applies the route
// guard for the command's annotated screen.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	path := c.cfgPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	c.cfgFile = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := c.open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.app = a

	p, ok := cmd.Annotations[annotationRoute]
	if !ok {
		return nil
	}
	decision := a.Authorize(p)
	if decision.Allow {
		return nil
	}
	a.Logger.Info("command blocked by route guard", "command", cmd.CommandPath(), "route", p, "redirect", decision.Redirect)
	if decision.Redirect == route.PathHome {
		return errAdminRequired
	}
	return errNotLoggedIn
}

func (c *cli) teardown() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func guarded(path string) map[string]string {
	return map[string]string{annotationRoute: path}
}

func (c *cli) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
