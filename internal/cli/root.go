// Package cli is the command line: the interactive client by default, plus
// scriptable one-shot commands against the same API.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/metrics"
	"github.com/idilsaglam/todo/internal/tui"
	"github.com/idilsaglam/todo/internal/ui"
)

type App struct {
	ConfigFile  string
	APIURL      string
	Theme       string
	LogFile     string
	LogLevel    string
	MetricsAddr string
	Timeout     time.Duration

	cfg     config.Config
	client  *api.Client
	log     *log.Logger
	logFile io.Closer
	metrics *metrics.Recorder
	printer *ui.Printer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Terminal client for a to-do list API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive client
  todo

  # Scriptable commands
  todo ls --group
  todo add Buy milk
  todo done 2
  todo rm 3
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.setup(cmd); err != nil {
			app.close()
			return app.fail(cmd, err)
		}
		return nil
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return app.fail(cmd, err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", envOr("TODO_CONFIG", ""), "Config file (replaces the user and project config files)")
	pf.StringVar(&app.APIURL, "api", "", "API base URL (default "+api.DefaultBaseURL+")")
	pf.StringVar(&app.Theme, "theme", "", "Output theme (classic|neon|mono)")
	pf.StringVar(&app.LogFile, "log-file", "", "Write logs to this file")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&app.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	pf.DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout (0 means none)")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRemoveCmd(app))

	// Errors are printed here, not by cobra. The log file is closed here too
	// since PersistentPostRunE is skipped when RunE fails.
	for _, c := range append([]*cobra.Command{cmd}, cmd.Commands()...) {
		run, valid := c.RunE, c.Args
		c.RunE = func(cmd *cobra.Command, args []string) error {
			defer app.close()
			if err := run(cmd, args); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		}
		if valid != nil {
			c.Args = func(cmd *cobra.Command, args []string) error {
				if err := valid(cmd, args); err != nil {
					return app.fail(cmd, err)
				}
				return nil
			}
		}
	}

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// setup resolves config, then builds the logger, metrics and API client.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = app.APIURL
	}
	if flags.Changed("theme") {
		cfg.Theme = app.Theme
	}
	if flags.Changed("log-file") {
		cfg.LogFile = app.LogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = app.LogLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = app.MetricsAddr
	}
	if flags.Changed("timeout") {
		cfg.Timeout = app.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	app.cfg = cfg

	if err := app.openLog(cmd, !cmd.HasParent()); err != nil {
		return err
	}

	app.metrics = metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := app.metrics.Serve(cmd.Context(), cfg.MetricsAddr); err != nil {
				app.log.Error("metrics server", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
		app.log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	enc, err := api.ParseBoolEncoding(cfg.BoolEncoding)
	if err != nil {
		return err
	}
	app.client, err = api.New(cfg.APIURL,
		api.WithLogger(app.log),
		api.WithMetrics(app.metrics),
		api.WithBoolEncoding(enc),
		api.WithTimeout(cfg.Timeout),
		api.WithRateLimit(cfg.Rate, cfg.Burst),
	)
	if err != nil {
		return err
	}

	app.printer = ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Theme)
	return nil
}

// openLog sends logs to the configured file, or to stderr for one-shot
// commands. The interactive client always logs to a file since stderr shares
// the terminal with the alternate screen.
func (app *App) openLog(cmd *cobra.Command, interactive bool) error {
	path := app.cfg.LogFile
	if path == "" && interactive {
		p, err := logging.DefaultFile()
		if err != nil {
			return err
		}
		path = p
	}
	if path == "" {
		l, err := logging.New(cmd.ErrOrStderr(), app.cfg.LogLevel)
		if err != nil {
			return err
		}
		app.log = l
		return nil
	}
	l, f, err := logging.OpenFile(path, app.cfg.LogLevel)
	if err != nil {
		return err
	}
	app.log, app.logFile = l, f
	return nil
}

// fail prints err the way every other status line is printed and returns it.
// Before setup has built the printer, a default one writing to the command's
// streams is used.
func (app *App) fail(cmd *cobra.Command, err error) error {
	p := app.printer
	if p == nil {
		p = ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), app.Theme)
	}
	p.Fail(err.Error())
	return err
}

func (app *App) close() {
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	app.log.Info("starting", "api", app.client.BaseURL())
	err := tui.Run(cmd.Context(), app.client, tui.Options{
		Logger:    app.log,
		Metrics:   app.metrics,
		NoticeTTL: app.cfg.NoticeTTL,
	})
	if err != nil {
		app.log.Error("tui exited", "err", err)
	}
	return err
}
