// Command goadmin is the terminal dashboard.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/internal/config"
	"github.com/MrEthical07/goAdmin/internal/logging"
	"github.com/MrEthical07/goAdmin/tui"
	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "config file (.yaml, .yml, .json or .jsonc)")
		namespace  = flag.StringP("namespace", "n", "", "storage namespace for this dashboard")
		route      = flag.String("route", "", "route to open first; defaults to the dashboard root")
		logFile    = flag.String("log-file", "", "log file; defaults to goadmin.log in the user cache dir")
	)
	flag.Parse()

	if err := run(*configPath, *namespace, *route, *logFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, namespace, route, logFile string) error {
	cfg, err := config.Load(configPath, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The terminal belongs to the UI.
	cfg.Log.FileOnly = true
	if logFile != "" {
		cfg.Log.Filename = logFile
	}
	if cfg.Log.Filename == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.Log.Filename = filepath.Join(dir, "goadmin", "goadmin.log")
		}
	}
	logger, closeLog := logging.Init(cfg.Log)
	defer func() { _ = closeLog() }()

	client, err := goAdmin.New().
		WithConfig(cfg.Client).
		WithLogger(logger).
		WithAuditSink(goAdmin.NewSlogSink(logger)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build client: %w", err)
	}
	defer func() { _ = client.Close() }()

	var opts []tui.Option
	if route != "" {
		opts = append(opts, tui.WithStartRoute(route))
	}
	model := tui.New(client, namespace, opts...)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("dashboard exited: %w", err)
	}
	return nil
}
