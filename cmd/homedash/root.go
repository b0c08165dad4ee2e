package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"homedash/internal/config"
	"homedash/internal/connectivity"
)

var version = "dev" // Set at build time using -ldflags

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger hclog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "homedash <command> [args]",
		Short:        "Home network dashboard with connectivity monitoring.",
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to configuration file (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or off")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log)
	return nil
}

func newLogger(cfg config.LogConfig) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "homedash",
		Level:      hclog.LevelFromString(logLevel(cfg.Level)),
		JSONFormat: strings.EqualFold(cfg.Format, "json"),
		Output:     os.Stderr,
	})
}

func logLevel(level string) string {
	lvl := strings.ToLower(strings.TrimSpace(level))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return "info"
	}
}

func (a *app) newChecker() *connectivity.Checker {
	m := a.cfg.Monitor
	return connectivity.NewChecker(a.logger.Named("checker"),
		connectivity.WithSkipTLSVerify(m.SkipTLSVerify),
		connectivity.WithOriginScheme(m.OriginScheme),
		connectivity.WithDefaults(connectivity.Options{
			Timeout:    m.Timeout(),
			Retries:    m.Retries,
			RetryDelay: m.RetryDelay(),
		}),
	)
}

func (a *app) newInternetChecker() *connectivity.InternetChecker {
	m := a.cfg.Monitor
	return connectivity.NewInternetChecker(a.logger.Named("internet"), connectivity.InternetConfig{
		Method:    connectivity.InternetMethod(m.Internet.Method),
		Endpoint:  m.Internet.Endpoint,
		DNSServer: m.Internet.DNSServer,
		Timeout:   m.Internet.Timeout(),
	}, connectivity.NewHTTPClient(m.SkipTLSVerify))
}
