package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deepnoodle-ai/docdb"
	"github.com/deepnoodle-ai/docdb/config"
	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/wonton/cli"
)

// globals holds the values of the global flags
type globals struct {
	configPath string
	endpoint   string
	logLevel   string
}

func parseGlobalFlags(ctx *cli.Context) globals {
	return globals{
		configPath: ctx.String("config"),
		endpoint:   ctx.String("endpoint"),
		logLevel:   ctx.String("log-level"),
	}
}

// loadConfig reads the configuration file, if any, and applies the global
// flag overrides.
func (g globals) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, fmt.Errorf("load config %s: %w", g.configPath, err)
		}
	}
	if g.endpoint != "" {
		cfg.Client.Endpoint = g.endpoint
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

func (g globals) logger(cfg *config.Config) slogger.Logger {
	return slogger.NewWithOptions(slogger.Options{
		Level: slogger.LevelFromString(cfg.Logging.Level),
		JSON:  cfg.Logging.JSON,
	})
}

// client returns a docdb client for the configured endpoint
func (g globals) client() (*docdb.Client, *config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := docdb.New(docdb.Options{Config: cfg.Client, Logger: g.logger(cfg)})
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// signalContext is cancelled on interrupt or termination
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newApp() *cli.App {
	app := cli.New("docdb").
		Description("Serve, read, write and search docdb documents").
		Version("0.1.0").
		GlobalFlags(
			cli.String("config", "c").
				Env("DOCDB_CONFIG").
				Help("Configuration file or directory (YAML or JSON)"),
			cli.String("endpoint", "e").
				Env("DOCDB_ENDPOINT").
				Help("Server URL (default http://localhost:8040)"),
			cli.String("log-level", "").
				Env("DOCDB_LOG_LEVEL").
				Help("Log level to use (debug, info, warn, error); overrides the config file"),
		)

	registerServeCommand(app)
	registerDocumentCommands(app)
	registerSearchCommand(app)
	registerLoadCommand(app)
	registerWatchCommand(app)
	registerDiffCommand(app)
	return app
}

func main() {
	app := newApp()
	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
