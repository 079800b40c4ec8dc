package main

import (
	"github.com/deepnoodle-ai/docdb/server"
	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/wonton/cli"
)

func registerServeCommand(app *cli.App) {
	app.Command("serve").
		Description("Run a docdb server").
		Long("Run the reference docdb REST server. Documents are kept in memory unless a file system or SQLite backend is configured.").
		NoArgs().
		Flags(
			cli.String("addr", "a").Env("DOCDB_ADDR").Help("Listen address (default :8040)"),
			cli.String("storage", "s").Env("DOCDB_STORAGE").Help("Storage backend (memory, filesys, sqlite)"),
			cli.String("path", "p").Env("DOCDB_STORAGE_PATH").Help("Root directory or database file of the storage backend"),
		).
		Run(func(ctx *cli.Context) error {
			g := parseGlobalFlags(ctx)
			cfg, err := g.loadConfig()
			if err != nil {
				return cli.Errorf("%v", err)
			}
			if addr := ctx.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if backend := ctx.String("storage"); backend != "" {
				cfg.Server.Storage.Backend = backend
			}
			if path := ctx.String("path"); path != "" {
				cfg.Server.Storage.Path = path
			}
			if err := cfg.Validate(); err != nil {
				return cli.Errorf("%v", err)
			}

			logger := g.logger(cfg)
			st, err := store.Open(cfg.Server.Storage)
			if err != nil {
				return cli.Errorf("%v", err)
			}
			defer st.Close()

			goCtx, stop := signalContext()
			defer stop()
			logger.Info("starting docdb server",
				"addr", cfg.Server.Addr,
				"storage", cfg.Server.Storage.Backend,
				"query_options", len(cfg.QueryOptions))
			if err := server.NewFromConfig(cfg, st, logger).ListenAndServe(goCtx); err != nil {
				return cli.Errorf("%v", err)
			}
			return nil
		})
}
