package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chw3k5/mypysql/internal/config"
	"github.com/chw3k5/mypysql/internal/engine"
	"github.com/chw3k5/mypysql/internal/store"
)

// DatabaseOptions holds the flags of commands that open the database.
// Flags that are set override the config file.
type DatabaseOptions struct {
	Database    string
	Driver      string
	KeepStaging bool

	// SessionIDs allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionIDs engine.SessionIDGenerator
}

func (o *DatabaseOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database (default from config: spexodisks.db)")
	cmd.Flags().StringVar(&o.Driver, "driver", "", "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	cmd.Flags().BoolVar(&o.KeepStaging, "keep-staging", false, "keep staged results until exit")
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func resolveConfig(cmd *cobra.Command, root *RootOptions, db *DatabaseOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if root.Config != "" {
		cfg, err = config.Load(root.Config)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Path = db.Database
	}
	if flags.Changed("driver") {
		cfg.Database.Driver = db.Driver
	}
	if flags.Changed("keep-staging") {
		cfg.Engine.KeepStaging = db.KeepStaging
	}
	return cfg, nil
}

// session is an open store with an engine over it.
type session struct {
	store  *store.Store
	engine *engine.Engine
}

// close drops staged results and closes the database.
func (s *session) close(ctx context.Context) {
	if err := s.engine.Close(ctx); err != nil {
		slog.Warn("error dropping staged results", "error", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// openSession opens the database named by cfg and loads the engine.
func openSession(ctx context.Context, cfg *config.Config, db *DatabaseOptions) (*session, error) {
	slog.Debug("opening database", "path", cfg.Database.Path, "driver", cfg.Database.Driver)
	st, err := store.Open(cfg.Database.Path, store.WithDriver(cfg.Database.Driver))
	if err != nil {
		return nil, err
	}

	opts := []engine.EngineOption{
		engine.WithLogger(slog.Default()),
		engine.WithKeepStaging(cfg.Engine.KeepStaging),
		engine.WithStagingPrefix(cfg.Engine.StagingPrefix),
	}
	if db.SessionIDs != nil {
		opts = append(opts, engine.WithSessionIDGenerator(db.SessionIDs))
	}

	eng, err := engine.Load(ctx, st, cfg.Schema, opts...)
	if err != nil {
		st.Close()
		return nil, err
	}
	slog.Debug("catalog loaded", "attributes", eng.Catalog().Len())
	return &session{store: st, engine: eng}, nil
}
