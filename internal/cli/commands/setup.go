package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/querydeck/internal/catalog"
	"github.com/leapstack-labs/querydeck/internal/cli/config"
	"github.com/leapstack-labs/querydeck/internal/connection"
	"github.com/leapstack-labs/querydeck/internal/executor"
	"github.com/leapstack-labs/querydeck/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Catalog  *catalog.Store
	Conn     *connection.Manager
	Executor *executor.Executor
	State    *state.SQLiteStore // nil when history is disabled
}

// NewCommandContext loads the catalog, prepares the connection manager and
// builds the executor. The store is not contacted until the first query.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cctx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	cctx.Catalog, err = catalog.Load(cctx.Cfg.Catalog, cctx.Logger)
	if err != nil {
		return nil, nil, err
	}

	var opts []executor.Option
	if cctx.Cfg.History {
		cctx.State, err = openState(cmd, cctx)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, executor.WithRecorder(cctx.State))
	}

	cctx.Conn = connection.New(cctx.Cfg.Target.ToAdapterConfig(), cctx.Logger)
	cctx.Executor = executor.New(cctx.Catalog, cctx.Conn, cctx.Logger, opts...)

	cleanup := func() {
		if err := cctx.Conn.Disconnect(); err != nil {
			cctx.Logger.Warn("failed to close connection", "error", err)
		}
		if cctx.State != nil {
			_ = cctx.State.Close()
		}
	}
	return cctx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext with only the
// configuration and logger. Useful for commands that don't query the store.
func NewCommandContextWithoutStore(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(cmd.Context()),
	}, nil
}

// getConfig returns the configuration loaded by the root command, loading
// it from the working directory when a command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

func openState(cmd *cobra.Command, cctx *CommandContext) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(cctx.Logger)
	if err := store.Open(cmd.Context(), cctx.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// errHistoryDisabled is returned by commands that need the audit store.
var errHistoryDisabled = errors.New("execution history is disabled (set history: true in querydeck.yaml)")
