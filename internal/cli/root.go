// Package cli provides the command-line interface for querydeck.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/querydeck/internal/cli/commands"
	"github.com/leapstack-labs/querydeck/internal/cli/config"
	"github.com/spf13/cobra"

	// Register the store adapters selectable through target.type.
	_ "github.com/leapstack-labs/querydeck/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/querydeck/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/querydeck/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/querydeck/pkg/adapters/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile    string
		targetFlag string
	)

	rootCmd := &cobra.Command{
		Use:   "querydeck",
		Short: "querydeck - named SQL queries, reports and charts",
		Long: `querydeck runs named, parameterized SQL queries from a JSON catalog
against MySQL, PostgreSQL, SQLite or DuckDB, and turns the results into
tables, CSV/XLSX exports, charts and a markdown insights digest.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			flags := cmd.Root().PersistentFlags()
			level, _ := flags.GetString("log-level")
			format, _ := flags.GetString("log-format")
			verbose, _ := flags.GetBool("verbose")
			logger := config.NewLogger(cmd.ErrOrStderr(), level, format, verbose)

			cfg, err := config.LoadConfigWithTarget(cfgFile, targetFlag, flags, logger)
			if err != nil {
				return err
			}
			logger = config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat, cfg.Verbose)

			if file := config.GetConfigFileUsed(); file != "" {
				logger.Debug("using config file", "path", file)
			}
			if targetFlag != "" {
				logger.Debug("using environment", "name", targetFlag)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, config.LoggerKey(), logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: querydeck.yaml, searched upward)")
	pf.StringVarP(&targetFlag, "target", "t", "", "Environment whose target to use (e.g. dev, staging, prod)")
	pf.String("catalog", "", "Path to the query catalog (.json or .yaml)")
	pf.String("output-dir", "", "Directory for report exports")
	pf.String("state", "", "Path to the audit state database")
	pf.String("env", "", "Environment name recorded with report runs")
	pf.BoolP("verbose", "v", false, "Verbose output (debug logging)")
	pf.String("log-level", config.DefaultLogLevel, "Log level (debug|info|warn|error)")
	pf.String("log-format", config.DefaultLogFormat, "Log format (text|json)")
	pf.StringP("output", "o", "", "Output format (auto|table|json|csv|md)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"dev", "staging", "prod"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, printing any error to stderr.
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for querydeck.

To load completions:

Bash:
  $ source <(querydeck completion bash)

Zsh:
  $ querydeck completion zsh > "${fpath[1]}/_querydeck"

Fish:
  $ querydeck completion fish | source

PowerShell:
  PS> querydeck completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
