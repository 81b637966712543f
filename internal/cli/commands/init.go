package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a new querydeck project",
		Long: `Create a querydeck project with a SQLite target, the sales analysis
query catalog and the sample sales data.

This creates:
  - querydeck.yaml      configuration
  - queries.json        query catalog
  - data/raw_sales_data.csv  sample sales records`,
		Example: `  # Initialize in the current directory
  querydeck init

  # Initialize in a new directory and load the sample data
  querydeck init demo && cd demo && querydeck seed --create-tables`,
		Args: cobra.MaximumNArgs(1),
		// Runs before a project exists, so skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "querydeck.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	files, err := copyTemplate("project", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	w := cmd.OutOrStdout()
	for _, f := range files {
		_, _ = fmt.Fprintf(w, "  created %s\n", f)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "querydeck project initialized.")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintln(w, "  querydeck seed --create-tables   Load the sample data into data/sales.db")
	_, _ = fmt.Fprintln(w, "  querydeck list                   Show the queries in the catalog")
	_, _ = fmt.Fprintln(w, "  querydeck query top_products -p limit=5")
	_, _ = fmt.Fprintln(w, "  querydeck report                 Export, chart and summarize every report")
	return nil
}
