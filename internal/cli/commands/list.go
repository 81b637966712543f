package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/querydeck/internal/catalog"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list [name]",
		Short: "List the queries in the catalog",
		Long: `List every query in the catalog with its description and parameters,
in catalog order. Given a name, show that query's SQL as well.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown

Use --format to override: table, json, csv, md`,
		Example: `  # List all queries
  querydeck list

  # Show one query
  querydeck list top_products

  # List queries as JSON
  querydeck list -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, json, csv, md (default: output config)")
	return cmd
}

type queryInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	SQL         string   `json:"sql,omitempty"`
}

func runList(cmd *cobra.Command, args []string, format string) error {
	cctx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}
	store, err := catalog.Load(cctx.Cfg.Catalog, cctx.Logger)
	if err != nil {
		return err
	}
	if format == "" {
		format = cctx.Cfg.OutputFormat
	}
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		def, err := store.Lookup(args[0])
		if err != nil {
			return err
		}
		return showQuery(w, def, resolveFormat(format, w))
	}

	defs := store.Definitions()
	if resolveFormat(format, w) == formatJSON {
		infos := make([]queryInfo, len(defs))
		for i, d := range defs {
			infos[i] = queryInfo{Name: d.Name, Description: d.Description, Params: paramsOrEmpty(d.Params)}
		}
		return writeJSON(w, infos)
	}

	rows := make([]core.Row, len(defs))
	for i, d := range defs {
		rows[i] = core.Row{
			"name":        d.Name,
			"description": d.Description,
			"params":      strings.Join(d.Params, ", "),
		}
	}
	return renderResults(w, core.NewResultTable(&core.RowSet{
		Columns: []string{"name", "description", "params"},
		Rows:    rows,
	}), format)
}

func showQuery(w io.Writer, def core.QueryDefinition, format string) error {
	if format == formatJSON {
		return writeJSON(w, queryInfo{
			Name:        def.Name,
			Description: def.Description,
			Params:      paramsOrEmpty(def.Params),
			SQL:         def.SQL,
		})
	}

	params := "(none)"
	if len(def.Params) > 0 {
		params = strings.Join(def.Params, ", ")
	}
	_, _ = fmt.Fprintf(w, "Name:        %s\n", def.Name)
	_, _ = fmt.Fprintf(w, "Description: %s\n", def.Description)
	_, _ = fmt.Fprintf(w, "Parameters:  %s\n\n", params)
	_, _ = fmt.Fprintln(w, strings.TrimSpace(def.SQL))
	return nil
}

func paramsOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
