package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/snapshot"
)

func evalCmd(e *env) *cobra.Command {
	var (
		scopeFile  string
		snapshotID string
		table      bool
		printOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "eval [tree.json]",
		Short: "Evaluate an expression tree",
		Long: `Evaluate a JSON expression tree against a scope document.

The tree is read from the given file, or from stdin when the file is
omitted or "-". The scope is a YAML or JSON mapping read with --scope,
or a stored snapshot selected with --snapshot.

Examples:
  vbind eval tree.json --scope scope.yaml
  echo '{"type":"AccessScope","name":"title"}' | vbind eval --snapshot 6f1c...
  vbind eval tree.json --table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runEval(cmd, e, path, scopeFile, snapshotID, table, printOnly)
		},
	}

	cmd.Flags().StringVarP(&scopeFile, "scope", "s", "", "Scope document (YAML or JSON)")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Load the scope from a stored snapshot")
	cmd.Flags().BoolVarP(&table, "table", "t", false, "Print the result as a table")
	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print the expression source without evaluating")
	cmd.MarkFlagsMutuallyExclusive("scope", "snapshot")

	return cmd
}

func runEval(cmd *cobra.Command, e *env, path, scopeFile, snapshotID string, table, printOnly bool) error {
	out := cmd.OutOrStdout()

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	expr, err := ast.Decode(data)
	if err != nil {
		return err
	}
	if printOnly {
		fmt.Fprintln(out, expr.String())
		return nil
	}

	scope, err := loadScope(cmd, e, scopeFile, snapshotID)
	if err != nil {
		return err
	}

	cfg := e.config.AppConfig()
	cfg.BindingContext = scope
	cfg.Logger = e.logger
	app := vbind.New(cfg)

	value, err := app.Eval(expr, nil)
	if err != nil {
		return err
	}
	if table {
		return renderValueTable(out, expr, value)
	}
	return writeValue(out, value)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func loadScope(cmd *cobra.Command, e *env, scopeFile, snapshotID string) (*reactive.Object, error) {
	switch {
	case scopeFile != "":
		data, err := os.ReadFile(scopeFile)
		if err != nil {
			return nil, err
		}
		return snapshot.Decode(data)
	case snapshotID != "":
		store, err := e.openStore(cmd.Context())
		if err != nil {
			return nil, err
		}
		return snapshot.LoadObject(cmd.Context(), store, snapshotID)
	}
	return reactive.NewObject(), nil
}

// writeValue prints value as JSON, or "undefined".
func writeValue(w io.Writer, value any) error {
	if reactive.IsUndefined(value) {
		_, err := fmt.Fprintln(w, "undefined")
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot.Plain(value))
}

func renderValueTable(w io.Writer, expr ast.Expr, value any) error {
	rendered := "undefined"
	if !reactive.IsUndefined(value) {
		data, err := json.Marshal(snapshot.Plain(value))
		if err != nil {
			return err
		}
		rendered = string(data)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Expression", "Type", "Value"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.Append([]string{expr.String(), reactive.TypeOf(value), rendered})
	table.Render()
	return nil
}
