package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	verrors "github.com/vango-dev/vbind/internal/errors"
)

func codesCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "codes [code]",
		Short: "List error codes",
		Long: `List the error codes vbind reports, or explain one code.

Examples:
  vbind codes
  vbind codes --category binding
  vbind codes VB001`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if _, ok := verrors.GetTemplate(args[0]); !ok {
					return fmt.Errorf("unknown error code %q", args[0])
				}
				fmt.Fprint(out, verrors.New(args[0]).Format())
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Code", "Category", "Message"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)
			for _, code := range verrors.GetAllCodes() {
				tmpl, _ := verrors.GetTemplate(code)
				if category != "" && string(tmpl.Category) != category {
					continue
				}
				table.Append([]string{code, string(tmpl.Category), tmpl.Message})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list codes in this category")
	return cmd
}
