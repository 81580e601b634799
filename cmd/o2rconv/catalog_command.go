package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"o2rconv/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the built-in ROM catalog",
	}
	catalogCmd.AddCommand(newCatalogListCommand())
	return catalogCmd
}

func newCatalogListCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "list",
		Short:       "List supported ROM releases",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := catalog.Entries()
			if jsonOutput {
				return writeCatalogJSON(cmd, entries)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(catalogColumns, entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
