package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/training-crm-api/internal/domain/permission"
)

func newCatalogCmd() *cobra.Command {
	var (
		role   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Lista las capacidades conocidas, agrupadas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs := permission.Catalog()
			if role != "" {
				granted := make(map[permission.Capability]bool)
				for _, c := range permission.DefaultsForRole(role) {
					granted[c] = true
				}
				filtered := defs[:0:0]
				for _, d := range defs {
					if granted[d.Capability] {
						filtered = append(filtered, d)
					}
				}
				defs = filtered
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tCAPABILITY\tLABEL")
			for _, d := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Group, d.Capability, d.Label)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Sólo las capacidades por defecto del rol (admin, salesperson, expert)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Salida en JSON")
	return cmd
}
