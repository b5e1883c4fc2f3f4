package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/guttosm/tradebridge/config"
	"github.com/guttosm/tradebridge/internal/app"
	"github.com/guttosm/tradebridge/internal/registry"
)

func newSymbolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "Print the terminal symbol to venue contract mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.LoadRegistry(cmd.Context(), config.AppConfig)
			if err != nil {
				return err
			}
			return printSymbols(cmd.OutOrStdout(), reg)
		},
	}
}

func printSymbols(w io.Writer, reg *registry.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tCONID\tSYMBOL\tCURRENCY")
	for _, m := range reg.All() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", m.TerminalCode, m.ContractID, m.VenueSymbol, m.Currency)
	}
	return tw.Flush()
}
