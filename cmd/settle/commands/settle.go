package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) settleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Print the fair share and the payments that settle every balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.registry.Settle(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total spent: %s\n", a.format.FormatCurrency(res.Total))
			fmt.Fprintf(out, "Each pays:   %s\n", a.format.FormatCurrency(res.FairShare))

			if len(res.Transactions) == 0 {
				fmt.Fprintln(out, "Nothing to settle.")
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
			for _, t := range res.Transactions {
				fmt.Fprintf(tw, "%s\tpays\t%s\t%s\n",
					t.Debtor.Name, t.Creditor.Name, a.format.FormatCurrency(t.Amount))
			}
			return tw.Flush()
		},
	}
}
