package commands

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	errAddIgnored    = errors.New("participant not added: name must not be blank and amount must be a non-negative number")
	errRemoveIgnored = errors.New("participant not removed: no participant at that position")
)

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME AMOUNT",
		Short: "Record that NAME paid AMOUNT",
		Long: "Record that NAME paid AMOUNT.\n\n" +
			"Each participant gets a palette color that is not reused until the palette\n" +
			"runs out. Colors are tracked per run, so separate invocations may repeat\n" +
			"a color already shown by list.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := a.registry.Add(cmd.Context(), args[0], args[1])
			if !ok {
				return errAddIgnored
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s paid %s\n",
				a.registry.Len(), p.Name, a.format.FormatCurrency(p.Amount))
			return nil
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove POSITION",
		Short: "Remove the participant at POSITION, as printed by list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			list := a.registry.Snapshot()
			if !a.registry.Remove(cmd.Context(), pos-1) {
				return errRemoveIgnored
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", list[pos-1].Name)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List participants in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := a.registry.Snapshot()
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no participants")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for i, p := range list {
				fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\n", i+1, p.Name, a.format.FormatCurrency(p.Amount), p.Color)
			}
			return tw.Flush()
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := a.registry.Len()
			a.registry.Reset(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d participants\n", n)
			return nil
		},
	}
}
