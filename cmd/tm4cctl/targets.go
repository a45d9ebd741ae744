package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"omibyte.io/tm4c/targets"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List supported devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERIES\tCPU\tCLOCK\tIRQS\tPRIO BITS\tCHIPS")
		for _, t := range targets.All() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", t.Series, t.Cpu, t.SysTickClockHz, t.IRQCount, t.PriorityBits, strings.Join(t.Chips, ","))
		}
		return w.Flush()
	},
}
