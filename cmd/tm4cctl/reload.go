package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/tm4c/systick"
)

var (
	reloadOpts = struct {
		ms      uint32
		clockHz uint32
	}{}

	reloadCmd = &cobra.Command{
		Use:   "reload",
		Short: "Compute the SysTick reload value for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			board, _, err := loadBoard()
			if err != nil {
				return err
			}
			clock := board.ClockHz
			if reloadOpts.clockHz != 0 {
				clock = reloadOpts.clockHz
			}

			reload, err := systick.Reload(reloadOpts.ms, clock)
			if err != nil {
				return fmt.Errorf("%w (longest period at %d Hz is %d ms)", err, clock, systick.MaxDuration(clock))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d ms at %d Hz: reload %d (%#x)\n", reloadOpts.ms, clock, reload, reload)
			return nil
		},
	}
)

func init() {
	reloadCmd.Flags().Uint32Var(&reloadOpts.ms, "ms", 1, "period in milliseconds")
	reloadCmd.Flags().Uint32Var(&reloadOpts.clockHz, "clock", 0, "SysTick clock in Hz. Default: the board clock")
}
