package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/tm4c/mmio"
	"omibyte.io/tm4c/regmap"
	"omibyte.io/tm4c/scenario"
)

var (
	runOpts = struct {
		mem string
	}{}

	runCmd = &cobra.Command{
		Use:   "run scenario.yaml",
		Short: "Run a scenario and print the final register state",
		Long:  "Run a scenario against the simulator, or against a shared register window file when --mem is given, and print every non-zero register.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, log, err := loadBoard()
			if err != nil {
				return err
			}
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if sc.Target == "" {
				sc.Target = board.Target.Series
			}
			if sc.ClockHz == 0 {
				sc.ClockHz = board.ClockHz
			}
			sc.Strict = sc.Strict || board.Strict

			var m scenario.Machine
			if runOpts.mem != "" {
				window, err := mmio.OpenMapped(runOpts.mem, regmap.SCSBase, regmap.SCSSize)
				if err != nil {
					return fmt.Errorf("open register window: %w", err)
				}
				defer window.Close()
				m = scenario.Machine{Bus: window}
				log.Info("using mapped register window", "path", runOpts.mem)
			} else {
				m = scenario.Simulated(sc.ClockHz, log)
			}

			report, err := sc.Run(m, log)
			if err != nil {
				return err
			}
			return report.Format(cmd.OutOrStdout())
		},
	}
)

func init() {
	runCmd.Flags().StringVar(&runOpts.mem, "mem", "", "file backing the System Control Space page (co-simulation shared memory)")
}
