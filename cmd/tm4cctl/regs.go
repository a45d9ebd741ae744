package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/tm4c/regmap"
	"omibyte.io/tm4c/svd"
	"omibyte.io/tm4c/targets"
)

var (
	regsOpts = struct {
		target string
		svd    string
	}{}

	regsCmd = &cobra.Command{
		Use:   "regs",
		Short: "Print the register map used by the drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			board, _, err := loadBoard()
			if err != nil {
				return err
			}
			target := board.Target
			if regsOpts.target != "" {
				if target, err = targets.All().Find(regsOpts.target); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s (%s), %d IRQs, SCS at %#x\n", target.Series, target.Cpu, target.IRQCount, target.SCSBase)
			for _, r := range regmap.All() {
				fmt.Fprintf(out, "%-10s 0x%08x\n", r.Name, r.Addr)
			}

			if regsOpts.svd != "" {
				dev, err := svd.Load(regsOpts.svd)
				if err != nil {
					return err
				}
				if err := svd.Check(dev, target); err != nil {
					return err
				}
				fmt.Fprintf(out, "# register map matches %s\n", dev.Name)
			}
			return nil
		},
	}
)

func init() {
	regsCmd.Flags().StringVarP(&regsOpts.target, "target", "t", "", "chip or series name. Default: the board target")
	regsCmd.Flags().StringVar(&regsOpts.svd, "svd", "", "check the register map against a CMSIS SVD file")
}
