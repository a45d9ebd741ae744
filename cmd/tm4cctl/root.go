package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"omibyte.io/tm4c/config"
)

var (
	rootOpts = struct {
		board   string
		verbose bool
	}{}

	rootCmd = &cobra.Command{
		Use:          "tm4cctl",
		Short:        "Inspect and exercise the TM4C123 NVIC and SysTick drivers",
		Long:         "tm4cctl runs the NVIC and SysTick drivers against a simulated System Control Space, or against a mapped register window, and prints the resulting register state.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.board, "board", "b", "", "board configuration file. Default: the tm4c123gh6pm catalogue entry")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.verbose, "verbose", "v", false, "log driver activity at debug level")

	rootCmd.AddCommand(targetsCmd, regsCmd, reloadCmd, runCmd, measureCmd)
}

// loadBoard resolves the board file and builds the logger every command uses.
func loadBoard() (*config.Board, *slog.Logger, error) {
	var board *config.Board
	var err error
	if rootOpts.board != "" {
		board, err = config.Load(rootOpts.board)
	} else {
		board, err = config.Default()
	}
	if err != nil {
		return nil, nil, err
	}
	if rootOpts.verbose {
		board.Level = slog.LevelDebug
	}
	return board, board.Logger(os.Stderr), nil
}
