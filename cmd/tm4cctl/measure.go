package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"omibyte.io/tm4c/sim"
	"omibyte.io/tm4c/systick"
)

var (
	measureOpts = struct {
		ms       uint32
		count    int
		interval time.Duration
		quiet    bool
	}{}

	measureCmd = &cobra.Command{
		Use:   "measure",
		Short: "Run the periodic SysTick interrupt in real time and report callback jitter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			board, log, err := loadBoard()
			if err != nil {
				return err
			}
			if measureOpts.count < 2 {
				return errors.New("count must be at least 2")
			}
			if _, err := systick.Reload(measureOpts.ms, board.ClockHz); err != nil {
				return err
			}

			s := sim.New(sim.Options{ClockHz: board.ClockHz, Logger: log})
			timer := systick.New(s, board.SysTickOptions(log, nil))
			s.Handle(sim.VectorSysTick, timer.InterruptEntry)

			var bar *progressbar.ProgressBar
			if !measureOpts.quiet {
				bar = progressbar.Default(int64(measureOpts.count), "measuring")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			intervals := make([]float64, 0, measureOpts.count)
			var last time.Time
			var once sync.Once
			timer.RegisterCallback(func() {
				now := time.Now()
				if !last.IsZero() && len(intervals) < measureOpts.count {
					intervals = append(intervals, float64(now.Sub(last))/float64(time.Millisecond))
					if bar != nil {
						bar.Add(1)
					}
				}
				last = now
				if len(intervals) == measureOpts.count {
					once.Do(cancel)
				}
			})

			timer.InitPeriodicInterrupt(measureOpts.ms)

			// Run returns once the callback has collected enough samples, so
			// intervals is not touched concurrently after this point.
			if err := s.Run(ctx, measureOpts.interval); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			timer.DeInit()
			if bar != nil {
				bar.Finish()
			}

			if len(intervals) < 2 {
				return errors.New("interrupted before enough samples were collected")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summarize(measureOpts.ms, intervals))
			return err
		},
	}
)

// summarize describes callback intervals given in milliseconds.
func summarize(ms uint32, intervals []float64) string {
	mean, std := stat.MeanStdDev(intervals, nil)
	return fmt.Sprintf("period %d ms, %d samples: mean %.3f ms, stddev %.3f ms, min %.3f ms, max %.3f ms",
		ms, len(intervals), mean, std, floats.Min(intervals), floats.Max(intervals))
}

func init() {
	measureCmd.Flags().Uint32Var(&measureOpts.ms, "ms", 10, "SysTick period in milliseconds")
	measureCmd.Flags().IntVar(&measureOpts.count, "count", 100, "number of intervals to sample")
	measureCmd.Flags().DurationVar(&measureOpts.interval, "interval", 100*time.Microsecond, "simulator pacing interval")
	measureCmd.Flags().BoolVarP(&measureOpts.quiet, "quiet", "q", false, "do not show progress")
}
