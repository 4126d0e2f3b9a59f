package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"screen-capture-overlay/src/singleinstance"
)

type stressOptions struct {
	n        int
	parallel int
	deadline time.Duration
}

type counts struct {
	ok, busy, absent, failed atomic.Int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Stress test capture delegation to the resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := stress(cmd.Context(), singleinstance.NewClient(), opts)
			fmt.Fprintf(cmd.OutOrStdout(), "launched=%d ok=%d busy=%d absent=%d err=%d\n",
				opts.n, c.ok.Load(), c.busy.Load(), c.absent.Load(), c.failed.Load())
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "max clients in flight (0 = all at once)")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

// stress fires opts.n capture requests; only one can open the overlay at a time,
// the rest should come back busy.
func stress(ctx context.Context, client singleinstance.Client, opts *stressOptions) *counts {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &counts{}
	var g errgroup.Group
	if opts.parallel > 0 {
		g.SetLimit(opts.parallel)
	}
	for i := 0; i < opts.n; i++ {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			delegated, err := client.TryCapture(cctx)
			switch {
			case errors.Is(err, singleinstance.ErrBusy):
				c.busy.Add(1)
			case err != nil:
				c.failed.Add(1)
			case !delegated:
				c.absent.Add(1)
			default:
				c.ok.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return c
}
