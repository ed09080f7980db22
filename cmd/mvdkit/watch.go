package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/mvdkit/watch"
)

func watchCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-check documents whenever they change",
		Long: `Watch a directory tree and decode each document again once it has been
quiet for the configured debounce period. Unchanged content is not
re-checked. With a metrics address, Prometheus metrics are served on
/metrics while watching.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr != "" {
				a.cfg.Metrics.Addr = metricsAddr
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			w, err := watch.New(a.cfg.Watch, args[0], a.logger)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Stop()

			checker := watch.NewChecker(a.logger, a.codecOptions()...)
			out := cmd.OutOrStdout()

			// Check what is already there, then record hashes so that only
			// real changes are reported
			found, err := w.Seed()
			if err != nil {
				return fmt.Errorf("scan %s: %w", args[0], err)
			}
			for _, rel := range found {
				report(out, checker.Check(watch.Event{Path: rel, AbsPath: filepath.Join(args[0], rel), Operation: watch.OpCreate}))
			}

			if addr := a.cfg.Metrics.Addr; addr != "" {
				go func() {
					if err := a.registry.Serve(ctx, addr, a.logger); err != nil {
						a.logger.Error("Metrics server stopped", "error", err)
					}
				}()
			}

			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			checker.Run(ctx, w.Events(), func(r watch.Report) {
				report(out, r)
			})

			if dropped := w.DroppedEvents(); dropped > 0 {
				a.logger.Warn("Watch events were dropped", "count", dropped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	return cmd
}

func report(out io.Writer, r watch.Report) {
	switch {
	case r.Event.Operation == watch.OpDelete:
		fmt.Fprintf(out, "%s: removed\n", r.Event.Path)
	case r.Err != nil:
		fmt.Fprintf(out, "%s: %v\n", r.Event.Path, r.Err)
	case len(r.Diagnostics) == 0:
		fmt.Fprintf(out, "%s: ok\n", r.Event.Path)
	default:
		for _, d := range r.Diagnostics {
			fmt.Fprintf(out, "%s: %s\n", r.Event.Path, d)
		}
	}
}
