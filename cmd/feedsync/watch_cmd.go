package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/events"
	"github.com/Leitan123/SmartScholarsPAF/feed"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// newWatchCmd keeps a feed tab on screen, reloading it periodically and
// drawing again whenever the holder reports a change.
func newWatchCmd() *cobra.Command {
	var tabName string
	var interval time.Duration
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a feed tab on screen and reload it periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			tab, err := a.tab(tabName)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			ctx := cmd.Context()
			if metricsAddr != "" {
				serveMetrics(metricsAddr)
			}
			bus := a.withBus()
			defer a.close()

			updates, err := bus.Subscribe(ctx, events.TopicFeed)
			if err != nil {
				return err
			}
			h := a.feedHolder(feed.WithBus(bus))
			defer h.Close()

			reload := func() {
				go func() {
					if err := h.SwitchTab(ctx, tab); err != nil && !errors.Is(err, feed.ErrSuperseded) && !errors.Is(err, feed.ErrClosed) {
						Logger.Log.WithError(err).Debug("reload failed")
					}
				}()
			}
			reload()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			// Coalesces bursts of per-post events into a single redraw.
			redraw := time.NewTimer(time.Hour)
			redraw.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					reload()
				case _, ok := <-updates:
					if !ok {
						return nil
					}
					redraw.Reset(100 * time.Millisecond)
				case <-redraw.C:
					snap := h.Snapshot()
					if snap.Loading {
						continue
					}
					fmt.Fprint(a.out, "\033[H\033[2J")
					renderFeed(a.out, a.setting.BASE_URL, snap, false)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&tabName, "tab", "t", "", "following, all or my")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "reload period")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve request metrics on this address, e.g. :2112")
	return cmd
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(clients.Registry(), promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			Logger.Log.WithError(err).Error("metrics server stopped")
		}
	}()
}
