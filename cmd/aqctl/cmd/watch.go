package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smartcity-air/internal/client"
	"smartcity-air/internal/scenario"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the dashboard",
	Long: `Poll the dashboard and print one line per update.

When the API is unreachable the last value is kept and the line is
marked DEMO. Stop with Ctrl+C.

Examples:
  aqctl watch --zone centre --interval 30s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addFilterFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 0, "refresh interval (default: AQ_REFRESH_INTERVAL)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	f := filtersFromFlags(cmd)
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.Interval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := apiClient()
	r := client.NewRefresher(interval, func(ctx context.Context) (scenario.Snapshot, error) {
		return api.Dashboard(ctx, f)
	}, scenario.Compute(f, time.Now()))

	out := cmd.OutOrStdout()
	r.OnUpdate(func(s client.State[scenario.Snapshot]) {
		printState(out, s)
	})

	r.Start()
	<-ctx.Done()
	r.Stop()
	return nil
}

func printState(w io.Writer, s client.State[scenario.Snapshot]) {
	mode := "LIVE"
	if s.Demo {
		mode = "DEMO"
	}
	at := s.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	snap := s.Value
	line := fmt.Sprintf("%s [%s] %s/%s/%s AQI %d",
		at.Format("15:04:05"), mode, snap.Period, snap.Zone, snap.Pollutant, snap.KPIs["AQI"].Value)
	if k, ok := snap.KPIs[snap.Pollutant]; ok {
		line += fmt.Sprintf(" %s %d%s (%s)", snap.Pollutant, k.Value, k.Unit, k.Delta)
	}
	if s.Err != nil {
		line += " error: " + s.Err.Error()
	}
	fmt.Fprintln(w, line)
}
