package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smartcity-air/internal/client"
	"smartcity-air/internal/scenario"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Push simulated sensor readings",
	Long: `Send one reading per zone (centre, industrie, nord) every interval
to /api/iot/ingest. Failed sends are logged and the loop continues.

Examples:
  aqctl simulate --interval 5s
  aqctl simulate --count 10`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Duration("interval", 5*time.Second, "delay between rounds")
	simulateCmd.Flags().Int("count", 0, "number of rounds, 0 runs until interrupted")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	count, _ := cmd.Flags().GetInt("count")
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := apiClient()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 0; count == 0 || tick < count; tick++ {
		sent := simulateRound(ctx, api, tick, time.Now())
		fmt.Fprintf(cmd.OutOrStdout(), "round %d: %d/%d readings sent\n", tick, sent, len(scenario.SimulatedZones))

		if count != 0 && tick+1 >= count {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func simulateRound(ctx context.Context, api *client.Client, tick int, at time.Time) int {
	sent := 0
	for _, zone := range scenario.SimulatedZones {
		r := scenario.SimulatedReading(zone, tick, at)
		if err := api.Ingest(ctx, r); err != nil {
			logger.Warn("failed to send reading", "zone", zone, "error", err)
			continue
		}
		logger.Debug("reading sent", "zone", zone, "pm25", r.PM25, "aqi", r.AQI)
		sent++
	}
	return sent
}
