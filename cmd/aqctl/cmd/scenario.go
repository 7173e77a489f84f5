package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smartcity-air/internal/scenario"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Print the dashboard scenario as JSON",
	Long: `Print the dashboard data for the given filters.

The scenario is computed locally unless --remote is set.

Examples:
  aqctl scenario --period 7d --zone nord --pollutant NO2
  aqctl scenario --at 2026-10-19T14:32:00Z
  aqctl scenario --remote`,
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)

	addFilterFlags(scenarioCmd)
	scenarioCmd.Flags().String("at", "", "minute to compute, RFC3339 (default: now)")
	scenarioCmd.Flags().Bool("remote", false, "fetch from the API instead of computing locally")
	scenarioCmd.Flags().Float64("noise", 1, "noise scale for the local generator")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("period", "24h", "period: 1h, 24h or 7d")
	cmd.Flags().String("zone", "all", "zone: all, centre, industrie or nord")
	cmd.Flags().String("pollutant", "PM25", "pollutant: PM25, PM10, NO2, O3 or SO2")
}

func filtersFromFlags(cmd *cobra.Command) scenario.Filters {
	period, _ := cmd.Flags().GetString("period")
	zone, _ := cmd.Flags().GetString("zone")
	pollutant, _ := cmd.Flags().GetString("pollutant")
	return scenario.Filters{Period: period, Zone: zone, Pollutant: pollutant}.Normalize()
}

func runScenario(cmd *cobra.Command, args []string) error {
	f := filtersFromFlags(cmd)
	remote, _ := cmd.Flags().GetBool("remote")
	atFlag, _ := cmd.Flags().GetString("at")
	noise, _ := cmd.Flags().GetFloat64("noise")

	var snap scenario.Snapshot
	if remote {
		var err error
		snap, err = apiClient().Dashboard(cmd.Context(), f)
		if err != nil {
			return err
		}
	} else {
		at := time.Now()
		if atFlag != "" {
			parsed, err := time.Parse(time.RFC3339, atFlag)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
			at = parsed
		}
		snap = scenario.NewEngine(scenario.DefaultTuning().WithNoiseScale(noise)).Compute(f, at)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
