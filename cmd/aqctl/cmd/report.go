package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"smartcity-air/internal/report"
	"smartcity-air/internal/scenario"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the PDF report",
	Long: `Render the air quality report to a PDF file.

Examples:
  aqctl report --zone industrie --pollutant PM10
  aqctl report --days 30 --out ./reports
  aqctl report --remote`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	addFilterFlags(reportCmd)
	reportCmd.Flags().Int("days", 7, "report period in days")
	reportCmd.Flags().String("out", ".", "output directory")
	reportCmd.Flags().Bool("remote", false, "download from the API instead of rendering locally")
}

func runReport(cmd *cobra.Command, args []string) error {
	f := filtersFromFlags(cmd)
	days, _ := cmd.Flags().GetInt("days")
	outDir, _ := cmd.Flags().GetString("out")
	remote, _ := cmd.Flags().GetBool("remote")

	p, _ := scenario.LookupPollutant(f.Pollutant)
	now := time.Now()
	fallback := report.FileName(scenario.ZoneLabel(f.Zone), p.Label, now)

	var (
		pdf  []byte
		name string
	)
	if remote {
		q := url.Values{}
		q.Set("zone", f.Zone)
		q.Set("pollutant", f.Pollutant)
		q.Set("days", strconv.Itoa(days))
		var err error
		pdf, name, err = apiClient().Download(cmd.Context(), "/api/reports/pdf?"+q.Encode(), fallback)
		if err != nil {
			return err
		}
	} else {
		data := report.NewData(report.Params{ZoneID: f.Zone, Pollutant: p.Label, PeriodDays: days},
			scenario.ComputeOverview(now), scenario.Compute(f, now), now)
		var (
			res report.Result
			err error
		)
		pdf, res, err = report.Build(data)
		if err != nil {
			return err
		}
		name = fallback
		logger.Debug("report rendered", "pages", res.Pages, "size", res.Size)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	path := filepath.Join(outDir, filepath.Base(name))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
