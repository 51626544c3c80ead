package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/archive"
	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/report"
	"github.com/jjenkins/motreport/internal/service"
)

var (
	lookupReg    string
	lookupOutput string
	lookupJSON   bool
	lookupUpload bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up a vehicle and write its PDF report",
	Long: `Lookup fetches a vehicle from both providers, reconciles the records,
computes test history metrics and writes a PDF report.

Examples:
  # Write AB12CDE.pdf in the current directory
  ./motreport lookup -r AB12CDE

  # Choose the output file (".pdf" is appended when missing)
  ./motreport lookup -r "AB12 CDE" -o reports/focus

  # Print the reconciled record as JSON as well
  ./motreport lookup -r AB12CDE --json

  # Upload the report to S3_ENDPOINT and print a download link
  ./motreport lookup -r AB12CDE --upload`,
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().StringVarP(&lookupReg, "reg", "r", "", "Vehicle registration")
	lookupCmd.Flags().StringVarP(&lookupOutput, "output", "o", "", "Output file (defaults to <REG>.pdf)")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "Print the reconciled record as JSON")
	lookupCmd.Flags().BoolVar(&lookupUpload, "upload", false, "Upload the report to the configured S3 bucket")
	_ = lookupCmd.MarkFlagRequired("reg")
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, cancelling lookup...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	result, err := rt.newLookup().Run(ctx, lookupReg)
	if err != nil {
		return err
	}

	if lookupJSON {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(encoded))
	}

	var buf bytes.Buffer
	renderer := report.NewRenderer(report.DefaultStyle, rt.metrics, rt.logger)
	if err := renderer.Render(&buf, result.Vehicle, result.Summary); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	output := outputPath(lookupOutput, result.Vehicle.Registration.String())
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	rt.logger.Info("Report written", zap.String("path", output), zap.Int("bytes", buf.Len()))

	var downloadURL string
	if lookupUpload {
		downloadURL, err = upload(ctx, rt, result, buf.Bytes())
		if err != nil {
			return err
		}
	}

	printSummary(result, output, downloadURL)
	return nil
}

// outputPath falls back to <REG>.pdf and appends the extension when missing
func outputPath(output, registration string) string {
	if output == "" {
		output = registration
	}
	if !strings.HasSuffix(strings.ToLower(output), ".pdf") {
		output += ".pdf"
	}
	return output
}

func upload(ctx context.Context, rt *runtime, result *service.Result, pdf []byte) (string, error) {
	if !rt.cfg.S3.Enabled() {
		return "", fmt.Errorf("--upload requires S3_ENDPOINT to be set")
	}

	reports, err := archive.NewMinIOArchive(rt.cfg.S3, rt.logger)
	if err != nil {
		return "", err
	}
	if err := reports.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := archive.ObjectKey(result.Vehicle.Registration.String(), result.ID)
	return reports.Upload(ctx, key, bytes.NewReader(pdf), int64(len(pdf)))
}

func printSummary(result *service.Result, output, downloadURL string) {
	v := result.Vehicle

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true

	table.AddRow("Registration:", v.Registration)
	table.AddRow("Vehicle:", fmt.Sprintf("%s %s", v.Make, v.Model))
	table.AddRow("Colour:", v.Colour)
	table.AddRow("Tests:", len(v.Tests))

	if s := result.Summary; s != nil {
		rate := model.Unavailable
		if r, err := s.Results.Rate(); err == nil {
			rate = fmt.Sprintf("%d%%", r)
		}
		table.AddRow("Passes / Fails:", fmt.Sprintf("%d / %d", s.Results.Passes, s.Results.Fails))
		table.AddRow("Pass rate:", rate)
		if s.HasMileage {
			table.AddRow("Average annual mileage:", fmt.Sprintf("%.0f", s.AverageAnnualMileage))
		}
		table.AddRow("Recurring faults:", len(s.RecurringFaults))
	} else {
		table.AddRow("MOT due:", v.TestDueDate.Or(model.Unavailable))
	}

	table.AddRow("Report:", output)
	if downloadURL != "" {
		table.AddRow("Download:", downloadURL)
	}

	fmt.Println(table)
}
