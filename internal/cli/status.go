package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"github.com/ppiankov/kubepulse/internal/export"
	"github.com/ppiankov/kubepulse/internal/logging"
	"github.com/ppiankov/kubepulse/internal/status"
	"github.com/ppiankov/kubepulse/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var statusConfig struct {
	output     string
	exportFile string
	obfuscate  bool
	timeout    time.Duration
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the API server version and a one-shot Deployment health report",
	Long: `Query the cluster once and print the same report GET /deployments serves.

A Deployment is Ok only when its available replicas equal its desired replicas.
The command exits 1 when any Deployment is Failed or the list cannot be fetched,
which makes it usable as a CI gate or a readiness script.

Examples:
  # Table output
  kubepulse status

  # JSON on stdout, and a Markdown copy for the incident channel
  kubepulse status -o json --export-file report.md

  # Share a report without revealing namespace or workload names
  kubepulse status --obfuscate --export-file report.yaml`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusConfig.output, "output", "o", "table", "Output format: table|json|yaml|markdown")
	statusCmd.Flags().StringVar(&statusConfig.exportFile, "export-file", "", "Also write the report to a file (format from extension)")
	statusCmd.Flags().BoolVar(&statusConfig.obfuscate, "obfuscate", false, "Replace namespace and Deployment names with stable hashes")
	statusCmd.Flags().DurationVar(&statusConfig.timeout, "timeout", 30*time.Second, "Timeout for cluster requests")
}

// statusOptions is the resolved form of the status flags.
type statusOptions struct {
	format     export.Format
	exportFile string
	obfuscate  bool
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(statusConfig.output)
	if err != nil {
		return util.WithExitCode(util.ExitInvalidInput, err)
	}

	logCfg, err := loggingConfig(viper.GetViper())
	if err != nil {
		return util.WithExitCode(util.ExitInvalidInput, err)
	}
	// Keep stdout-oriented output quiet unless a level was asked for.
	if !IsVerbose() && !viper.IsSet(keyLogLevel) {
		logCfg.Level = "warn"
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return util.WithExitCode(util.ExitInvalidInput, err)
	}
	defer func() { _ = log.Sync() }()

	if IsVerbose() {
		fmt.Fprintln(os.Stderr, "[kubepulse] Building Kubernetes client...")
	}
	client, err := util.BuildKubeClient(GetKubeconfig())
	if err != nil {
		return util.WithExitCode(util.ExitRuntimeError, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusConfig.timeout)
	defer cancel()

	return printStatus(ctx, client, statusOptions{
		format:     format,
		exportFile: statusConfig.exportFile,
		obfuscate:  statusConfig.obfuscate,
	}, cmd.OutOrStdout(), log)
}

// printStatus writes the report to out and, when requested, to the export
// file. It returns an ExitPolicyFail error when the report is not Ok.
func printStatus(ctx context.Context, client cluster.Client, opts statusOptions, out io.Writer, log *zap.Logger) error {
	meta := export.ExportMetadata{
		GeneratedAt:      time.Now().UTC(),
		KubepulseVersion: version,
	}
	if v, err := client.ServerVersion(ctx); err != nil {
		log.Warn("failed to get Kubernetes version", zap.Error(err))
		meta.ServerError = err.Error()
	} else {
		meta.ServerVersion = v
	}

	report := status.NewAggregator(client, log).Report(ctx)
	report = util.NewObfuscator(opts.obfuscate).Report(report)

	exporter := export.Exporter{Format: opts.format, Metadata: meta}
	if err := exporter.Export(report, out); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if opts.exportFile != "" {
		if err := writeExportFile(opts.exportFile, report, meta); err != nil {
			return util.WithExitCode(util.ExitRuntimeError, err)
		}
		if IsVerbose() {
			fmt.Fprintf(os.Stderr, "[kubepulse] Report exported to %s\n", opts.exportFile)
		}
	}

	if !report.Healthy() {
		return util.WithExitCode(util.ExitPolicyFail, fmt.Errorf("%d of %d deployments are not healthy", failedCount(report), len(report.Deployments)))
	}
	return nil
}

func writeExportFile(path string, report status.Report, meta export.ExportMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	exporter := export.Exporter{Format: export.DetectFormat(path), Metadata: meta}
	if err := exporter.Export(report, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("export to %s: %w", path, err)
	}
	return f.Close()
}

func failedCount(report status.Report) int {
	n := 0
	for _, item := range report.Deployments {
		if !item.Healthy() {
			n++
		}
	}
	return n
}
