package export

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/ppiankov/kubepulse/internal/status"
)

var (
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")) // Green

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func renderVerdict(s string) string {
	if s == string(status.VerdictOk) {
		return okStyle.Render(s)
	}
	return failStyle.Render(s)
}

func exportTable(report status.Report, metadata ExportMetadata, w io.Writer) error {
	server := metadata.ServerVersion
	if server == "" {
		server = "unreachable"
		if metadata.ServerError != "" {
			server += " (" + metadata.ServerError + ")"
		}
	}

	if _, err := fmt.Fprintf(w, "\n=== Deployment Status ===\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Server: %s | Deployments: %d | Status: %s\n\n",
		server, countWorkloads(report), renderVerdict(string(report.Status))); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Namespace", "Deployment", "Desired", "Available", "Status"})
	for _, item := range report.Deployments {
		if err := table.Append([]string{
			item.Namespace,
			item.Name,
			replicas(item.DesiredReplicas),
			replicas(item.AvailableReplicas),
			renderVerdict(item.Status),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("generated %s by kubepulse %s",
		metadata.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"), metadata.KubepulseVersion)))
	return err
}

// countWorkloads excludes the synthetic fetch-error entry.
func countWorkloads(report status.Report) int {
	n := 0
	for _, item := range report.Deployments {
		if !item.IsFetchError() {
			n++
		}
	}
	return n
}
