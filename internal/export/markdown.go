package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/ppiankov/kubepulse/internal/status"
)

func exportMarkdown(report status.Report, metadata ExportMetadata, w io.Writer) error {
	var b strings.Builder

	b.WriteString("# kubepulse Report\n\n")
	fmt.Fprintf(&b, "- **Generated:** %s\n", metadata.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **kubepulse:** %s\n", metadata.KubepulseVersion)
	if metadata.ServerVersion != "" {
		fmt.Fprintf(&b, "- **API server:** %s\n", metadata.ServerVersion)
	} else {
		fmt.Fprintf(&b, "- **API server:** unreachable %s\n", metadata.ServerError)
	}
	fmt.Fprintf(&b, "- **Status:** %s\n\n", report.Status)
	b.WriteString("## Deployments\n\n")

	if len(report.Deployments) == 0 {
		b.WriteString("_No deployments found._\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header([]string{"Namespace", "Deployment", "Desired", "Available", "Status"})
	for _, item := range report.Deployments {
		if err := table.Append([]string{
			escapeCell(item.Namespace),
			escapeCell(item.Name),
			replicas(item.DesiredReplicas),
			replicas(item.AvailableReplicas),
			escapeCell(item.Status),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// escapeCell keeps a value inside its cell; the markdown renderer writes
// pipes through unchanged.
func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
