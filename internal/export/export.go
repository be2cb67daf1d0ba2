// Package export renders deployment reports for the one-shot status command.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/kubepulse/internal/status"
)

// Format represents the export format type.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ExportMetadata contains metadata about the export.
type ExportMetadata struct {
	GeneratedAt      time.Time `json:"generatedAt" yaml:"generatedAt"`
	KubepulseVersion string    `json:"kubepulseVersion" yaml:"kubepulseVersion"`
	ServerVersion    string    `json:"serverVersion,omitempty" yaml:"serverVersion,omitempty"`
	ServerError      string    `json:"serverError,omitempty" yaml:"serverError,omitempty"`
}

// Exporter handles exporting reports in various formats.
type Exporter struct {
	Format   Format
	Metadata ExportMetadata
}

// DetectFormat detects the export format from the file extension.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatTable
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want table, json, yaml or markdown)", s)
	}
}

// Export writes the report in the exporter's format.
func (e *Exporter) Export(report status.Report, w io.Writer) error {
	switch e.Format {
	case FormatJSON:
		return exportJSON(report, e.Metadata, w)
	case FormatYAML:
		return exportYAML(report, e.Metadata, w)
	case FormatMarkdown:
		return exportMarkdown(report, e.Metadata, w)
	case FormatTable:
		return exportTable(report, e.Metadata, w)
	default:
		return fmt.Errorf("unsupported format: %s", e.Format)
	}
}

func replicas(v *int32) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
