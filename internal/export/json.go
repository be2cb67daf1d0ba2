package export

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/kubepulse/internal/status"
)

// JSONExport wraps the report with metadata for JSON output.
type JSONExport struct {
	Metadata ExportMetadata `json:"metadata"`
	Result   status.Report  `json:"result"`
}

func exportJSON(report status.Report, metadata ExportMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(JSONExport{Metadata: metadata, Result: report})
}
