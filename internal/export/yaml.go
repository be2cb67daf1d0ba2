package export

import (
	"io"

	"github.com/ppiankov/kubepulse/internal/status"
	"gopkg.in/yaml.v3"
)

// YAMLExport is the YAML counterpart of JSONExport.
type YAMLExport struct {
	Metadata ExportMetadata `yaml:"metadata"`
	Result   status.Report  `yaml:"result"`
}

func exportYAML(report status.Report, metadata ExportMetadata, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(YAMLExport{Metadata: metadata, Result: report}); err != nil {
		return err
	}
	return enc.Close()
}
