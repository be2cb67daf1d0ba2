package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/kubepulse/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func int32Ptr(v int32) *int32 { return &v }

func sampleReport() status.Report {
	return status.Report{
		Status: status.VerdictFailed,
		Deployments: []status.Item{
			{Namespace: "billing", Name: "api", Status: "Ok", DesiredReplicas: int32Ptr(2), AvailableReplicas: int32Ptr(2)},
			{Namespace: "web", Name: "frontend", Status: "Failed", DesiredReplicas: int32Ptr(3), AvailableReplicas: int32Ptr(1)},
		},
	}
}

func sampleMetadata() ExportMetadata {
	return ExportMetadata{
		GeneratedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		KubepulseVersion: "1.2.3",
		ServerVersion:    "v1.30.2",
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"json extension", "output.json", FormatJSON},
		{"yaml extension", "output.yaml", FormatYAML},
		{"yml extension", "output.YML", FormatYAML},
		{"markdown extension", "output.md", FormatMarkdown},
		{"markdown full", "output.markdown", FormatMarkdown},
		{"text extension", "output.txt", FormatTable},
		{"no extension", "output", FormatTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"table": FormatTable,
		"JSON":  FormatJSON,
		"yml":   FormatYAML,
		"md":    FormatMarkdown,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	exporter := Exporter{Format: FormatJSON, Metadata: sampleMetadata()}
	require.NoError(t, exporter.Export(sampleReport(), &buf))

	var decoded JSONExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "v1.30.2", decoded.Metadata.ServerVersion)
	assert.Equal(t, sampleReport(), decoded.Result)

	// the report keeps its HTTP wire shape inside the wrapper
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Contains(t, raw["result"], "Deployments")
	assert.Contains(t, raw["result"], "Status")
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	exporter := Exporter{Format: FormatYAML, Metadata: sampleMetadata()}
	require.NoError(t, exporter.Export(sampleReport(), &buf))

	var decoded YAMLExport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "1.2.3", decoded.Metadata.KubepulseVersion)
	assert.Equal(t, sampleReport(), decoded.Result)
	assert.Contains(t, buf.String(), "desired_replicas: 3")
}

func TestExportTable(t *testing.T) {
	var buf bytes.Buffer
	exporter := Exporter{Format: FormatTable, Metadata: sampleMetadata()}
	require.NoError(t, exporter.Export(sampleReport(), &buf))

	out := buf.String()
	assert.Contains(t, out, "=== Deployment Status ===")
	assert.Contains(t, out, "Server: v1.30.2 | Deployments: 2")
	assert.Contains(t, out, "frontend")
	assert.Contains(t, out, "billing")
	assert.Contains(t, out, "kubepulse 1.2.3")
}

func TestExportTable_FetchError(t *testing.T) {
	var buf bytes.Buffer
	meta := sampleMetadata()
	meta.ServerVersion = ""
	meta.ServerError = "connection refused"
	exporter := Exporter{Format: FormatTable, Metadata: meta}

	require.NoError(t, exporter.Export(status.FromError(errors.New("connection refused")), &buf))

	out := buf.String()
	assert.Contains(t, out, "Server: unreachable (connection refused) | Deployments: 0")
	assert.Contains(t, out, "Error fetching deployments")
}

func TestExportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	exporter := Exporter{Format: FormatMarkdown, Metadata: sampleMetadata()}
	require.NoError(t, exporter.Export(sampleReport(), &buf))

	out := buf.String()
	assert.Contains(t, out, "# kubepulse Report")
	assert.Contains(t, out, "**Status:** Failed")
	assert.Regexp(t, `\|\s*Namespace\s*\|\s*Deployment\s*\|\s*Desired\s*\|\s*Available\s*\|\s*Status\s*\|`, out)
	assert.Regexp(t, `\|\s*web\s*\|\s*frontend\s*\|\s*3\s*\|\s*1\s*\|\s*Failed\s*\|`, out)
	assert.Regexp(t, `(?m)^\|[:-]+\|`, out)
}

func TestExportMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	exporter := Exporter{Format: FormatMarkdown, Metadata: sampleMetadata()}
	require.NoError(t, exporter.Export(status.Report{Status: status.VerdictOk, Deployments: []status.Item{}}, &buf))
	assert.Contains(t, buf.String(), "_No deployments found._")
	assert.NotContains(t, buf.String(), "| Namespace")
}

func TestExportMarkdown_EscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	exporter := Exporter{Format: FormatMarkdown, Metadata: sampleMetadata()}
	require.NoError(t, exporter.Export(status.FromError(errors.New("a|b")), &buf))
	assert.Contains(t, buf.String(), `Failed: a\|b`)
	assert.Regexp(t, `\|\s*-\s*\|\s*-\s*\|`, buf.String())
}

func TestExportUnsupported(t *testing.T) {
	exporter := Exporter{Format: "html"}
	assert.Error(t, exporter.Export(sampleReport(), &bytes.Buffer{}))
}
