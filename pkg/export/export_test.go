package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyDataset() Dataset {
	return Dataset{
		Headers: []string{"Started", "Status", "Errors"},
		Rows: []map[string]string{
			{"Started": "2024-09-15 10:00", "Status": "success", "Errors": ""},
			{"Started": "2024-09-16 10:00", "Status": "error", "Errors": strings.Repeat("notion write failed; ", 20)},
		},
		Widths: []float64{2, 1, 6},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(historyDataset(), "ignored")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Started,Status,Errors", lines[0])
	assert.Equal(t, "2024-09-15 10:00,success,", lines[1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(historyDataset(), "Sync history")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsFallsBackToEvenSplit(t *testing.T) {
	widths := columnWidths(Dataset{Headers: []string{"a", "b"}, Widths: []float64{1}})
	assert.InDelta(t, pdfPageWidth/2, widths[0], 0.001)
	assert.InDelta(t, pdfPageWidth/2, widths[1], 0.001)
}
