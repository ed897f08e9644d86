package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Title:    "JSS1A First Term",
		Subtitle: []string{"Broadsheet"},
		Footer:   "Positions use standard competition ranking.",
		Data: Dataset{
			Headers: []string{"Position", "Student", "Total"},
			Rows: []map[string]string{
				{"Position": "1", "Student": "Ada, Obi", "Total": "180.00"},
				{"Position": "2", "Student": "Bola", "Total": "150.50"},
			},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDocument())
	require.NoError(t, err)

	assert.Equal(t, "Position,Student,Total\n1,\"Ada, Obi\",180.00\n2,Bola,150.50\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Document{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterWideSheet(t *testing.T) {
	doc := sampleDocument()
	for _, h := range []string{"A", "B", "C", "D", "E", "F"} {
		doc.Data.Headers = append(doc.Data.Headers, h)
	}
	out, err := NewPDFExporter().Render(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
