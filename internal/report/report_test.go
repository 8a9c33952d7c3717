package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/biokb/biokb-obo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	r := Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
		Rows: []Row{
			{Name: "doid", Status: "imported", Counts: models.Counts{Terms: 2, Synonyms: 4, XRefs: 2}, File: "/tmp/doid.owl"},
			{Name: "hp", Status: "failed", Error: "unexpected status 404"},
		},
		Totals: models.Counts{Terms: 2, Synonyms: 4, XRefs: 2},
	}
	require.NoError(t, WriteFile(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetImport, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetImport)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ImportHeader, rows[0])
	assert.Equal(t, []string{"doid", "imported", "2", "4", "0", "2", "0", "/tmp/doid.owl"}, rows[1])
	assert.Equal(t, "hp", rows[2][0])
	assert.Equal(t, "unexpected status 404", rows[2][8])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run ID", "run-1"}, summary[0])
	assert.Equal(t, []string{"Generated At", "2024-01-31T12:00:00Z"}, summary[1])
	assert.Equal(t, []string{"terms", "2"}, summary[3])
	assert.Equal(t, []string{"parent_child", "0"}, summary[7])
}

func TestGenerate_Empty(t *testing.T) {
	data, err := Generate(Report{RunID: "r", GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
