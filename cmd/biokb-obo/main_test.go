package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/biokb/biokb-obo/internal/models"
	"github.com/biokb/biokb-obo/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const hpOBO = `format-version: 1.2
data-version: 2024-02-01
ontology: hp

[Term]
id: HP:0000001
name: All

[Term]
id: HP:0000118
name: Phenotypic abnormality
synonym: "Organ abnormality" EXACT []
xref: UMLS:C4021819
is_a: HP:0000001 ! All
`

func setupEnv(t *testing.T) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/obo/hp.obo" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(hpOBO))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("CONNECTION_STR", "sqlite:///"+filepath.Join(dir, "biokb.db"))
	t.Setenv("OBO_DATA_FOLDER", filepath.Join(dir, "data"))
	t.Setenv("OBO_URL_TEMPLATE", srv.URL+"/obo/{name}.obo")
	t.Setenv("OBO_NAMES", "")
	t.Setenv("OBO_CATALOG", "")
	t.Setenv("NOTIFY_BACKEND", "none")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd(&app{})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportAndStatus(t *testing.T) {
	dir := setupEnv(t)
	reportPath := filepath.Join(dir, "report.xlsx")

	out, err := run(t, "import", "hp", "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "terms=2")
	assert.Contains(t, out, "synonyms=1")
	assert.Contains(t, out, "parent_child=1")

	f, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	rows, err := f.GetRows("Import")
	f.Close()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "hp", rows[1][0])
	assert.Equal(t, "imported", rows[1][1])

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "hp")
	assert.Contains(t, out, "2024-02-01")
}

func TestImport_SecondRunSkips(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "import", "hp")
	require.NoError(t, err)

	out, err := run(t, "import", "hp")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "terms=0")
}

func TestImport_FailureReturnsError(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "import", "nope")
	require.Error(t, err)

	_, err = run(t, "import", "nope", "hp", "--continue-on-error", "--keep-files")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 ontologies failed")

	_, err = os.Stat(filepath.Join(dir, "data", "hp.obo"))
	assert.NoError(t, err)
}

func TestImport_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("BULK_BATCH_SIZE", "0")

	_, err := run(t, "import", "hp")
	assert.Error(t, err)
}

func TestToReport(t *testing.T) {
	r := toReport(&service.ImportResult{
		RunID:  "run-1",
		Counts: models.Counts{Terms: 3},
		Statuses: []service.NameStatus{
			{Name: "doid", Status: "imported", Counts: models.Counts{Terms: 3}},
			{Name: "hp", Status: "failed", Err: errors.New("boom")},
		},
	})

	assert.Equal(t, "run-1", r.RunID)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, 3, r.Rows[0].Counts.Terms)
	assert.Equal(t, "boom", r.Rows[1].Error)
	assert.Equal(t, 3, r.Totals.Terms)
}
