package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const yamlList = `
- code: VENT
  name: Ventilador
  equipment_count: 3
  frequency: mensual
  maintenance_type: Preventivo
  duration: 2h
- code: MON
  name: Monitor
  equipment_count: 2
  frequency: trimestral
  maintenance_type: preventivo
  unit_labels: [SN-1, SN-2]
`

func TestFormatOf(t *testing.T) {
	cases := map[string]Format{
		"reqs.yaml":                         FormatYAML,
		"dir/REQS.YML":                      FormatYAML,
		"reqs.json":                         FormatJSON,
		"https://host/x/reqs.xlsx?token=ab": FormatXLSX,
	}
	for name, want := range cases {
		got, err := FormatOf(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := FormatOf("reqs.csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeYAML(t *testing.T) {
	reqs, err := Decode(FormatYAML, []byte(yamlList))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "VENT", reqs[0].Code)
	assert.Equal(t, 3, reqs[0].EquipmentCount)
	assert.Equal(t, "mensual", reqs[0].FrequencyText)
	assert.Equal(t, "2h", reqs[0].DurationText)
	assert.Equal(t, []string{"SN-1", "SN-2"}, reqs[1].Labels())

	wrapped, err := Decode(FormatYAML, []byte("requirements:\n"+indent(yamlList)))
	require.NoError(t, err)
	assert.Equal(t, reqs, wrapped)
}

func TestDecodeJSON(t *testing.T) {
	list := `[{"code":"RX","name":"Rayos X","equipment_count":1,"frequency":"anual","maintenance_type":"correctivo","duration":"8h"}]`
	reqs, err := Decode(FormatJSON, []byte(list))
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Rayos X", reqs[0].Name)

	wrapped, err := Decode(FormatJSON, []byte(`{"requirements":`+list+`}`))
	require.NoError(t, err)
	assert.Equal(t, reqs, wrapped)
}

func TestDecodeRejectsInvalidRequirement(t *testing.T) {
	_, err := Decode(FormatJSON, []byte(`[{"code":"X","name":"X","equipment_count":0,"frequency":"mensual"}]`))
	assert.Error(t, err)

	_, err = Decode(FormatJSON, []byte(`[{"code":"X","equipment_count":1}]`))
	assert.Error(t, err)
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeXLSX(t *testing.T) {
	data := workbook(t, [][]any{
		{"Código", "Denominación", "Cantidad", "Frecuencia", "Tipo de mantenimiento", "Duración", "Notas", "Series"},
		{"VENT", "Ventilador", 3, "mensual", "preventivo", "2h", "ignored", ""},
		{"  "},
		{"", "Autoclave", "", "semanal", "inspección", "90 min", "", "A-1"},
		{"BAL", "Balanza", "2", "cada 4 meses", "metrología", "", "", "B-1; B-2"},
	})

	reqs, err := Decode(FormatXLSX, data)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, "VENT", reqs[0].Code)
	assert.Equal(t, 3, reqs[0].EquipmentCount)
	assert.Equal(t, "preventivo", reqs[0].MaintenanceTypeText)

	assert.Equal(t, "R4", reqs[1].Code)
	assert.Equal(t, 1, reqs[1].EquipmentCount)
	assert.Equal(t, "90 min", reqs[1].DurationText)
	assert.Equal(t, []string{"A-1"}, reqs[1].UnitLabels)

	assert.Equal(t, []string{"B-1", "B-2"}, reqs[2].UnitLabels)
	assert.Empty(t, reqs[2].DurationText)
}

func TestDecodeXLSXMissingColumn(t *testing.T) {
	data := workbook(t, [][]any{
		{"Name", "Quantity"},
		{"Monitor", 2},
	})
	_, err := Decode(FormatXLSX, data)
	assert.ErrorContains(t, err, "frequency")
}

func TestRequirementTemplateRoundTrip(t *testing.T) {
	data, err := RequirementTemplate()
	require.NoError(t, err)
	reqs, err := Decode(FormatXLSX, data)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestLoaderLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlList), 0o600))

	reqs, err := NewLoader(t.TempDir()).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	_, err = NewLoader(t.TempDir()).Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFetcherUsesConditionalRequests(t *testing.T) {
	var hits, conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(yamlList))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	url := srv.URL + "/reqs.yaml"

	first, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
	assert.EqualValues(t, 2, hits.Load())
	assert.EqualValues(t, 1, conditional.Load())
}

func TestFetcherFallsBackToCacheOnServerError(t *testing.T) {
	var broken atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(yamlList))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	loader := NewLoader(cacheDir)
	url := srv.URL + "/reqs.yaml"

	reqs, err := loader.Load(context.Background(), url)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	broken.Store(true)
	again, err := loader.Load(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, reqs, again)

	_, err = NewFetcher(t.TempDir()).Fetch(context.Background(), url)
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/list.xlsx?token=abcd"))
	assert.Equal(t, "url://...(redacted)", redactURL("not a url"))
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
