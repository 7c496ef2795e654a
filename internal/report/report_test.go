package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pamadmin/internal/core"
)

func sampleReport() core.MonthReport {
	days := []core.WorkingDay{"2025-11-03", "2025-11-04", "2025-11-05"}
	return core.NewMonthReport(core.MonthStatus{
		Month:       core.Month{Year: 2025, Month: time.November},
		WorkingDays: days,
		Records: []core.UserMonthRecord{
			{UserID: "1", UserName: "Ani Lestari", Days: core.UserDayMap{
				"2025-11-03": {Status: core.StatusAttend},
				"2025-11-04": {Status: core.StatusAttend},
				"2025-11-05": {Status: core.StatusSick},
			}},
			{UserID: "2", UserName: "Budi Santoso", Days: core.UserDayMap{
				"2025-11-03": {Status: core.StatusAlpha},
			}},
		},
	})
}

func TestRows(t *testing.T) {
	r := sampleReport()

	rows := SummaryRows(r)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"Ani Lestari", 2, 0, 0, 1, 3, 66.7}, rows[0])
	assert.Equal(t, []any{"Budi Santoso", 0, 1, 0, 0, 1, 0.0}, rows[1])

	assert.Equal(t, []string{"Employee", "2025-11-03", "2025-11-04", "2025-11-05"}, DayHeader(r.Status))
	days := DayRows(r.Status)
	assert.Equal(t, []any{"Budi Santoso", "Absent", "", ""}, days[1])
	assert.Equal(t, "attendance-2025-11.xlsx", Filename(r.Status.Month))
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(1))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
	assert.Equal(t, "'x'!A1:C4", cellRange("x", 3, 4))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Days"}, f.GetSheetList())

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Attendance November 2025", rows[0][0])
	assert.Equal(t, SummaryHeader, rows[2])
	assert.Equal(t, []string{"Ani Lestari", "2", "0", "0", "1", "3", "66.7"}, rows[3])

	days, err := f.GetRows("Days")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ani Lestari", "Present", "Present", "Sick"}, days[3])
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	titles   []string
	requests []string
	updated  [][]any
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		var sheets []map[string]any
		for _, title := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		f.titles = append(f.titles, "2025-11 Attendance")
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updated = vr.Values
		_, _ = io.WriteString(w, `{"updatedRows": 1}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func newFakeExporter(t *testing.T, api *fakeSheetsAPI) *SheetsExporter {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewSheetsExporterWithService(svc, SheetsConfig{SpreadsheetID: "sheet-1"}, nil)
}

func TestSheetsExportCreatesMonthTab(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"Other"}}
	exp := newFakeExporter(t, api)

	rng, err := exp.Export(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "'2025-11 Attendance'!A1:G8", rng)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.requests, 4)
	assert.True(t, strings.HasSuffix(api.requests[1], ":batchUpdate"))
	assert.Contains(t, api.requests[2], ":clear")
	require.Len(t, api.updated, 8)
	assert.Equal(t, "Ani Lestari", api.updated[2][0])
}

func TestSheetsExportReusesTab(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"2025-11 Attendance"}}
	exp := newFakeExporter(t, api)

	_, err := exp.Export(context.Background(), sampleReport())
	require.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Len(t, api.requests, 3)
}

func TestNewSheetsExporterNeedsConfig(t *testing.T) {
	_, err := NewSheetsExporter(context.Background(), SheetsConfig{}, nil)
	assert.ErrorContains(t, err, "GOOGLE_SPREADSHEET_ID")

	_, err = NewSheetsExporter(context.Background(), SheetsConfig{SpreadsheetID: "x"}, nil)
	assert.ErrorContains(t, err, "credentials")
}
