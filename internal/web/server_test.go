package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/marketshare/internal/config"
	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/sheet"
	"github.com/JonMunkholm/marketshare/internal/store"
	"github.com/JonMunkholm/marketshare/internal/store/sqlite"
)

const historyCSV = "Tahun,Bulan,Daerah,Pulau,Produsen,Total,Kemasan,Negara,Holding,Merk\n" +
	"2024,Jan,Jatim,Jawa,Semen A,500,Bag,Domestik,Holding A,Merk A\n" +
	"2024,Jan,Jatim,Jawa,Semen B,500,Bulk,Domestik,Holding B,Merk B\n"

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{
		"RATE_LIMIT_ENABLED":    "false",
		"LAYOUT_PRODUCER_ROW":   "1",
		"LAYOUT_PACKAGE_ROW":    "2",
		"LAYOUT_BRAND_ROW":      "3",
		"LAYOUT_HOLDING_ROW":    "4",
		"LAYOUT_DATA_START_ROW": "5",
	}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.LoadFrom(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func testServer(t *testing.T, cfg *config.Config, history store.Store) *Server {
	t.Helper()
	p, err := core.NewPipeline(cfg.Options())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	s := NewServer(cfg, p, history)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// reportWorkbook builds a two-producer report matching the test layout.
func reportWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	rows := [][]any{
		{"", "", "Semen A", "Semen B"},
		{"", "Provinsi", "Bag", "Curah"},
		{"", "", "Merk A", "Merk B"},
		{"", "", "Holding A", "Holding B"},
		{1, "Jatim", 600, 400},
		{2, "Bali", 100, 0},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		vals := row
		if err := f.SetSheetRow("Sheet1", cell, &vals); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

type part struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = w.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Runs.MaxConcurrent != 4 || resp.Store {
		t.Errorf("health = %+v", resp)
	}
}

func TestIndex(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`name="report"`)) {
		t.Error("index page should contain the report upload field")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}
}

func TestSheets(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rec := serve(s, multipartRequest(t, "/api/sheets", nil,
		part{"report", "laporan.xlsx", reportWorkbook(t)}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp map[string][]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp["sheets"]) != 1 || resp["sheets"][0] != "Sheet1" {
		t.Errorf("sheets = %v", resp)
	}
}

func TestUnpivot(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rec := serve(s, multipartRequest(t, "/api/unpivot", nil,
		part{"report", "laporan.xlsx", reportWorkbook(t)}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var preview core.Preview
	if err := json.NewDecoder(rec.Body).Decode(&preview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if preview.Total != 4 {
		t.Errorf("total = %d, want 4", preview.Total)
	}
	// Sorted by region, Bag columns before Bulk.
	first := preview.Records[0]
	if first.Region != "Bali" || first.PackageType != core.PackageBag || first.Value != 100 {
		t.Errorf("first record = %+v", first)
	}
}

func processFields() map[string]string {
	return map[string]string{"year": "2024", "month": "2"}
}

func TestProcess_JSON(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rec := serve(s, multipartRequest(t, "/api/process?format=json", processFields(),
		part{"report", "laporan.xlsx", reportWorkbook(t)},
		part{"database", "db.csv", []byte(historyCSV)},
		part{"mapping", "map.csv", []byte("Merk,Daerah,Segment\nMerk A,Jatim,Retail\n")},
	))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp processResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 6 || len(resp.Rows) != 6 {
		t.Errorf("total = %d rows = %d, want 6", resp.Total, len(resp.Rows))
	}
	if resp.RunID == "" || rec.Header().Get("X-Run-ID") != resp.RunID {
		t.Errorf("run id = %q, header %q", resp.RunID, rec.Header().Get("X-Run-ID"))
	}
	if resp.Summary.To != (core.Period{Year: 2024, Month: 2}) {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if resp.Warning != "" {
		t.Errorf("warning = %q, want none", resp.Warning)
	}
}

func TestProcess_Workbook(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rec := serve(s, multipartRequest(t, "/api/process", map[string]string{"year": "2024", "month": "Februari"},
		part{"report", "laporan.xlsx", reportWorkbook(t)},
		part{"database", "db.csv", []byte(historyCSV)},
	))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Data_Hasil.xlsx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	tbl, err := sheet.ReadTable(bytes.NewReader(rec.Body.Bytes()), sheet.ResultFileName)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tbl.Rows) != 6 || tbl.Header[0] != core.ColKey {
		t.Errorf("result has %d rows, header %v", len(tbl.Rows), tbl.Header)
	}
}

func TestProcess_Errors(t *testing.T) {
	report := part{"report", "laporan.xlsx", reportWorkbook(t)}
	db := part{"database", "db.csv", []byte(historyCSV)}

	tests := []struct {
		name   string
		fields map[string]string
		files  []part
		status int
		code   string
	}{
		{"missing report", processFields(), []part{db}, http.StatusBadRequest, "FILE004"},
		{"missing database", processFields(), []part{report}, http.StatusBadRequest, "FILE004"},
		{"invalid month", map[string]string{"year": "2024", "month": "13"}, []part{report, db}, http.StatusBadRequest, "PER001"},
		{"invalid year", map[string]string{"year": "dua ribu", "month": "1"}, []part{report, db}, http.StatusBadRequest, "PER001"},
		{"unsupported database", processFields(), []part{report, {"database", "db.xls", []byte("x")}}, http.StatusUnsupportedMediaType, "FILE002"},
		{"report is not a workbook", processFields(), []part{{"report", "laporan.xlsx", []byte("x")}, db}, http.StatusUnprocessableEntity, "FILE003"},
		{"missing history column", processFields(), []part{report, {"database", "db.csv", []byte("Tahun\n2024\n")}}, http.StatusUnprocessableEntity, "VAL001"},
		{"unknown sheet", map[string]string{"year": "2024", "month": "2", "sheet": "Nope"}, []part{report, db}, http.StatusBadRequest, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, testConfig(t, nil), nil)
			rec := serve(s, multipartRequest(t, "/api/process", tt.fields, tt.files...))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestProcess_StructureError(t *testing.T) {
	cfg := testConfig(t, map[string]string{"LAYOUT_MARKER": "KABUPATEN"})
	s := testServer(t, cfg, nil)
	rec := serve(s, multipartRequest(t, "/api/process", processFields(),
		part{"report", "laporan.xlsx", reportWorkbook(t)},
		part{"database", "db.csv", []byte(historyCSV)},
	))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if resp := decodeError(t, rec); resp.Code != "GRID002" {
		t.Errorf("code = %s, want GRID002", resp.Code)
	}
}

func TestProcess_StoreHistoryAndWriteBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := sqlite.New(ctx, path)
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	defer st.Close()

	seed, err := sheet.ReadHistory(bytes.NewReader([]byte(historyCSV)), "db.csv")
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if err := st.ReplacePeriod(ctx, seed.Rows); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := testConfig(t, map[string]string{
		"STORE_DRIVER":     "sqlite",
		"STORE_URL":        path,
		"STORE_WRITE_BACK": "true",
	})
	s := testServer(t, cfg, st)

	rec := serve(s, multipartRequest(t, "/api/process?format=json", processFields(),
		part{"report", "laporan.xlsx", reportWorkbook(t)}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	stored, err := st.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(stored.Rows) != 6 {
		t.Errorf("stored rows = %d, want 2 seeded + 4 written back", len(stored.Rows))
	}

	// A second run of the same period replaces, not duplicates.
	rec = serve(s, multipartRequest(t, "/api/process?format=json", processFields(),
		part{"report", "laporan.xlsx", reportWorkbook(t)}))
	if rec.Code != http.StatusOK {
		t.Fatalf("second run status = %d", rec.Code)
	}
	stored, _ = st.LoadHistory(ctx)
	if len(stored.Rows) != 6 {
		t.Errorf("stored rows after rerun = %d, want 6", len(stored.Rows))
	}
}

func TestProcess_NoWriteBackInAppendMode(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := sqlite.New(ctx, path)
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	defer st.Close()

	cfg := testConfig(t, map[string]string{
		"STORE_DRIVER":     "sqlite",
		"STORE_URL":        path,
		"STORE_WRITE_BACK": "true",
	})
	cfg.Pipeline.ReplaceMode = false
	s := testServer(t, cfg, st)

	rec := serve(s, multipartRequest(t, "/api/process?format=json", processFields(),
		part{"report", "laporan.xlsx", reportWorkbook(t)},
		part{"database", "db.csv", []byte(historyCSV)}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	stored, err := st.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(stored.Rows) != 0 {
		t.Errorf("stored rows = %d, want none in append mode", len(stored.Rows))
	}
}

func TestProcess_TooManyRuns(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"UPLOAD_MAX_CONCURRENT": "1",
		"UPLOAD_MAX_WAIT_TIME":  "10ms",
	})
	s := testServer(t, cfg, nil)
	if !s.runs.TryAcquire() {
		t.Fatal("could not take the only run slot")
	}
	defer s.runs.Release()

	rec := serve(s, multipartRequest(t, "/api/process", processFields(),
		part{"report", "laporan.xlsx", reportWorkbook(t)}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "RUN002" {
		t.Errorf("code = %s, want RUN002", resp.Code)
	}
}

func TestProcess_FileTooLarge(t *testing.T) {
	cfg := testConfig(t, map[string]string{"UPLOAD_MAX_FILE_SIZE": "1024"})
	s := testServer(t, cfg, nil)

	rec := serve(s, multipartRequest(t, "/api/unpivot", nil,
		part{"report", "laporan.xlsx", bytes.Repeat([]byte("x"), 8<<10)}))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body)
	}
	if resp := decodeError(t, rec); resp.Code != "FILE001" {
		t.Errorf("code = %s, want FILE001", resp.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	s := testServer(t, testConfig(t, nil), nil)
	rl := s.newRateLimiter(2, time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request in the window should be limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other clients have their own budget")
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.allow("1.2.3.4") {
		t.Error("budget should reset after the window")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"RATE_LIMIT_ENABLED":             "true",
		"RATE_LIMIT_REQUESTS_PER_MINUTE": "1",
	})
	s := testServer(t, cfg, nil)

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "RATE001" {
		t.Errorf("code = %s, want RATE001", resp.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errNoFile, http.StatusBadRequest},
		{core.ErrInvalidPeriod, http.StatusBadRequest},
		{sheet.ErrSheetNotFound, http.StatusBadRequest},
		{sheet.ErrUnsupportedFile, http.StatusUnsupportedMediaType},
		{sheet.ErrUnreadable, http.StatusUnprocessableEntity},
		{&core.StructureError{Reason: core.ReasonMissingMarker}, http.StatusUnprocessableEntity},
		{&core.ValidationError{Table: "history", Missing: []string{"Tahun"}}, http.StatusUnprocessableEntity},
		{core.ErrTooManyRuns, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errFileTooBig, http.StatusRequestEntityTooLarge},
		{errWriteBack, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
