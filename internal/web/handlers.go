package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/logging"
	"github.com/JonMunkholm/marketshare/internal/sheet"
)

// maxMemory is the multipart threshold above which parts spill to disk.
const maxMemory = 32 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// upload is one file field of the run form.
type upload struct {
	name string
	data []byte
}

func (u *upload) reader() *bytes.Reader { return bytes.NewReader(u.data) }

// processResponse is the JSON form of a run, returned for ?format=json.
type processResponse struct {
	RunID   string       `json:"run_id"`
	Warning string       `json:"warning,omitempty"`
	Summary core.Summary `json:"summary"`
	Columns []string     `json:"columns"`
	Rows    [][]string   `json:"rows"`
	Total   int          `json:"total"`
}

type healthResponse struct {
	Status string                `json:"status"`
	Runs   core.RunLimiterStatus `json:"runs"`
	Store  bool                  `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, healthResponse{
		Status: "ok",
		Runs:   s.runs.Status(),
		Store:  s.history != nil,
	})
}

// handleSheets lists the sheets of the uploaded report workbook.
func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	report, err := s.formFile(r, "report", true)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	names, err := sheet.SheetNames(report.reader())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, map[string][]string{"sheets": names})
}

// handleUnpivot parses the report and returns the head of the long records.
func (s *Server) handleUnpivot(w http.ResponseWriter, r *http.Request) {
	ctx, done, err := s.beginRun(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer done()
	r = r.WithContext(ctx)

	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	grid, err := s.readReport(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	records, err := s.pipeline.Unpivot(ctx, grid)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, core.NewPreview(records))
}

// handleProcess runs the full pipeline and returns the result workbook.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx, done, err := s.beginRun(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer done()
	r = r.WithContext(ctx)
	logger := logging.FromContext(ctx)

	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	period, err := parsePeriod(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	grid, err := s.readReport(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	history, err := s.loadHistory(ctx, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	mapping, err := s.readMapping(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	out, err := s.pipeline.Run(ctx, core.Input{
		Grid:    grid,
		History: history,
		Mapping: mapping,
		Period:  period,
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	var warning string
	if out.Warning != nil {
		warning = core.MapError(out.Warning).Code
		logger.Warn("run finished with warning", "error", out.Warning, "code", warning)
	}

	// Append mode would store the period once while the result counts it
	// twice; config validation rejects that combination.
	if s.cfg.Store.WriteBack && s.history != nil && s.pipeline.Options().Replace {
		if err := s.history.ReplacePeriod(ctx, out.Current.Rows); err != nil {
			respondError(w, r, fmt.Errorf("%w: %w", errWriteBack, err), http.StatusInternalServerError)
			return
		}
	}

	logger.Info("run complete",
		"period", period.String(),
		"records", len(out.Records),
		"rows", out.Summary.Rows,
		"evicted", out.Merge.Evicted,
		"indeterminate", out.Summary.Indeterminate,
	)

	w.Header().Set("X-Run-ID", out.RunID)
	if warning != "" {
		w.Header().Set("X-Run-Warning", warning)
	}

	if r.URL.Query().Get("format") == "json" {
		resp := processResponse{
			RunID:   out.RunID,
			Warning: warning,
			Summary: out.Summary,
			Columns: out.Final.Columns,
			Total:   len(out.Final.Rows),
		}
		for i := 0; i < len(out.Final.Rows) && i < core.PreviewLimit; i++ {
			resp.Rows = append(resp.Rows, out.Final.Strings(i))
		}
		writeJSON(w, r, resp)
		return
	}

	// Buffer the workbook so a write failure can still be reported.
	var buf bytes.Buffer
	if err := sheet.WriteFinal(&buf, out.Final); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.ResultFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("result download interrupted", "error", err)
	}
}

// beginRun takes a run slot and returns a context bounded by UPLOAD_TIMEOUT
// and tagged with a fresh run ID. done releases both.
func (s *Server) beginRun(r *http.Request) (context.Context, func(), error) {
	if err := s.runs.Acquire(r.Context()); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	ctx = logging.WithRun(ctx, uuid.NewString())
	start := time.Now()

	return ctx, func() {
		cancel()
		s.runs.Release()
		logging.FromContext(ctx).Debug("run slot released", "duration_ms", time.Since(start).Milliseconds())
	}, nil
}

// parseForm bounds the body to three files plus form fields and parses it.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 3*s.cfg.Upload.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("%w: request exceeds %d bytes", errFileTooBig, mbe.Limit)
		}
		return fmt.Errorf("%w: invalid form: %v", errNoFile, err)
	}
	return nil
}

// formFile reads an uploaded file. A missing optional file is (nil, nil).
func (s *Server) formFile(r *http.Request, field string, required bool) (*upload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, fmt.Errorf("%w: %s", errNoFile, field)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	if hdr.Size > s.cfg.Upload.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", errFileTooBig, field, hdr.Size, s.cfg.Upload.MaxFileSize)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &upload{name: hdr.Filename, data: data}, nil
}

func (s *Server) readReport(r *http.Request) (core.RawGrid, error) {
	report, err := s.formFile(r, "report", true)
	if err != nil {
		return core.RawGrid{}, err
	}
	return sheet.ReadGrid(report.reader(), r.FormValue("sheet"))
}

// loadHistory prefers an uploaded database file and falls back to the store.
func (s *Server) loadHistory(ctx context.Context, r *http.Request) (core.Table, error) {
	db, err := s.formFile(r, "database", false)
	if err != nil {
		return core.Table{}, err
	}
	if db != nil {
		return sheet.ReadHistory(db.reader(), db.name)
	}
	if s.history == nil {
		return core.Table{}, fmt.Errorf("%w: database", errNoFile)
	}
	return s.history.LoadHistory(ctx)
}

func (s *Server) readMapping(r *http.Request) (*core.Mapping, error) {
	m, err := s.formFile(r, "mapping", false)
	if err != nil || m == nil {
		return nil, err
	}
	return sheet.ReadMapping(m.reader(), m.name)
}

// parsePeriod reads the year and month fields. The month may be a number or
// an Indonesian month name.
func parsePeriod(r *http.Request) (core.Period, error) {
	yearText := strings.TrimSpace(r.FormValue("year"))
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return core.Period{}, fmt.Errorf("%w: year %q", core.ErrInvalidPeriod, yearText)
	}

	monthText := strings.TrimSpace(r.FormValue("month"))
	month, err := strconv.Atoi(monthText)
	if err != nil {
		month = core.MonthIndexFromName(monthText)
	}

	p := core.Period{Year: year, Month: month}
	return p, p.Validate()
}
