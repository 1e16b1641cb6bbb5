package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
	"github.com/KaramelBytes/tabloom-cli/internal/export"
	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/logging"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

const maxQueryBytes = 1 << 20

// ColumnInfo describes one column of an uploaded dataset.
type ColumnInfo struct {
	Name string     `json:"name"`
	Type table.Type `json:"type"`
}

// UploadResponse is returned by POST /api/datasets.
type UploadResponse struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
	Notes   []string     `json:"notes,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, err)
			return
		}
		respondError(w, r, fmt.Errorf("%w: parse form: %v", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: no file provided", errBadRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read file: %w", err))
		return
	}
	sess, err := s.uploadSession(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.explorer.Open(r.Context(), data, sess)
	if err != nil {
		respondError(w, r, err)
		return
	}
	d := s.store.put(filepath.Base(header.Filename), data, sess)
	logging.FromContext(r.Context()).Info("dataset uploaded",
		"id", d.ID,
		"name", d.Name,
		"bytes", len(data),
		"rows", view.Source.NumRows(),
		"columns", view.Source.NumCols(),
	)

	resp := UploadResponse{ID: d.ID, Name: d.Name, Rows: view.Source.NumRows(), Notes: view.Source.Notes}
	for _, c := range view.Source.Columns() {
		resp.Columns = append(resp.Columns, ColumnInfo{Name: c.Name, Type: c.Type})
	}
	w.Header().Set("Location", "/api/datasets/"+d.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

// uploadSession reads the optional load settings sent with an upload.
func (s *Server) uploadSession(r *http.Request) (explore.Session, error) {
	sess := s.opts.Defaults
	if v := r.FormValue("delimiter"); v != "" {
		d, err := config.ParseDelimiter(v)
		if err != nil {
			return sess, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		sess.Delimiter = d
	}
	if v := r.FormValue("decimal"); v != "" {
		d, err := config.ParseDecimal(v)
		if err != nil {
			return sess, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		sess.DecimalSeparator = d
	}
	if v := r.FormValue("drop_zero"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return sess, fmt.Errorf("%w: invalid drop_zero %q", errBadRequest, v)
		}
		sess.DropZeroColumns = b
	}
	if v := r.FormValue("types"); v != "" {
		var raw map[string]string
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return sess, fmt.Errorf("%w: types must be a JSON object: %v", errBadRequest, err)
		}
		sess.Types = make(map[string]table.Type, len(raw))
		for col, name := range raw {
			t, err := table.ParseType(name)
			if err != nil {
				return sess, fmt.Errorf("%w: %v", errBadRequest, err)
			}
			sess.Types[col] = t
		}
	}
	return sess, nil
}

// open reloads a dataset through the explorer with the given filters.
func (s *Server) open(r *http.Request, filters filter.Spec) (*dataset, *explore.View, error) {
	d, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		return nil, nil, errDatasetNotFound
	}
	sess := d.Session
	sess.Filters = filters
	view, err := s.explorer.Open(r.Context(), d.Data, sess)
	if err != nil {
		return d, nil, err
	}
	return d, view, nil
}

// decodeQuery reads a JSON query body. An empty body is an empty query.
func decodeQuery(w http.ResponseWriter, r *http.Request) (explore.Query, error) {
	var q explore.Query
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		return q, fmt.Errorf("%w: invalid query: %v", errBadRequest, err)
	}
	if q.Bins < 0 || q.Bins > analysis.MaxBins {
		return q, fmt.Errorf("%w: bins must be between 0 and %d (0 uses the default)", errBadRequest, analysis.MaxBins)
	}
	if q.Rows < 0 {
		return q, fmt.Errorf("%w: rows must not be negative", errBadRequest)
	}
	return q, nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	d, view, err := s.open(r, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, s.profile(d, view))
}

func (s *Server) profile(d *dataset, view *explore.View) *analysis.Report {
	opt := analysis.DefaultOptions()
	if s.opts.SampleRows > 0 {
		opt.SampleRows = s.opts.SampleRows
	}
	opt.Correlations = true
	return analysis.Profile(view.Filtered, d.Name, opt)
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	column, err := url.PathUnescape(chi.URLParam(r, "column"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	_, view, err := s.open(r, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}
	vals, err := filter.Options(view.Filtered, column)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"column": column, "values": vals})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := decodeQuery(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_, view, err := s.open(r, q.Filters)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := explore.Run(view, q, s.defaults())
	if err != nil {
		respondError(w, r, err, res.Warnings...)
		return
	}
	writeJSON(w, r, res)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := chart.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	q, err := decodeQuery(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if q.ChartOp == "" && q.Operation != "" && q.Operation != explore.OpChart {
		q.ChartOp = q.Operation
	}
	q.Operation = explore.OpChart
	_, view, err := s.open(r, q.Filters)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := explore.Run(view, q, s.defaults())
	if err != nil {
		respondError(w, r, err, res.Warnings...)
		return
	}
	cr := res.Value.(explore.ChartResult)
	if cr.Spec == nil {
		respondError(w, r, chart.ErrNoData, res.Warnings...)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, *cr.Spec, cr.Data, s.renderOptions(format)); err != nil {
		respondError(w, r, err, res.Warnings...)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Chart-Title", cr.Spec.Title)
	if len(res.Warnings) > 0 {
		w.Header().Set("X-Warnings", strings.Join(res.Warnings, "; "))
	}
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	name := params.Get("filename")
	if name == "" {
		name = s.opts.ExportFilename
	}
	if name == "" {
		name = export.DefaultFilename
	}
	name = filepath.Base(name)
	format := export.FormatFor(name)
	if v := params.Get("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if f != format {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + f.Ext()
		}
		format = f
	}
	q, err := decodeQuery(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_, view, err := s.open(r, q.Filters)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, view.Filtered, format); err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if len(view.Warnings) > 0 {
		w.Header().Set("X-Warnings", strings.Join(view.Warnings, "; "))
	}
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	d, view, err := s.open(r, nil)
	if err != nil {
		status, code := classify(err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = errorPage(status, code, err.Error()).Render(r.Context(), w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := datasetPage(d, s.profile(d, view)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}
