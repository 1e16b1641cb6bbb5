package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
	"github.com/KaramelBytes/tabloom-cli/internal/export"
	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/logging"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

var (
	errDatasetNotFound = errors.New("dataset not found")
	errBadRequest      = errors.New("bad request")
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Warnings []string `json:"warnings,omitempty"`
}

// classify maps an error onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	var loadErr *table.LoadError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.As(err, &loadErr):
		return http.StatusUnprocessableEntity, "LOAD_FAILED"
	case errors.Is(err, errDatasetNotFound):
		return http.StatusNotFound, "DATASET_NOT_FOUND"
	case errors.Is(err, table.ErrColumnNotFound), errors.Is(err, filter.ErrUnknownColumn):
		return http.StatusBadRequest, "UNKNOWN_COLUMN"
	case errors.Is(err, chart.ErrUnsupported), errors.Is(err, export.ErrUnknownFormat), errors.Is(err, explore.ErrUnknownOperation):
		return http.StatusBadRequest, "UNSUPPORTED"
	case errors.Is(err, chart.ErrNoData):
		return http.StatusUnprocessableEntity, "NO_DATA"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "BAD_REQUEST"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// respondError logs err and writes it as JSON. Internal errors are not
// echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error, warnings ...string) {
	status, code := classify(err)
	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
		"error", err.Error(),
	)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: code, Warnings: warnings})
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
