package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/cache"
	"github.com/iwvelando/cashflow-forecast/internal/chart"
	"github.com/iwvelando/cashflow-forecast/internal/config"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/internal/snapshot"
	"github.com/iwvelando/cashflow-forecast/internal/store"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
	"github.com/iwvelando/cashflow-forecast/pkg/output"
	"github.com/iwvelando/cashflow-forecast/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// SnapshotStore is the persistence the snapshot endpoints need.
type SnapshotStore interface {
	Save(ctx context.Context, snap model.ProjectionSnapshot) error
	Get(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, groupID string) ([]store.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Options wires the handler. Zero values fall back to defaults; a nil Store
// disables the snapshot endpoints.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string
	Locale        string
	StalenessDays int
	Store         SnapshotStore
	Memoizer      *cache.Memoizer
	Now           func() time.Time
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	locale        language.Tag
	stalenessDays int
	store         SnapshotStore
	memoizer      *cache.Memoizer
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the projection and
// snapshot API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	memoizer := opts.Memoizer
	if memoizer == nil {
		memoizer = cache.NewMemoizer(logger, nil, 0)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		locale:        chart.ParseLocale(opts.Locale),
		stalenessDays: opts.StalenessDays,
		store:         opts.Store,
		memoizer:      memoizer,
		now:           now,
	}

	mux := http.NewServeMux()

	// Projection API endpoint (JSON request or YAML planner file)
	mux.HandleFunc("POST /api/projection", h.handleProjection)

	// Snapshot API endpoints
	mux.HandleFunc("POST /api/snapshots", h.handleCreateSnapshot)
	mux.HandleFunc("GET /api/snapshots", h.handleListSnapshots)
	mux.HandleFunc("GET /api/snapshots/{id}", h.handleGetSnapshot)
	mux.HandleFunc("DELETE /api/snapshots/{id}", h.handleDeleteSnapshot)

	// Version endpoint for UI metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	return mux
}

// projectionRequest is the JSON form of a projection request.
type projectionRequest struct {
	Inputs      model.Inputs `json:"inputs"`
	HorizonDays int          `json:"horizonDays"`
	StartDate   string       `json:"startDate"`
	Locale      string       `json:"locale"`
}

type snapshotRequest struct {
	projectionRequest
	Name    string `json:"name"`
	GroupID string `json:"groupId"`
}

type projectionResponse struct {
	output.Document
	Cached   bool   `json:"cached"`
	Duration string `json:"duration"`
}

type snapshotResponse struct {
	Snapshot model.ProjectionSnapshot `json:"snapshot"`
	Warnings []string                 `json:"warnings"`
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []*validation.FieldError `json:"fields,omitempty"`
}

// projectionRun is a decoded, validated request ready to project.
type projectionRun struct {
	inputs   model.Inputs
	options  forecast.Options
	locale   language.Tag
	warnings []string
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjection"
	start := time.Now()

	run, err := h.decodeProjection(w, r)
	if err != nil {
		h.respondRequestError(w, err, op)
		return
	}

	projection, cached := h.memoizer.Projection(r.Context(), run.inputs, run.options)
	report := health.Evaluate(projection, run.inputs, h.now(), h.stalenessDays, run.locale)

	h.logger.Info("projection computed",
		zap.String("op", op),
		zap.Int("days", len(projection.Days)),
		zap.Bool("cached", cached),
		zap.String("health", string(report.Status)),
		zap.Duration("duration", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, projectionResponse{
		Document: output.NewDocument(output.Result{
			Projection: projection,
			Health:     report,
			Locale:     run.locale,
			Warnings:   run.warnings,
		}),
		Cached:   cached,
		Duration: time.Since(start).String(),
	})
}

// decodeProjection reads either a JSON projectionRequest or a YAML planner
// file, the latter as a raw body or a multipart "file" upload.
func (h *handler) decodeProjection(w http.ResponseWriter, r *http.Request) (projectionRun, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json", "":
		var req projectionRequest
		if err := decodeJSON(r.Body, &req); err != nil {
			return projectionRun{}, err
		}
		return h.runFromRequest(req)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return projectionRun{}, readError(fmt.Errorf("failed to parse upload: %w", err))
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return projectionRun{}, badRequest(errors.New("missing configuration file"))
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.decodeProjection"),
					zap.Error(closeErr),
				)
			}
		}()
		return h.runFromPlanner(file)
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return h.runFromPlanner(r.Body)
	default:
		return projectionRun{}, &requestError{
			status: http.StatusUnsupportedMediaType,
			err:    fmt.Errorf("unsupported content type %q", mediaType),
		}
	}
}

func (h *handler) runFromRequest(req projectionRequest) (projectionRun, error) {
	if req.HorizonDays == 0 {
		req.HorizonDays = constants.DefaultHorizonDays
	}
	if err := validation.ValidateHorizon(req.HorizonDays); err != nil {
		return projectionRun{}, badRequest(err)
	}
	startDate := datetime.Civil(h.now())
	if req.StartDate != "" {
		parsed, err := datetime.ParseFlexible(req.StartDate)
		if err != nil {
			return projectionRun{}, badRequest(fmt.Errorf("startDate: %w", err))
		}
		startDate = datetime.Civil(parsed)
	}
	if err := validation.ValidateInputs(req.Inputs); err != nil {
		return projectionRun{}, badRequest(err)
	}

	locale := h.locale
	if req.Locale != "" {
		locale = chart.ParseLocale(req.Locale)
	}
	return projectionRun{
		inputs:   req.Inputs,
		options:  forecast.Options{StartDate: startDate, HorizonDays: req.HorizonDays},
		locale:   locale,
		warnings: []string{},
	}, nil
}

func (h *handler) runFromPlanner(body io.Reader) (projectionRun, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return projectionRun{}, readError(err)
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		return projectionRun{}, badRequest(err)
	}
	inputs, err := conf.ToInputs()
	if err != nil {
		return projectionRun{}, badRequest(err)
	}
	if err := validation.ValidateInputs(inputs); err != nil {
		return projectionRun{}, badRequest(err)
	}
	options, err := conf.Options(h.now())
	if err != nil {
		return projectionRun{}, badRequest(err)
	}

	warnings := conf.ValidateConfiguration()
	if warnings == nil {
		warnings = []string{}
	}
	return projectionRun{
		inputs:   inputs,
		options:  options,
		locale:   chart.ParseLocale(conf.Projection.Locale),
		warnings: warnings,
	}, nil
}

func (h *handler) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateSnapshot"
	if !h.requireStore(w, op) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var req snapshotRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.respondRequestError(w, err, op)
		return
	}
	run, err := h.runFromRequest(req.projectionRequest)
	if err != nil {
		h.respondRequestError(w, err, op)
		return
	}

	projection, _ := h.memoizer.Projection(r.Context(), run.inputs, run.options)
	snap := snapshot.Create(req.Name, req.GroupID, run.inputs, projection, h.now())
	if err := h.store.Save(r.Context(), snap); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save snapshot: %v", err), op)
		return
	}

	h.logger.Info("snapshot saved",
		zap.String("op", op),
		zap.String("id", snap.ID),
		zap.String("groupId", snap.GroupID),
	)
	h.writeJSON(w, http.StatusCreated, snapshotResponse{Snapshot: snap, Warnings: []string{}})
}

func (h *handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListSnapshots"
	if !h.requireStore(w, op) {
		return
	}

	entries, err := h.store.List(r.Context(), r.URL.Query().Get("groupId"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to list snapshots: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]store.Entry{"snapshots": entries})
}

func (h *handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetSnapshot"
	if !h.requireStore(w, op) {
		return
	}

	raw, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	snap, warnings, err := snapshot.Load(h.logger, raw)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	h.writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snap, Warnings: warnings})
}

func (h *handler) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteSnapshot"
	if !h.requireStore(w, op) {
		return
	}

	err := h.store.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) requireStore(w http.ResponseWriter, op string) bool {
	if h.store == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "snapshot storage is not configured", op)
		return false
	}
	return true
}

// requestError carries the status a decoding failure should produce.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: err}
}

func readError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &requestError{
			status: http.StatusRequestEntityTooLarge,
			err:    fmt.Errorf("upload exceeds limit of %d bytes", maxBytesErr.Limit),
		}
	}
	return badRequest(err)
}

// decodeJSON accepts dates as civil dates or timestamps anywhere in the body.
func decodeJSON(body io.Reader, v any) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return readError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return badRequest(errors.New("empty request body"))
	}

	normalized, warnings, err := snapshot.Rehydrate(raw)
	if err != nil {
		return badRequest(fmt.Errorf("failed to decode request: %w", err))
	}
	if len(warnings) > 0 {
		return badRequest(fmt.Errorf("invalid dates: %s", strings.Join(warnings, "; ")))
	}

	decoder := json.NewDecoder(bytes.NewReader(normalized))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return badRequest(fmt.Errorf("failed to decode request: %w", err))
	}
	return nil
}

func (h *handler) respondRequestError(w http.ResponseWriter, err error, op string) {
	status := http.StatusBadRequest
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		status = reqErr.status
	}

	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)

	resp := errorResponse{Error: err.Error()}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		resp.Fields = fieldErrs
	}
	h.writeJSON(w, status, resp)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
