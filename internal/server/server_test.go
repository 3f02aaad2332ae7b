package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/cache"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/store"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

const basicRequest = `{
	"horizonDays": 30,
	"startDate": "2025-06-01",
	"locale": "en-US",
	"inputs": {
		"accounts": [{"id": "checking", "name": "Checking", "kind": "checking", "balance": 100000, "balanceUpdatedAt": "2025-05-31"}],
		"recurringProjects": [{
			"id": "salary", "name": "Salary", "amount": 50000, "frequency": "monthly",
			"certainty": "guaranteed", "active": true,
			"schedule": {"type": "dayOfMonth", "dayOfMonth": 5}
		}],
		"fixedExpenses": [{"id": "rent", "name": "Rent", "amount": 30000, "dueDay": 10, "active": true}]
	}
}`

const plannerYAML = `projection:
  horizonDays: 14
  startDate: 2025-06-01
  locale: pt-BR
inputs:
  accounts:
    - id: checking
      kind: checking
      balance: 100
      balanceUpdatedAt: 2025-05-31
  fixedExpenses:
    - id: rent
      name: Rent
      amount: 300
      dueDay: 10
    - id: gym
      name: Gym
      amount: 50
      dueDay: 3
      active: false
`

func newTestHandler(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	opts := Options{
		Logger:        zap.NewNop(),
		Version:       "1.2.3",
		Locale:        "pt-BR",
		StalenessDays: 7,
		Memoizer:      cache.NewMemoizer(zap.NewNop(), cache.NewMemoryCache(), time.Minute),
		Now:           func() time.Time { return fixedNow },
	}
	if withStore {
		s, err := store.Open(filepath.Join(t.TempDir(), "snapshots.db"))
		if err != nil {
			t.Fatalf("store.Open() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		opts.Store = s
	}
	return NewHandler(opts)
}

func doRequest(handler http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandleProjectionJSON(t *testing.T) {
	handler := newTestHandler(t, false)

	rr := doRequest(handler, http.MethodPost, "/api/projection", "application/json", basicRequest)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp projectionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Projection.Days) != 30 || len(resp.Points) != 30 {
		t.Fatalf("expected 30 days and points, got %d/%d", len(resp.Projection.Days), len(resp.Points))
	}
	if resp.Projection.Optimistic.EndBalance != 120000 {
		t.Errorf("expected end balance 120000, got %d", resp.Projection.Optimistic.EndBalance)
	}
	if resp.Points[0].Label != "Jun 1" {
		t.Errorf("expected an English label, got %q", resp.Points[0].Label)
	}
	if resp.Health.Status != health.StatusGood {
		t.Errorf("expected good health, got %s: %s", resp.Health.Status, resp.Health.Message)
	}
	if resp.Cached {
		t.Error("first request should not be cached")
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}

	rr = doRequest(handler, http.MethodPost, "/api/projection", "application/json", basicRequest)
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Cached {
		t.Error("repeated request should be served from the cache")
	}
}

func TestHandleProjectionYAML(t *testing.T) {
	handler := newTestHandler(t, false)

	for _, contentType := range []string{"application/yaml", "text/yaml; charset=utf-8"} {
		rr := doRequest(handler, http.MethodPost, "/api/projection", contentType, plannerYAML)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d: %s", contentType, rr.Code, rr.Body.String())
		}

		var resp projectionResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Projection.Days) != 14 {
			t.Errorf("expected 14 days, got %d", len(resp.Projection.Days))
		}
		if resp.Points[0].Label != "01/06" {
			t.Errorf("expected a pt-BR label, got %q", resp.Points[0].Label)
		}
		// No income at all, so rent on the 10th sinks both scenarios.
		if resp.Health.Status != health.StatusDanger {
			t.Errorf("expected danger health, got %s", resp.Health.Status)
		}
		if len(resp.Summary.DangerRanges) != 1 {
			t.Errorf("expected one danger range, got %+v", resp.Summary.DangerRanges)
		}
		if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "gym is inactive") {
			t.Errorf("expected the inactive warning, got %v", resp.Warnings)
		}
	}
}

func TestHandleProjectionUpload(t *testing.T) {
	handler := newTestHandler(t, false)

	rr := performUpload(t, handler, plannerYAML, "planner.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleProjectionExampleUpload(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "config.yaml.example"))
	if err != nil {
		t.Fatalf("failed to read example config: %v", err)
	}

	rr := performUpload(t, newTestHandler(t, false), string(data), "config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleProjectionErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		contains    string
	}{
		{
			name:        "Empty body",
			contentType: "application/json",
			status:      http.StatusBadRequest,
			contains:    "empty request body",
		},
		{
			name:        "Unknown field",
			contentType: "application/json",
			body:        `{"horizon": 30}`,
			status:      http.StatusBadRequest,
			contains:    "unknown field",
		},
		{
			name:        "Unsupported horizon",
			contentType: "application/json",
			body:        `{"horizonDays": 45, "inputs": {}}`,
			status:      http.StatusBadRequest,
			contains:    "got 45",
		},
		{
			name:        "Unreadable date",
			contentType: "application/json",
			body:        `{"inputs": {"singleShotExpenses": [{"id": "x", "amount": 1, "date": "tomorrow"}]}}`,
			status:      http.StatusBadRequest,
			contains:    "invalid dates",
		},
		{
			name:        "Schedule mismatch",
			contentType: "application/json",
			body: `{"inputs": {"recurringProjects": [{"id": "p", "amount": 1, "frequency": "weekly",
				"certainty": "guaranteed", "active": true, "schedule": {"type": "dayOfMonth", "dayOfMonth": 5}}]}}`,
			status:   http.StatusBadRequest,
			contains: "schedule",
		},
		{
			name:        "Invalid YAML",
			contentType: "application/yaml",
			body:        "inputs: [unclosed",
			status:      http.StatusBadRequest,
			contains:    "error reading config",
		},
		{
			name:        "Unsupported content type",
			contentType: "text/plain",
			body:        "hello",
			status:      http.StatusUnsupportedMediaType,
			contains:    "unsupported content type",
		},
	}

	handler := newTestHandler(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(handler, http.MethodPost, "/api/projection", tt.contentType, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp.Error, tt.contains) {
				t.Errorf("expected error to contain %q, got %q", tt.contains, resp.Error)
			}
		})
	}
}

func TestHandleProjectionFieldErrors(t *testing.T) {
	body := `{"inputs": {"accounts": [{"id": "a", "kind": "crypto"}, {"id": "a", "kind": "checking"}]}}`
	rr := doRequest(newTestHandler(t, false), http.MethodPost, "/api/projection", "application/json", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Fields) < 2 {
		t.Fatalf("expected field errors for the kind and the duplicate id, got %+v", resp.Fields)
	}
}

func TestHandleProjectionMethodNotAllowed(t *testing.T) {
	rr := doRequest(newTestHandler(t, false), http.MethodGet, "/api/projection", "", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleProjectionUploadTooLarge(t *testing.T) {
	handler := NewHandler(Options{Logger: zap.NewNop(), MaxUploadSize: 64})

	rr := performUpload(t, handler, strings.Repeat("a", 128), "config.yaml")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleProjectionMissingFile(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	rr := doRequest(newTestHandler(t, false), http.MethodPost, "/api/projection", writer.FormDataContentType(), body.String())
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "missing configuration file") {
		t.Fatalf("expected missing file error, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	handler := newTestHandler(t, true)

	createBody := strings.Replace(basicRequest, "{", `{"name": "June plan", "groupId": "home",`, 1)
	rr := doRequest(handler, http.MethodPost, "/api/snapshots", "application/json", createBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Snapshot.ID == "" || created.Snapshot.Name != "June plan" {
		t.Fatalf("unexpected snapshot %+v", created.Snapshot)
	}
	if !created.Snapshot.CreatedAt.Equal(fixedNow) {
		t.Errorf("expected CreatedAt %s, got %s", fixedNow, created.Snapshot.CreatedAt)
	}

	rr = doRequest(handler, http.MethodGet, "/api/snapshots?groupId=home", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var listed map[string][]store.Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed["snapshots"]) != 1 || listed["snapshots"][0].ID != created.Snapshot.ID {
		t.Fatalf("unexpected listing %+v", listed)
	}

	rr = doRequest(handler, http.MethodGet, "/api/snapshots/"+created.Snapshot.ID, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var loaded snapshotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Snapshot.Data.SummaryMetrics != created.Snapshot.Data.SummaryMetrics {
		t.Errorf("summary metrics changed: %+v vs %+v", loaded.Snapshot.Data.SummaryMetrics, created.Snapshot.Data.SummaryMetrics)
	}
	if loaded.Warnings == nil || len(loaded.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", loaded.Warnings)
	}

	rr = doRequest(handler, http.MethodDelete, "/api/snapshots/"+created.Snapshot.ID, "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	rr = doRequest(handler, http.MethodGet, "/api/snapshots/"+created.Snapshot.ID, "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestSnapshotEndpointsWithoutStore(t *testing.T) {
	handler := newTestHandler(t, false)
	rr := doRequest(handler, http.MethodGet, "/api/snapshots", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	rr := doRequest(newTestHandler(t, false), http.MethodGet, "/api/version", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["version"] != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", resp["version"])
	}

	rr = doRequest(NewHandler(Options{}), http.MethodGet, "/api/version", "", "")
	if !strings.Contains(rr.Body.String(), `"dev"`) {
		t.Errorf("expected dev version by default, got %s", rr.Body.String())
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/projection", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
