package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ttlearn/adapters/excel"
	"ttlearn/app"
	"ttlearn/domain/core"
	"ttlearn/domain/result"
	"ttlearn/domain/run"
	"ttlearn/internal/config"
	"ttlearn/internal/errors"
	"ttlearn/internal/testkit"
)

// memRepo is an in-memory run repository for handler tests.
type memRepo struct {
	mu    sync.Mutex
	runs  map[string]run.Run
	order []string
}

func newMemRepo() *memRepo {
	return &memRepo{runs: make(map[string]run.Run)}
}

func (r *memRepo) CreateRun(ctx context.Context, rn run.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[rn.ID.String()] = rn
	r.order = append(r.order, rn.ID.String())
	return nil
}

func (r *memRepo) FinishRun(ctx context.Context, rn run.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[rn.ID.String()]; !ok {
		return errors.NotFound("run " + rn.ID.String())
	}
	r.runs[rn.ID.String()] = rn
	return nil
}

func (r *memRepo) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rn, ok := r.runs[id.String()]
	if !ok {
		return nil, errors.NotFound("run " + id.String())
	}
	return &rn, nil
}

func (r *memRepo) ListRuns(ctx context.Context, limit int) ([]run.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []run.Run
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[r.order[i]])
	}
	return out, nil
}

func (r *memRepo) LatestRun(ctx context.Context) (*run.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil, errors.NotFound("latest run")
	}
	rn := r.runs[r.order[len(r.order)-1]]
	return &rn, nil
}

// newTestServer builds a server without worker, hub or metrics, so runs
// execute synchronously in the request.
func newTestServer(t *testing.T) (http.Handler, *memRepo) {
	t.Helper()
	handler, repo := newTestServerWithConfig(t, config.Config{Server: config.ServerConfig{GinMode: "test"}})
	return handler, repo
}

func newTestServerWithConfig(t *testing.T, cfg config.Config) (http.Handler, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	analysisSvc := app.NewAnalysisService(excel.NewReader(), repo)
	historySvc := app.NewHistoryService(repo)
	srv := NewServer(cfg, analysisSvc, historySvc, nil, nil, nil)
	return srv.Handler(), repo
}

// seedRun stores a finished run directly in the repository.
func seedRun(t *testing.T, repo *memRepo, rows []result.Row) run.Run {
	t.Helper()
	rn := run.Run{
		ID:        core.NewRunID(),
		CreatedAt: core.Now(),
		Mode:      "outcome",
		DataRoot:  "/data/trials",
		Outcome:   "Win",
		NTrials:   2,
		Status:    run.StatusCompleted,
		Processed: 1,
		Rows:      rows,
	}
	if err := repo.CreateRun(context.Background(), rn); err != nil {
		t.Fatalf("Failed to seed run: %v", err)
	}
	return rn
}

func outcomeFixture(t *testing.T) string {
	t.Helper()
	kit := testkit.NewTestKit(t.TempDir())
	for i, v := range []string{"1", "2", "3", "4"} {
		rel := fmt.Sprintf("serve/P1/win/P1_serve_win%d.xlsx", i+1)
		if err := kit.WriteTrial(rel, []testkit.Observation{{Name: "Score", Value: v}}); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}
	return kit.Root()
}

func doJSON(handler http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			reader.WriteString(s)
		} else {
			json.NewEncoder(&reader).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// TestCreateRunInvalidBody tests malformed JSON handling
func TestCreateRunInvalidBody(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doJSON(handler, http.MethodPost, "/api/runs", "{not json")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid request body") {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

// TestCreateRunValidationError tests that setup failures return the captured
// log lines
func TestCreateRunValidationError(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doJSON(handler, http.MethodPost, "/api/runs", map[string]interface{}{
		"mode":      "outcome",
		"data_root": "/nonexistent/trials",
		"n_trials":  2,
		"outcome":   "Win",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error string   `json:"error"`
		Log   []string `json:"log"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "data root directory not found") {
		t.Errorf("Unexpected error: %q", resp.Error)
	}
	if len(resp.Log) != 1 || resp.Log[0] != "Error: Data Root directory not found." {
		t.Errorf("Unexpected log lines: %v", resp.Log)
	}
}

// TestCreateRunSynchronous tests a full run through the API without a worker
func TestCreateRunSynchronous(t *testing.T) {
	handler, repo := newTestServer(t)

	w := doJSON(handler, http.MethodPost, "/api/runs", map[string]interface{}{
		"mode":      "outcome",
		"data_root": outcomeFixture(t),
		"n_trials":  2,
		"outcome":   "Win",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Run    RunDTO `json:"run"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != run.StatusCompleted {
		t.Errorf("Expected status completed, got %q", resp.Status)
	}
	if resp.Run.Processed != 1 || len(resp.Run.Rows) != 1 {
		t.Fatalf("Unexpected run payload: %+v", resp.Run)
	}

	row := resp.Run.Rows[0]
	if row.Condition != "serve (Win)" || row.Variable != "Score" {
		t.Errorf("Unexpected row: %+v", row)
	}
	if row.MeanFirst == nil || *row.MeanFirst != 1.5 {
		t.Errorf("Expected mean_first 1.5, got %v", row.MeanFirst)
	}

	stored, err := repo.GetRun(context.Background(), core.RunID(resp.Run.ID))
	if err != nil {
		t.Fatalf("Run was not recorded: %v", err)
	}
	if stored.Status != run.StatusCompleted {
		t.Errorf("Expected stored status completed, got %q", stored.Status)
	}
}

// TestCreateRunUsesConfiguredDefaults tests that fields missing from the
// request body fall back to the server's analysis defaults
func TestCreateRunUsesConfiguredDefaults(t *testing.T) {
	handler, repo := newTestServerWithConfig(t, config.Config{
		Server: config.ServerConfig{GinMode: "test"},
		Analysis: config.AnalysisConfig{
			Mode:     "outcome",
			DataRoot: outcomeFixture(t),
			Outcome:  "Win",
			NTrials:  2,
		},
	})

	w := doJSON(handler, http.MethodPost, "/api/runs", map[string]interface{}{})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Run    RunDTO `json:"run"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Run.Mode != "outcome" || resp.Run.NTrials != 2 {
		t.Errorf("Expected defaults applied, got %+v", resp.Run)
	}
	if resp.Status != run.StatusCompleted || len(resp.Run.Rows) != 1 {
		t.Errorf("Unexpected run payload: %+v", resp.Run)
	}

	if _, err := repo.GetRun(context.Background(), core.RunID(resp.Run.ID)); err != nil {
		t.Errorf("Run was not recorded: %v", err)
	}
}

// TestRunLookups tests the get, list and latest endpoints
func TestRunLookups(t *testing.T) {
	handler, repo := newTestServer(t)
	rn := seedRun(t, repo, []result.Row{
		{Condition: "serve (Win)", Variable: "Score", N: 1, MeanFirst: 1.5, MeanLast: 3.5, ShapiroP: math.NaN(), Test: result.TestWilcoxon, Statistic: 0, PValue: 1},
	})

	w := doJSON(handler, http.MethodGet, "/api/runs/"+rn.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var dto RunDTO
	if err := json.Unmarshal(w.Body.Bytes(), &dto); err != nil {
		t.Fatalf("Failed to decode run: %v", err)
	}
	if dto.ID != rn.ID.String() {
		t.Errorf("Expected id %s, got %s", rn.ID, dto.ID)
	}
	if len(dto.Rows) != 1 || dto.Rows[0].ShapiroP != nil {
		t.Errorf("Expected NaN Shapiro p to serialize as null, got %+v", dto.Rows)
	}

	w = doJSON(handler, http.MethodGet, "/api/runs?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list struct {
		Runs  []RunDTO `json:"runs"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if list.Count != 1 || len(list.Runs) != 1 {
		t.Errorf("Unexpected list payload: %+v", list)
	}

	w = doJSON(handler, http.MethodGet, "/api/runs/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for latest, got %d", w.Code)
	}

	w = doJSON(handler, http.MethodGet, "/api/runs/"+core.NewRunID().String(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown run, got %d", w.Code)
	}

	w = doJSON(handler, http.MethodGet, "/api/runs/%20", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for blank id, got %d", w.Code)
	}
}

// TestExportRun tests the download endpoint in both formats
func TestExportRun(t *testing.T) {
	handler, repo := newTestServer(t)
	rn := seedRun(t, repo, []result.Row{
		{Condition: "serve (Win)", Variable: "Score", N: 1, MeanFirst: 1.5, MeanLast: 3.5, ShapiroP: 0.9, Test: result.TestPairedT, Statistic: -1.25, PValue: 0.4366},
	})

	w := doJSON(handler, http.MethodGet, "/api/runs/"+rn.ID.String()+"/export?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Unexpected Content-Type: %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "results_"+rn.ID.String()+".csv") {
		t.Errorf("Unexpected Content-Disposition: %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "Condition,Variable,N,") {
		t.Errorf("Unexpected CSV body: %s", w.Body.String())
	}

	w = doJSON(handler, http.MethodGet, "/api/runs/"+rn.ID.String()+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for xlsx, got %d", w.Code)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("Expected a zip container for the xlsx export")
	}

	w = doJSON(handler, http.MethodGet, "/api/runs/"+rn.ID.String()+"/export?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown format, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "format must be csv or xlsx") {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}

	empty := seedRun(t, repo, nil)
	w = doJSON(handler, http.MethodGet, "/api/runs/"+empty.ID.String()+"/export?format=csv", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a run without results, got %d", w.Code)
	}
}

// TestRunReport tests HTML and raw Markdown rendering
func TestRunReport(t *testing.T) {
	handler, repo := newTestServer(t)
	rn := seedRun(t, repo, []result.Row{
		{Condition: "serve (Win)", Variable: "Score", N: 1, MeanFirst: 1.5, MeanLast: 3.5, ShapiroP: 0.9, Test: result.TestPairedT, Statistic: -1.25, PValue: 0.4366},
	})

	w := doJSON(handler, http.MethodGet, "/api/runs/"+rn.ID.String()+"/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Unexpected Content-Type: %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Learning Effect Report") || !strings.Contains(w.Body.String(), "<h1") {
		t.Errorf("Unexpected HTML report: %s", w.Body.String())
	}

	w = doJSON(handler, http.MethodGet, "/api/runs/"+rn.ID.String()+"/report?format=md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
		t.Errorf("Unexpected Content-Type: %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "# Learning Effect Report") {
		t.Errorf("Unexpected Markdown report: %s", w.Body.String())
	}
}
