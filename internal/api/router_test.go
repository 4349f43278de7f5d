package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/driveagent/driveagent/internal/agent"
	"github.com/driveagent/driveagent/internal/api"
	"github.com/driveagent/driveagent/internal/api/handlers"
	"github.com/driveagent/driveagent/internal/config"
	"github.com/driveagent/driveagent/internal/ingest"
	"github.com/driveagent/driveagent/internal/tools"
	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/models"
)

// textModel always answers with the same text and a constant embedding.
type textModel struct{ reply string }

func (m textModel) Chat(context.Context, string, string) (string, error) { return m.reply, nil }

func (m textModel) ChatWithTools(context.Context, []models.Turn, []models.ToolSpec, bool) (*models.ModelResponse, error) {
	return &models.ModelResponse{Text: m.reply}, nil
}

func (m textModel) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type noopSender struct{}

func (noopSender) Send(context.Context, string, string, string) error { return nil }

// staticDrive lists a fixed file set and serves its bytes.
type staticDrive struct {
	files   []models.DriveFile
	content map[string]string
}

func (d staticDrive) ListTree(context.Context, string) ([]models.DriveFile, error) {
	return d.files, nil
}

func (d staticDrive) Download(_ context.Context, fileID, _ string, dst io.Writer) error {
	_, err := io.WriteString(dst, d.content[fileID])
	return err
}

func (d staticDrive) ReadSheet(context.Context, string) (string, error) {
	return "", nil
}

type readBackExtractor struct{}

func (readBackExtractor) Extract(_ context.Context, path, _ string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newTestRouter(t *testing.T, pipeline *ingest.Pipeline) http.Handler {
	t.Helper()
	model := textModel{reply: "All done."}
	store := vectorstore.New(vectorstore.NewEmbeddedBackend(), model, "Drive", "documents")
	registry := tools.NewRegistry(store, noopSender{}, model, tools.Config{})
	orch := agent.New(model, registry)

	cfg := config.Load()
	cfg.Version = "test-version"
	return api.NewRouter(cfg, handlers.New(orch, pipeline, store))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestRouter(t, nil)

	w, body := doJSON(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health: status = %d body = %v", w.Code, body)
	}

	w, body = doJSON(t, h, http.MethodGet, "/version", nil)
	if w.Code != http.StatusOK || body["version"] != "test-version" {
		t.Errorf("version: status = %d body = %v", w.Code, body)
	}
}

func TestAgentTaskEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/agent/task", map[string]any{
		"prompt": "what documents do we have?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %v", w.Code, body)
	}
	if body["success"] != true {
		t.Errorf("body = %v, want success envelope", body)
	}
	data := body["data"].(map[string]any)
	if data["answer"] != "All done." {
		t.Errorf("answer = %v, want model text", data["answer"])
	}
}

func TestAgentTaskEndpointBadRequests(t *testing.T) {
	h := newTestRouter(t, nil)

	// Malformed body
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/task", bytes.NewBufferString("{broken"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", w.Code)
	}

	// Empty prompt
	w2, body := doJSON(t, h, http.MethodPost, "/api/v1/agent/task", map[string]any{"prompt": ""})
	if w2.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("empty prompt: status = %d body = %v, want 400 failure envelope", w2.Code, body)
	}

	// Out-of-range iterations
	w3, _ := doJSON(t, h, http.MethodPost, "/api/v1/agent/task", map[string]any{
		"prompt": "x", "maxIterations": 50,
	})
	if w3.Code != http.StatusBadRequest {
		t.Errorf("maxIterations 50: status = %d, want 400", w3.Code)
	}
}

func TestSyncEndpointsUnconfigured(t *testing.T) {
	h := newTestRouter(t, nil)

	w, _ := doJSON(t, h, http.MethodPost, "/api/v1/sync", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("sync without pipeline: status = %d, want 503", w.Code)
	}

	w, _ = doJSON(t, h, http.MethodGet, "/api/v1/sync/status", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("sync status without pipeline: status = %d, want 503", w.Code)
	}
}

func TestSyncEndpoints(t *testing.T) {
	model := textModel{reply: "ok"}
	store := vectorstore.New(vectorstore.NewEmbeddedBackend(), model, "Drive", "documents")
	drive := staticDrive{
		files: []models.DriveFile{
			{ID: "f1", Name: "readme", MimeType: "text/plain", ModifiedTime: "2026-01-01T00:00:00Z"},
		},
		content: map[string]string{"f1": "hello"},
	}
	cache := ingest.NewFileSyncCache(filepath.Join(t.TempDir(), "sync-cache.json"))
	pipeline := ingest.NewPipeline(drive, readBackExtractor{}, store, cache, "root")

	registry := tools.NewRegistry(store, noopSender{}, model, tools.Config{})
	cfg := config.Load()
	h := api.NewRouter(cfg, handlers.New(agent.New(model, registry), pipeline, store))

	// Before any run the status reports no record.
	w, body := doJSON(t, h, http.MethodGet, "/api/v1/sync/status", nil)
	if w.Code != http.StatusOK || body["data"] != nil {
		t.Errorf("pre-sync status = %d body = %v, want empty record", w.Code, body)
	}

	w, body = doJSON(t, h, http.MethodPost, "/api/v1/sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sync: status = %d body = %v", w.Code, body)
	}
	report := body["data"].(map[string]any)
	if report["added"] != float64(1) || report["listed"] != float64(1) {
		t.Errorf("report = %v, want one file listed and added", report)
	}

	w, body = doJSON(t, h, http.MethodGet, "/api/v1/sync/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: status = %d", w.Code)
	}
	record := body["data"].(map[string]any)
	if record["fileCount"] != float64(1) {
		t.Errorf("record = %v, want file count 1", record)
	}

	// Stats reflect the sync.
	w, body = doJSON(t, h, http.MethodGet, "/api/v1/documents/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", w.Code)
	}
	stats := body["data"].(map[string]any)
	if stats["count"] != float64(1) {
		t.Errorf("stats = %v, want count 1", stats)
	}
}
