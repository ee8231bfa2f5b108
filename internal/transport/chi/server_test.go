package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
	"github.com/archpilot/archpilot/internal/similarity"
	healthuc "github.com/archpilot/archpilot/internal/usecase/health"
	searchuc "github.com/archpilot/archpilot/internal/usecase/search"
	toolsuc "github.com/archpilot/archpilot/internal/usecase/tools"
)

// --- Stubs ---

type stubStore struct {
	chunks []chunk.Chunk
}

func (s *stubStore) Chunks() []chunk.Chunk { return s.chunks }
func (s *stubStore) Len() int              { return len(s.chunks) }
func (s *stubStore) Dimension() int        { return 2 }
func (s *stubStore) ModelID() string       { return "test-model" }

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) ModelID() string { return "test-model" }

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

type stubScorer struct {
	results []similarity.Scored
}

func (s *stubScorer) TopK(_ []float32, _ []chunk.Chunk, _ int) ([]similarity.Scored, error) {
	return s.results, nil
}

type stubTool struct{}

func (stubTool) Name() string        { return "echo" }
func (stubTool) Description() string { return "echo tool" }
func (stubTool) Run(_ context.Context, _ json.RawMessage) (any, error) {
	return map[string]string{"echo": "ok"}, nil
}

func testChunk(t *testing.T, id string) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(id, chunk.Intrinsics, "text "+id, []float32{1, 0}, chunk.Metadata{
		Title: "Title " + id,
		URL:   "https://example.com/" + id,
	})
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}

func newTestRouter(t *testing.T, embedErr error) chirouter.Router {
	t.Helper()

	store := &stubStore{chunks: []chunk.Chunk{testChunk(t, "c1"), testChunk(t, "c2")}}
	scorer := &stubScorer{results: []similarity.Scored{
		{Chunk: store.chunks[0], Score: 0.9},
		{Chunk: store.chunks[1], Score: 0.7},
	}}
	searchSvc := searchuc.New(store, &stubEmbedder{vec: []float32{1, 0}, err: embedErr}, scorer, zap.NewNop())

	registry := toolsuc.NewRegistry(zap.NewNop())
	registry.Register(stubTool{})

	healthSvc := healthuc.New(store, nil)

	server := NewServer(searchSvc, registry, healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func doRequest(t *testing.T, r chirouter.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// --- Search ---

func TestSearch_OK(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{"query":"sve gather loads","limit":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("total = %d, items = %d", resp.Total, len(resp.Items))
	}
	first := resp.Items[0]
	if first.Rank != 1 || first.Text == "" || first.Category != "intrinsics" {
		t.Errorf("first item = %+v", first)
	}
	if first.Title == "" || first.URL == "" {
		t.Errorf("metadata missing: %+v", first)
	}
}

func TestSearch_BadBody(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{"query":"   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
}

func TestSearch_ExplicitZeroLimit(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{"query":"q","limit":0}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSearch_UnknownCategory(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{"query":"q","categories":["bogus"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSearch_EmbeddingUnavailable(t *testing.T) {
	r := newTestRouter(t, domain.ErrEmbeddingUnavailable)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{"query":"q"}`)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
}

func TestSearch_EmbeddingTimeout(t *testing.T) {
	r := newTestRouter(t, domain.ErrEmbeddingTimeout)

	rr := doRequest(t, r, "POST", "/api/v1/search", `{"query":"q"}`)
	if rr.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rr.Code)
	}
}

// --- Tools ---

func TestListTools(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "GET", "/api/v1/tools", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Tools []toolsuc.Descriptor `json:"tools"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tools) != 1 || resp.Tools[0].Name != "echo" {
		t.Errorf("tools = %v", resp.Tools)
	}
}

func TestCallTool_OK(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/tools/echo", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestCallTool_EmptyBody(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/tools/echo", "")
	if rr.Code != http.StatusOK {
		t.Errorf("empty body should be allowed, status = %d", rr.Code)
	}
}

func TestCallTool_Unknown(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "POST", "/api/v1/tools/nope", `{}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeUnknownTool {
		t.Errorf("code = %s, want %s", errResp.Code, CodeUnknownTool)
	}
}

// --- Health ---

func TestHealth_OK(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := doRequest(t, r, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}

	var body struct {
		Status string `json:"status"`
		Model  string `json:"model"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Model != "test-model" {
		t.Errorf("model = %q, want test-model", body.Model)
	}
}

func TestHealth_EmptyIndex503(t *testing.T) {
	searchSvc := searchuc.New(&stubStore{}, &stubEmbedder{vec: []float32{1, 0}}, &stubScorer{}, zap.NewNop())
	healthSvc := healthuc.New(&stubStore{}, nil)
	server := NewServer(searchSvc, toolsuc.NewRegistry(zap.NewNop()), healthSvc, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)

	rr := doRequest(t, r, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
