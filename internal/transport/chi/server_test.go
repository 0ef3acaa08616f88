package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chiv5 "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wealthai/productmaster-mcp/internal/domain"
	"github.com/wealthai/productmaster-mcp/internal/usecase/health"
	"github.com/wealthai/productmaster-mcp/internal/usecase/tool"
)

// --- Stubs ---

type stubNormalizer struct{}

func (stubNormalizer) ProductSearch(_ context.Context, _ string) (domain.Filter, *domain.NormalizeTrace, error) {
	return domain.Filter{ProductCode: "JP001"}, &domain.NormalizeTrace{}, nil
}

func (stubNormalizer) RiskFilter(_ context.Context, _ string, _ []string) (domain.Filter, *domain.NormalizeTrace, error) {
	return domain.Filter{}, &domain.NormalizeTrace{}, nil
}

func (stubNormalizer) ProductIDs(_ context.Context, _ string) (domain.Filter, *domain.NormalizeTrace, error) {
	return domain.Filter{}, &domain.NormalizeTrace{}, nil
}

func (stubNormalizer) FuzzyCriteria(_ context.Context, _ string) (string, *domain.NormalizeTrace, error) {
	return "criteria", &domain.NormalizeTrace{}, nil
}

func (stubNormalizer) FuzzySelect(_ context.Context, _ string, _ []string) ([]string, *domain.NormalizeTrace, error) {
	return nil, &domain.NormalizeTrace{}, nil
}

type stubCatalog struct{}

func (stubCatalog) Search(_ context.Context, _ string, _ []any) ([]domain.Product, error) {
	return []domain.Product{{ID: 1, ProductCode: "JP001", ProductName: "国債10年"}}, nil
}

func (stubCatalog) ActiveCategories(_ context.Context) []string { return []string{"債券"} }

func (stubCatalog) ProductNames(_ context.Context) ([]string, error) {
	return []string{"1:国債10年"}, nil
}

type stubFormatter struct{}

func (stubFormatter) Format(_ context.Context, _ string, _ any, count int, _ string) (string, *domain.FormatTrace, error) {
	if count == 0 {
		return "商品検索結果: 該当する商品はありませんでした。", &domain.FormatTrace{Skipped: true}, nil
	}
	return "商品検索結果: 国債10年", &domain.FormatTrace{}, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

func newTestRouter(dbErr error) http.Handler {
	pipeline := tool.NewPipeline(stubNormalizer{}, stubCatalog{}, stubFormatter{})
	healthSvc := health.New(stubPinger{err: dbErr}, nil)
	server := NewServer(tool.NewRegistry(), pipeline, healthSvc, zap.NewNop())

	r := chiv5.NewRouter()
	server.Mount(r)
	return r
}

func postMCP(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return m
}

// --- Tests ---

func TestHandleMCP_Initialize(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h, `{"jsonrpc":"2.0","id":7,"method":"initialize","params":{}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["id"] != float64(7) {
		t.Errorf("id must be echoed, got %v", m["id"])
	}
	result := m["result"].(map[string]any)
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("unexpected protocol version: %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != "ProductMaster MCP Server" {
		t.Errorf("unexpected server name: %v", info["name"])
	}
}

func TestHandleMCP_IDEchoedForAnyJSONType(t *testing.T) {
	h := newTestRouter(nil)

	for _, id := range []string{`42`, `"abc-1"`, `null`} {
		rec := postMCP(t, h, `{"jsonrpc":"2.0","id":`+id+`,"method":"tools/list"}`)
		var m map[string]json.RawMessage
		if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		// null id is omitted entirely; others echo byte for byte.
		if id == `null` {
			if _, ok := m["id"]; ok && string(m["id"]) != "null" {
				t.Errorf("unexpected id for null: %s", m["id"])
			}
			continue
		}
		if string(m["id"]) != id {
			t.Errorf("id %s not echoed, got %s", id, m["id"])
		}
	}
}

func TestHandleMCP_ToolsList(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	m := decodeEnvelope(t, rec)
	result := m["result"].(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}
	first := tools[0].(map[string]any)
	if first["name"] != "get_product_details" {
		t.Errorf("unexpected first tool: %v", first["name"])
	}
	if first["inputSchema"] == nil || first["usage_context"] == nil {
		t.Error("expected inputSchema and usage_context")
	}
}

func TestHandleMCP_ToolsCall(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_product_details","arguments":{"text_input":"JP001"}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["id"] != float64(3) {
		t.Errorf("id must be echoed, got %v", m["id"])
	}
	if m["result"] != "商品検索結果: 国債10年" {
		t.Errorf("unexpected result: %v", m["result"])
	}
	if _, ok := m["error"]; ok {
		t.Errorf("no error expected, got %v", m["error"])
	}
	debug := m["debug_response"].(map[string]any)
	if debug["tool"] != "get_product_details" {
		t.Errorf("unexpected trace tool: %v", debug["tool"])
	}
}

func TestHandleMCP_ToolsCall_MissingInput(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"get_product_details","arguments":{}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("domain errors must stay 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["result"] != "text_inputが必要です" {
		t.Errorf("unexpected result: %v", m["result"])
	}
	if !strings.HasPrefix(m["error"].(string), "InputError") {
		t.Errorf("expected InputError, got %v", m["error"])
	}
}

func TestHandleMCP_UnknownTool(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"no_such_tool","arguments":{}}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unknown tool must stay 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["error"] != "Unknown tool: no_such_tool" {
		t.Errorf("unexpected error: %v", m["error"])
	}
	if m["result"] != "Unknown tool: no_such_tool" {
		t.Errorf("unexpected result: %v", m["result"])
	}
}

func TestHandleMCP_UnknownMethod(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h, `{"jsonrpc":"2.0","id":6,"method":"resources/list"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unknown method must stay 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["error"] != "Unknown method: resources/list" {
		t.Errorf("unexpected error: %v", m["error"])
	}
}

func TestHandleMCP_MalformedBody(t *testing.T) {
	h := newTestRouter(nil)
	rec := postMCP(t, h, `{"jsonrpc":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body must be 400, got %d", rec.Code)
	}
}

func TestListTools(t *testing.T) {
	h := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	tools := m["tools"].([]any)
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}
	first := tools[0].(map[string]any)
	schema := first["inputSchema"].(map[string]any)
	if schema["type"] != "object" {
		t.Errorf("unexpected schema: %v", schema)
	}
}

func TestToolDescriptions(t *testing.T) {
	h := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/tools/descriptions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	m := decodeEnvelope(t, rec)
	tools := m["tools"].([]any)
	first := tools[0].(map[string]any)
	if first["usage_context"] == nil || first["parameters"] == nil {
		t.Errorf("expected usage_context and parameters: %v", first)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["status"] != "ok" {
		t.Errorf("unexpected status: %v", m["status"])
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	h := newTestRouter(errors.New("db down"))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["status"] != "degraded" {
		t.Errorf("unexpected status: %v", m["status"])
	}
}

func TestRoot(t *testing.T) {
	h := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decodeEnvelope(t, rec)
	if m["service"] != "ProductMaster MCP Server" {
		t.Errorf("unexpected service name: %v", m["service"])
	}
	if m["status"] != "running" {
		t.Errorf("unexpected status: %v", m["status"])
	}
}
