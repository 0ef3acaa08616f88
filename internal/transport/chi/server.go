// Package chi exposes the MCP protocol endpoint and the auxiliary HTTP
// surface over a chi router.
package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wealthai/productmaster-mcp/internal/usecase/health"
	"github.com/wealthai/productmaster-mcp/internal/usecase/tool"
	"github.com/wealthai/productmaster-mcp/internal/version"
)

const (
	serverName      = "ProductMaster MCP Server"
	protocolVersion = "2024-11-05"
)

// mcpRequest is the inbound protocol envelope. The id is kept raw so it is
// echoed back byte for byte regardless of its JSON type.
type mcpRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// callParams carries the tools/call payload.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// mcpResponse is the outbound protocol envelope. Domain failures travel in
// the error string next to a readable result; transport status stays 200.
type mcpResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Debug   any             `json:"debug_response,omitempty"`
}

// Server handles the MCP endpoint plus tool metadata, health and info routes.
type Server struct {
	registry *tool.Registry
	pipeline *tool.Pipeline
	health   *health.Service
	logger   *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(registry *tool.Registry, pipeline *tool.Pipeline, healthSvc *health.Service, logger *zap.Logger) *Server {
	return &Server{registry: registry, pipeline: pipeline, health: healthSvc, logger: logger}
}

// Mount attaches all routes to r.
func (s *Server) Mount(r chi.Router) {
	r.Post("/mcp", s.HandleMCP)
	r.Get("/tools", s.ListTools)
	r.Get("/tools/descriptions", s.ToolDescriptions)
	r.Get("/health", s.HealthCheck)
	r.Get("/", s.Root)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// HandleMCP handles POST /mcp. Only a body that fails to decode produces a
// transport-level error; everything after that is a 200 envelope.
func (s *Server) HandleMCP(w http.ResponseWriter, r *http.Request) {
	var req mcpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	switch req.Method {
	case "initialize":
		writeJSON(w, http.StatusOK, mcpResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result: map[string]any{
				"protocolVersion": protocolVersion,
				"capabilities":    map[string]any{},
				"serverInfo": map[string]any{
					"name":    serverName,
					"version": version.Version,
				},
			},
		})

	case "tools/list":
		writeJSON(w, http.StatusOK, mcpResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result:  map[string]any{"tools": s.mcpToolsFormat()},
		})

	case "tools/call":
		s.handleToolCall(w, r, req)

	default:
		msg := fmt.Sprintf("Unknown method: %s", req.Method)
		writeJSON(w, http.StatusOK, mcpResponse{
			Jsonrpc: "2.0",
			ID:      req.ID,
			Result:  msg,
			Error:   msg,
		})
	}
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request, req mcpRequest) {
	var params callParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			msg := "invalid params: " + err.Error()
			writeJSON(w, http.StatusOK, mcpResponse{
				Jsonrpc: "2.0", ID: req.ID, Result: msg, Error: msg,
			})
			return
		}
	}

	variant, ok := s.registry.Lookup(params.Name)
	if !ok {
		msg := fmt.Sprintf("Unknown tool: %s", params.Name)
		writeJSON(w, http.StatusOK, mcpResponse{
			Jsonrpc: "2.0", ID: req.ID, Result: msg, Error: msg,
		})
		return
	}

	resp := s.pipeline.Run(r.Context(), variant, params.Arguments)
	writeJSON(w, http.StatusOK, mcpResponse{
		Jsonrpc: "2.0",
		ID:      req.ID,
		Result:  resp.Result,
		Error:   resp.Error,
		Debug:   resp.DebugResponse,
	})
}

// ListTools handles GET /tools with inputSchema per tool.
func (s *Server) ListTools(w http.ResponseWriter, _ *http.Request) {
	variants := s.registry.List()
	items := make([]map[string]any, len(variants))
	for i, v := range variants {
		items[i] = map[string]any{
			"name":        v.Name,
			"description": v.Description,
			"inputSchema": v.InputSchema(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": items})
}

// ToolDescriptions handles GET /tools/descriptions with usage context for
// upstream assistants picking a tool.
func (s *Server) ToolDescriptions(w http.ResponseWriter, _ *http.Request) {
	variants := s.registry.List()
	items := make([]map[string]any, len(variants))
	for i, v := range variants {
		items[i] = map[string]any{
			"name":          v.Name,
			"description":   v.Description,
			"usage_context": v.UsageContext,
			"parameters":    v.InputSchema()["properties"],
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": items})
}

// mcpToolsFormat is the tools/list payload: metadata plus usage context.
func (s *Server) mcpToolsFormat() []map[string]any {
	variants := s.registry.List()
	items := make([]map[string]any, len(variants))
	for i, v := range variants {
		items[i] = map[string]any{
			"name":          v.Name,
			"description":   v.Description,
			"usage_context": v.UsageContext,
			"inputSchema":   v.InputSchema(),
		}
	}
	return items
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    report.Status,
		"service":   "ProductMaster-MCP",
		"checks":    report.Checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Root handles GET / with static service info.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   serverName,
		"version":   version.Version,
		"status":    "running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
