package productmcp

import "encoding/json"

// request is the outbound protocol envelope.
type request struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// response is the inbound protocol envelope.
type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
	Debug   json.RawMessage `json:"debug_response"`
}

// ServerInfo describes the server reported by initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Tool is one entry from tools/list.
type Tool struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UsageContext string          `json:"usage_context"`
	InputSchema  json.RawMessage `json:"inputSchema"`
}

// ToolResult is the outcome of one tools/call. Err carries the server-side
// error category and message when the call degraded; Result is readable text
// either way. Debug holds the raw execution trace when the server sent one.
type ToolResult struct {
	Result string
	Err    string
	Debug  json.RawMessage
}
