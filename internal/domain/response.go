package domain

// ToolResponse is the uniform envelope every tool call produces, success or
// failure. Result always carries a human-readable sentence; Error carries the
// machine-readable "<Category>: <message>" form when a stage degraded.
type ToolResponse struct {
	Result        string `json:"result"`
	Error         string `json:"error,omitempty"`
	DebugResponse *Trace `json:"debug_response,omitempty"`
}
