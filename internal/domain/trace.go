package domain

import (
	"math"
	"time"
)

// LLMExchange records one model round trip inside a stage.
type LLMExchange struct {
	Prompt    string  `json:"prompt"`
	Response  string  `json:"response"`
	ElapsedMS float64 `json:"execution_time_ms"`
}

// NormalizeTrace records the argument-standardization stage. Stages holds the
// LLM exchanges in call order (the two-pass variants produce two entries).
type NormalizeTrace struct {
	Stages    []LLMExchange `json:"stages,omitempty"`
	Parsed    *Filter       `json:"parsed,omitempty"`
	Error     string        `json:"error,omitempty"`
	ElapsedMS float64       `json:"execution_time_ms"`
}

// QueryTrace records the catalog query stage.
type QueryTrace struct {
	SQL       string  `json:"sql"`
	Args      []any   `json:"args,omitempty"`
	RowCount  int     `json:"results_count"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS float64 `json:"execution_time_ms"`
}

// FormatTrace records the result-formatting stage. Skipped is set when the
// empty-result short circuit fired and no model call was made.
type FormatTrace struct {
	Prompt    string  `json:"prompt,omitempty"`
	Response  string  `json:"response,omitempty"`
	Skipped   bool    `json:"skipped,omitempty"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS float64 `json:"execution_time_ms"`
}

// Trace is the request-scoped debug record assembled by the pipeline. Each
// stage fills its own section before the next stage starts, so a mid-pipeline
// failure still shows which stages completed. Serialized as debug_response and
// discarded once the HTTP response is written.
type Trace struct {
	Tool      string          `json:"tool"`
	Input     string          `json:"input,omitempty"`
	Normalize *NormalizeTrace `json:"normalize,omitempty"`
	Query     *QueryTrace     `json:"query,omitempty"`
	Format    *FormatTrace    `json:"format,omitempty"`
	Error     string          `json:"error,omitempty"`
	ElapsedMS float64         `json:"total_execution_time_ms"`
}

// MillisSince returns wall-clock elapsed milliseconds rounded to two decimals.
func MillisSince(start time.Time) float64 {
	return Round2(float64(time.Since(start).Microseconds()) / 1000.0)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
