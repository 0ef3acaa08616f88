package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{1.235, 1.24},
		{0, 0},
		{99.999, 100},
		{0.004, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMillisSince(t *testing.T) {
	start := time.Now().Add(-50 * time.Millisecond)
	got := MillisSince(start)
	if got < 45 || got > 500 {
		t.Errorf("MillisSince returned implausible value: %v", got)
	}
	if got != Round2(got) {
		t.Errorf("MillisSince not rounded to two decimals: %v", got)
	}
}

func TestTrace_JSONShape(t *testing.T) {
	tr := Trace{
		Tool:  "get_product_details",
		Input: "JP001",
		Query: &QueryTrace{SQL: "SELECT 1", RowCount: 3, ElapsedMS: 1.5},
	}

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if _, ok := m["total_execution_time_ms"]; !ok {
		t.Error("expected total_execution_time_ms key")
	}
	if _, ok := m["normalize"]; ok {
		t.Error("empty normalize stage should be omitted")
	}
	if _, ok := m["error"]; ok {
		t.Error("empty error should be omitted")
	}
	q, ok := m["query"].(map[string]any)
	if !ok {
		t.Fatal("expected query stage object")
	}
	if q["results_count"] != float64(3) {
		t.Errorf("expected results_count=3, got %v", q["results_count"])
	}
}
