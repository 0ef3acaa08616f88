package format

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wealthai/productmaster-mcp/internal/domain"
)

// --- Mocks ---

type mockPromptStore struct {
	prompt string
	err    error
	calls  int
}

func (m *mockPromptStore) Get(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.prompt, nil
}

type mockLLM struct {
	response string
	err      error
	calls    int
	system   string
	user     string
}

func (m *mockLLM) Complete(_ context.Context, system, user string, _ int, _ float32) (string, float64, error) {
	m.calls++
	m.system = system
	m.user = user
	if m.err != nil {
		return "", 2.0, m.err
	}
	return m.response, 2.0, nil
}

// --- Tests ---

func TestFormat(t *testing.T) {
	store := &mockPromptStore{prompt: "整形テンプレート"}
	llm := &mockLLM{response: "  商品検索結果:\n- 国債10年 (JP001)  "}
	svc := New(store, llm)

	products := []domain.Product{{ID: 1, ProductCode: "JP001", ProductName: "国債10年"}}
	got, tr, err := svc.Format(context.Background(), "format_product_details_pre", products, 1, "JP001について")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "商品検索結果:\n- 国債10年 (JP001)" {
		t.Errorf("expected trimmed model text, got %q", got)
	}
	if !strings.Contains(llm.user, "元の質問: JP001について") {
		t.Errorf("user message missing original question: %q", llm.user)
	}
	if !strings.Contains(llm.user, `"product_code": "JP001"`) {
		t.Errorf("user message missing serialized results: %q", llm.user)
	}
	if tr.Skipped {
		t.Error("skipped flag must not be set on a real call")
	}
	if tr.Response == "" {
		t.Error("expected response recorded in trace")
	}
}

func TestFormat_NoQuestion(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	svc := New(&mockPromptStore{prompt: "p"}, llm)

	_, _, err := svc.Format(context.Background(), "k", []domain.Product{{}}, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(llm.user, "元の質問") {
		t.Errorf("question block must be absent when question is empty: %q", llm.user)
	}
}

func TestFormat_ZeroResultsShortCircuit(t *testing.T) {
	store := &mockPromptStore{}
	llm := &mockLLM{}
	svc := New(store, llm)

	got, tr, err := svc.Format(context.Background(), "k", []domain.Product{}, 0, "質問")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != NoResultsMessage {
		t.Errorf("expected fixed no-results sentence, got %q", got)
	}
	if !tr.Skipped {
		t.Error("expected skipped flag")
	}
	if store.calls != 0 || llm.calls != 0 {
		t.Errorf("no collaborator may be touched: store=%d llm=%d", store.calls, llm.calls)
	}
}

func TestFormat_PromptStoreFallback(t *testing.T) {
	cause := fmt.Errorf("%w: status 503", domain.ErrPromptStore)
	svc := New(&mockPromptStore{err: cause}, &mockLLM{})

	got, tr, err := svc.Format(context.Background(), "k", []domain.Product{{}}, 4, "")
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !strings.Contains(got, "4件の商品が見つかりました") {
		t.Errorf("fallback must embed the result count, got %q", got)
	}
	if !strings.Contains(got, "整形エラー") {
		t.Errorf("fallback must mark the formatting failure, got %q", got)
	}
	if tr.Error == "" {
		t.Error("expected cause recorded in trace")
	}
}

func TestFormat_LLMFallback(t *testing.T) {
	cause := fmt.Errorf("completion API error 500: %w", domain.ErrLLM)
	svc := New(&mockPromptStore{prompt: "p"}, &mockLLM{err: cause})

	got, _, err := svc.Format(context.Background(), "k", []domain.Product{{}}, 2, "")
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	// Category is FormatError even though the cause was a model failure.
	if domain.ErrorCategory(err) != "FormatError" {
		t.Errorf("expected FormatError category, got %q", domain.ErrorCategory(err))
	}
	if !strings.Contains(got, "2件") {
		t.Errorf("fallback must embed the count, got %q", got)
	}
}
