// Package format renders catalog result sets into human-readable text via a
// prompt-store template and one model call.
package format

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wealthai/productmaster-mcp/internal/domain"
	"github.com/wealthai/productmaster-mcp/internal/logger"
)

// NoResultsMessage is the fixed empty-result sentence. Returned without any
// prompt store or model call.
const NoResultsMessage = "商品検索結果: 該当する商品はありませんでした。"

const (
	formatMaxTokens   = 2000
	formatTemperature = 0.1
)

// Service formats result payloads. On prompt store or model failure it
// returns a deterministic fallback sentence embedding the failure message
// together with a FormatError; it never panics and the returned text is
// always usable as a tool result.
type Service struct {
	prompts PromptStore
	llm     LLM
}

// New creates a formatter.
func New(prompts PromptStore, llm LLM) *Service {
	return &Service{prompts: prompts, llm: llm}
}

// Format renders payload (a product slice or an "id:name" list) with the
// keyed template. count is the number of result entries: zero short-circuits
// to NoResultsMessage. question, when non-empty, gives the model the original
// user utterance for context.
func (s *Service) Format(
	ctx context.Context, key string, payload any, count int, question string,
) (string, *domain.FormatTrace, error) {
	start := time.Now()
	tr := &domain.FormatTrace{}
	defer func() { tr.ElapsedMS = domain.MillisSince(start) }()

	if count == 0 {
		tr.Skipped = true
		return NoResultsMessage, tr, nil
	}

	system, err := s.prompts.Get(ctx, key)
	if err != nil {
		return s.fallback(tr, count, err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return s.fallback(tr, count, err)
	}

	var user strings.Builder
	if question != "" {
		fmt.Fprintf(&user, "元の質問: %s\n\n", question)
	}
	fmt.Fprintf(&user, "検索結果: %s", data)

	tr.Prompt = fmt.Sprintf("System: %s\n\nUser: %s", system, user.String())

	raw, _, err := s.llm.Complete(ctx, system, user.String(), formatMaxTokens, formatTemperature)
	if err != nil {
		return s.fallback(tr, count, err)
	}
	tr.Response = raw

	logger.FromContext(ctx).Debug("results formatted", zap.Int("results_count", count))
	return strings.TrimSpace(raw), tr, nil
}

// fallback produces the deterministic degraded sentence. The cause lands in
// the trace and in the wrapping FormatError, never in a panic.
func (s *Service) fallback(tr *domain.FormatTrace, count int, cause error) (string, *domain.FormatTrace, error) {
	tr.Error = cause.Error()
	text := fmt.Sprintf("検索結果: %d件の商品が見つかりました（整形エラー: %s）", count, cause)
	return text, tr, fmt.Errorf("%w: %s", domain.ErrFormat, cause)
}
