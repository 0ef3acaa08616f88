// Package normalize turns free-text user queries into structured search
// filters via prompt-store templates and model calls.
package normalize

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

// Prompt store keys, one per extraction step.
const (
	keyProductKeywords = "extract_product_keywords_pre"
	keyProductInfo     = "extract_product_info_pre"
	keyRiskConditions  = "filter_products_by_risk_and_type_extract_conditions"
	keyProductIDs      = "extract_product_ids_pre"
	keyFuzzyCriteria   = "fuzzy_search_extract_criteria"
	keyFuzzySelect     = "fuzzy_search_filter_products"
)

// Per-call-site model budgets.
const (
	keywordMaxTokens     = 4000
	conditionMaxTokens   = 500
	fuzzySelectMaxTokens = 4000
	defaultTemperature   = 0.1
)

// Service normalizes free text into domain.Filter values. It never panics and
// never swallows its own failures silently: every path returns a trace, and
// errors are categorized so the pipeline can decide the degradation policy.
type Service struct {
	prompts PromptStore
	llm     LLM
}

// New creates a normalizer.
func New(prompts PromptStore, llm LLM) *Service {
	return &Service{prompts: prompts, llm: llm}
}

// ProductSearch extracts product_code / product_name / maturity_date /
// risk_level in two passes: the first model call distills loose keywords, the
// second turns those keywords into structured parameters.
func (s *Service) ProductSearch(ctx context.Context, text string) (domain.Filter, *domain.NormalizeTrace, error) {
	start := time.Now()
	tr := &domain.NormalizeTrace{}
	defer func() { tr.ElapsedMS = domain.MillisSince(start) }()

	keywords, err := s.exchange(ctx, tr, keyProductKeywords, text, keywordMaxTokens)
	if err != nil {
		return domain.Filter{}, tr, err
	}

	raw, err := s.exchange(ctx, tr, keyProductInfo, keywords, keywordMaxTokens)
	if err != nil {
		return domain.Filter{}, tr, err
	}

	m, err := parseObject(raw)
	if err != nil {
		tr.Error = err.Error()
		return domain.Filter{}, tr, err
	}

	f := domain.Filter{
		ProductCode:  stringField(m, "product_code"),
		ProductName:  stringField(m, "product_name"),
		MaturityDate: stringField(m, "maturity_date"),
		RiskLevel:    stringField(m, "risk_level"),
	}
	tr.Parsed = &f

	logger.FromContext(ctx).Debug("product search arguments standardized",
		zap.String("product_code", f.ProductCode),
		zap.String("product_name", f.ProductName),
	)
	return f, tr, nil
}

// RiskFilter extracts risk_levels and category_types from text. The active
// category names are appended to the base prompt so the model only emits
// categories the catalog actually has.
func (s *Service) RiskFilter(
	ctx context.Context, text string, categories []string,
) (domain.Filter, *domain.NormalizeTrace, error) {
	start := time.Now()
	tr := &domain.NormalizeTrace{}
	defer func() { tr.ElapsedMS = domain.MillisSince(start) }()

	base, err := s.prompts.Get(ctx, keyRiskConditions)
	if err != nil {
		tr.Error = err.Error()
		return domain.Filter{}, tr, err
	}

	cats, _ := json.Marshal(categories)
	system := base + fmt.Sprintf("\n\n### 利用可能な商品種別\n- category_types: %s から該当するもの", cats)

	raw, err := s.call(ctx, tr, system, text, conditionMaxTokens)
	if err != nil {
		return domain.Filter{}, tr, err
	}

	m, err := parseObject(raw)
	if err != nil {
		tr.Error = err.Error()
		return domain.Filter{}, tr, err
	}

	f := domain.Filter{
		RiskLevels:    intListField(m, "risk_levels"),
		CategoryTypes: stringListField(m, "category_types"),
	}
	tr.Parsed = &f
	return f, tr, nil
}

// ProductIDs extracts an integer id list from text. A model response of the
// literal token "none" maps to an empty list, not an error.
func (s *Service) ProductIDs(ctx context.Context, text string) (domain.Filter, *domain.NormalizeTrace, error) {
	start := time.Now()
	tr := &domain.NormalizeTrace{}
	defer func() { tr.ElapsedMS = domain.MillisSince(start) }()

	raw, err := s.exchange(ctx, tr, keyProductIDs, text, conditionMaxTokens)
	if err != nil {
		return domain.Filter{}, tr, err
	}

	ids, err := parseIntList(raw)
	if err != nil {
		tr.Error = err.Error()
		return domain.Filter{}, tr, err
	}

	f := domain.Filter{ProductIDs: ids}
	tr.Parsed = &f
	return f, tr, nil
}

// FuzzyCriteria distills text into loose name-search keywords (fuzzy variant,
// first pass). The raw trimmed model text is the result.
func (s *Service) FuzzyCriteria(ctx context.Context, text string) (string, *domain.NormalizeTrace, error) {
	start := time.Now()
	tr := &domain.NormalizeTrace{}
	defer func() { tr.ElapsedMS = domain.MillisSince(start) }()

	criteria, err := s.exchange(ctx, tr, keyFuzzyCriteria, text, keywordMaxTokens)
	if err != nil {
		return "", tr, err
	}
	if criteria == "" {
		err := fmt.Errorf("%w: empty search criteria", domain.ErrParse)
		tr.Error = err.Error()
		return "", tr, err
	}
	return criteria, tr, nil
}

// FuzzySelect has the model pick matching "id:name" entries out of the full
// candidate list (fuzzy variant, second pass). An empty selection is a valid
// no-match outcome.
func (s *Service) FuzzySelect(
	ctx context.Context, criteria string, candidates []string,
) ([]string, *domain.NormalizeTrace, error) {
	start := time.Now()
	tr := &domain.NormalizeTrace{}
	defer func() { tr.ElapsedMS = domain.MillisSince(start) }()

	list, _ := json.Marshal(candidates)
	user := fmt.Sprintf("検索条件: %s\n商品リスト: %s", criteria, list)

	raw, err := s.exchange(ctx, tr, keyFuzzySelect, user, fuzzySelectMaxTokens)
	if err != nil {
		return nil, tr, err
	}

	picks, err := parseStringList(raw)
	if err != nil {
		tr.Error = err.Error()
		return nil, tr, err
	}
	return picks, tr, nil
}

// exchange fetches the keyed prompt and runs one model call, recording the
// round trip in the trace.
func (s *Service) exchange(
	ctx context.Context, tr *domain.NormalizeTrace, key, user string, maxTokens int,
) (string, error) {
	system, err := s.prompts.Get(ctx, key)
	if err != nil {
		tr.Error = err.Error()
		return "", err
	}
	return s.call(ctx, tr, system, user, maxTokens)
}

// call runs one model call and records the round trip in the trace.
func (s *Service) call(
	ctx context.Context, tr *domain.NormalizeTrace, system, user string, maxTokens int,
) (string, error) {
	raw, elapsed, err := s.llm.Complete(ctx, system, user, maxTokens, defaultTemperature)
	tr.Stages = append(tr.Stages, domain.LLMExchange{
		Prompt:    fmt.Sprintf("System: %s\n\nUser: %s", system, user),
		Response:  raw,
		ElapsedMS: elapsed,
	})
	if err != nil {
		tr.Error = err.Error()
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
