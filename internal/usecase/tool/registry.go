package tool

import (
	"context"

	"github.com/wealthai/productmaster-mcp/internal/domain"
)

// Variant is one tool: static metadata plus its pipeline run function.
// Variants are enumerated at startup; there is no dynamic dispatch.
type Variant struct {
	Name         string
	Description  string
	UsageContext string

	run func(ctx context.Context, p *Pipeline, text string, tr *domain.Trace) (string, error)
}

// InputSchema returns the JSON-schema metadata for tools/list. Every tool
// takes the same single required text_input argument.
func (v *Variant) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text_input": map[string]any{
				"type":        "string",
				"description": "検索条件のテキスト（商品コード、商品名、リスクレベルなど）",
			},
		},
		"required": []string{"text_input"},
	}
}

// Registry is the static lookup table of tool variants, built once at startup.
type Registry struct {
	order  []*Variant
	byName map[string]*Variant
}

// NewRegistry enumerates the tool variants.
func NewRegistry() *Registry {
	variants := []*Variant{
		{
			Name:         "get_product_details",
			Description:  "商品の詳細情報を取得します",
			UsageContext: "特定の商品について詳しく知りたい、商品コードや商品名から詳細を調べたい時に使用",
			run:          runProductDetails,
		},
		{
			Name:         "filter_products_by_risk_and_type",
			Description:  "リスクレベル・商品種別による商品フィルタリング",
			UsageContext: "リスクの高低や商品カテゴリで商品を絞り込みたい時に使用",
			run:          runRiskFilter,
		},
		{
			Name:         "get_products_by_ids",
			Description:  "商品IDリストによる商品情報の一括取得",
			UsageContext: "複数の商品IDが分かっていて、まとめて商品情報を取得したい時に使用",
			run:          runProductIDs,
		},
		{
			Name:         "search_products_by_name_fuzzy",
			Description:  "商品名による曖昧検索",
			UsageContext: "正確な商品名が分からず、キーワードや業界・地域から商品を探したい時に使用",
			run:          runFuzzyNameSearch,
		},
	}

	byName := make(map[string]*Variant, len(variants))
	for _, v := range variants {
		byName[v.Name] = v
	}
	return &Registry{order: variants, byName: byName}
}

// Lookup returns the variant registered under name.
func (r *Registry) Lookup(name string) (*Variant, bool) {
	v, ok := r.byName[name]
	return v, ok
}

// List returns all variants in registration order.
func (r *Registry) List() []*Variant {
	return r.order
}
