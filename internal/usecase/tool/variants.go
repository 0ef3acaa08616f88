package tool

import (
	"context"
	"fmt"

	"github.com/wealthai/productmaster-mcp/internal/domain"
	"github.com/wealthai/productmaster-mcp/internal/repository/catalog"
)

// Formatting prompt keys, one per tool variant.
const (
	keyFormatDetails    = "format_product_details_pre"
	keyFormatRiskFilter = "filter_products_by_risk_and_type_format_results"
	keyFormatFuzzy      = "fuzzy_search_format_results"
)

// candidateListingSQL mirrors catalog.ProductNames for the query trace.
const candidateListingSQL = "SELECT product_id, product_name FROM products ORDER BY product_id"

// runProductDetails: two-pass normalization, then code/name lookup.
func runProductDetails(ctx context.Context, p *Pipeline, text string, tr *domain.Trace) (string, error) {
	f, nt, err := p.normalize.ProductSearch(ctx, text)
	mergeNormalize(tr, nt)
	if err != nil {
		return fmt.Sprintf("検索条件の抽出に失敗しました: %v", err), err
	}

	query, args := catalog.BuildProductSearch(f)
	rows, err := p.runQuery(ctx, tr, query, args)
	if err != nil {
		return fmt.Sprintf("商品検索エラー: %v", err), err
	}

	result, ft, err := p.format.Format(ctx, keyFormatDetails, rows, len(rows), text)
	tr.Format = ft
	return result, err
}

// runRiskFilter: active categories feed the extraction prompt, then the
// products_with_category view is filtered by risk level and category.
func runRiskFilter(ctx context.Context, p *Pipeline, text string, tr *domain.Trace) (string, error) {
	categories := p.catalog.ActiveCategories(ctx)

	f, nt, err := p.normalize.RiskFilter(ctx, text, categories)
	mergeNormalize(tr, nt)
	if err != nil {
		return fmt.Sprintf("検索条件の抽出に失敗しました: %v", err), err
	}

	query, args := catalog.BuildRiskFilter(f)
	rows, err := p.runQuery(ctx, tr, query, args)
	if err != nil {
		return fmt.Sprintf("商品検索エラー: %v", err), err
	}

	result, ft, err := p.format.Format(ctx, keyFormatRiskFilter, rows, len(rows), text)
	tr.Format = ft
	return result, err
}

// runProductIDs: id-list lookup via a single ANY-array round trip. An empty
// extracted id list short-circuits to the no-results reply without touching
// the database.
func runProductIDs(ctx context.Context, p *Pipeline, text string, tr *domain.Trace) (string, error) {
	f, nt, err := p.normalize.ProductIDs(ctx, text)
	mergeNormalize(tr, nt)
	if err != nil {
		return fmt.Sprintf("検索条件の抽出に失敗しました: %v", err), err
	}

	var rows []domain.Product
	if len(f.ProductIDs) > 0 {
		query, args := catalog.BuildProductIDs(f)
		rows, err = p.runQuery(ctx, tr, query, args)
		if err != nil {
			return fmt.Sprintf("商品検索エラー: %v", err), err
		}
	}

	result, ft, err := p.format.Format(ctx, keyFormatDetails, rows, len(rows), text)
	tr.Format = ft
	return result, err
}

// runFuzzyNameSearch: the model distills search criteria, then picks matches
// from the full "id:name" candidate listing, and a final call formats the
// picks. Ids without a match simply never appear in the picks.
func runFuzzyNameSearch(ctx context.Context, p *Pipeline, text string, tr *domain.Trace) (string, error) {
	criteria, nt, err := p.normalize.FuzzyCriteria(ctx, text)
	mergeNormalize(tr, nt)
	if err != nil {
		return fmt.Sprintf("検索条件の抽出に失敗しました: %v", err), err
	}

	qt := &domain.QueryTrace{SQL: candidateListingSQL}
	tr.Query = qt
	candidates, err := p.catalog.ProductNames(ctx)
	if err != nil {
		qt.Error = err.Error()
		return fmt.Sprintf("商品検索エラー: %v", err), err
	}
	qt.RowCount = len(candidates)

	picks, nt2, err := p.normalize.FuzzySelect(ctx, criteria, candidates)
	mergeNormalize(tr, nt2)
	if err != nil {
		return fmt.Sprintf("商品の絞り込みに失敗しました: %v", err), err
	}

	result, ft, err := p.format.Format(ctx, keyFormatFuzzy, picks, len(picks), text)
	tr.Format = ft
	return result, err
}
