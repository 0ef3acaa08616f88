package tool

import (
	"context"

	"github.com/wealthai/productmaster-mcp/internal/domain"
)

// Normalizer turns free text into structured filters, one method per
// extraction variant. Every method returns its trace fragment even on error.
type Normalizer interface {
	ProductSearch(ctx context.Context, text string) (domain.Filter, *domain.NormalizeTrace, error)
	RiskFilter(ctx context.Context, text string, categories []string) (domain.Filter, *domain.NormalizeTrace, error)
	ProductIDs(ctx context.Context, text string) (domain.Filter, *domain.NormalizeTrace, error)
	FuzzyCriteria(ctx context.Context, text string) (string, *domain.NormalizeTrace, error)
	FuzzySelect(ctx context.Context, criteria string, candidates []string) ([]string, *domain.NormalizeTrace, error)
}

// Catalog executes read queries against the product database.
type Catalog interface {
	Search(ctx context.Context, query string, args []any) ([]domain.Product, error)
	ActiveCategories(ctx context.Context) []string
	ProductNames(ctx context.Context) ([]string, error)
}

// Formatter renders a result payload into human-readable text.
type Formatter interface {
	Format(ctx context.Context, key string, payload any, count int, question string) (string, *domain.FormatTrace, error)
}
