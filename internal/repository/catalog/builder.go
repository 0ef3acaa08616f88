package catalog

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/wealthai/productmaster-mcp/internal/domain"
)

// Query builders. Pure: same filter in, same SQL text and bound args out.
// Conditions are ANDed onto a WHERE 1=1 base so that an empty filter matches
// all rows, bounded only by the row cap. Placeholder count always equals the
// bound-arg count.

const (
	productSearchLimit = 50
	riskFilterLimit    = 20
)

// BuildProductSearch builds the product-details query. An exact product_code
// match takes precedence over a product_name substring match.
func BuildProductSearch(f domain.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM products WHERE 1=1")
	var args []any

	switch {
	case f.ProductCode != "":
		fmt.Fprintf(&sb, " AND product_code = $%d", len(args)+1)
		args = append(args, f.ProductCode)
	case f.ProductName != "":
		fmt.Fprintf(&sb, " AND product_name ILIKE $%d", len(args)+1)
		args = append(args, "%"+f.ProductName+"%")
	}

	fmt.Fprintf(&sb, " LIMIT %d", productSearchLimit)
	return sb.String(), args
}

// BuildRiskFilter builds the risk/category filter query against the
// products_with_category view.
func BuildRiskFilter(f domain.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT product_id, product_code, product_name, category_name, risk_level, description" +
		" FROM products_with_category WHERE 1=1")
	var args []any

	if len(f.RiskLevels) > 0 {
		sb.WriteString(" AND risk_level IN (")
		for i, lvl := range f.RiskLevels {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			args = append(args, lvl)
		}
		sb.WriteString(")")
	}

	if len(f.CategoryTypes) > 0 {
		sb.WriteString(" AND category_name IN (")
		for i, cat := range f.CategoryTypes {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			args = append(args, cat)
		}
		sb.WriteString(")")
	}

	fmt.Fprintf(&sb, " ORDER BY risk_level, product_name LIMIT %d", riskFilterLimit)
	return sb.String(), args
}

// BuildProductIDs builds the id-list query. The ANY-array form keeps a single
// placeholder and a single round trip for 1..N ids.
func BuildProductIDs(f domain.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM products_with_category WHERE 1=1")
	var args []any

	if len(f.ProductIDs) > 0 {
		fmt.Fprintf(&sb, " AND product_id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(f.ProductIDs))
	}

	fmt.Fprintf(&sb, " LIMIT %d", productSearchLimit)
	return sb.String(), args
}
