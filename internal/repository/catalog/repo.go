// Package catalog is the read-only gateway to the product catalog database.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wealthai/productmaster-mcp/internal/domain"
	"github.com/wealthai/productmaster-mcp/internal/logger"
)

// fallbackCategories is returned when product_categories cannot be read, so
// the condition-extraction prompt still has a usable category vocabulary.
var fallbackCategories = []string{"債券", "投資信託", "株式", "その他"}

// Repo runs parameterized read queries against the catalog. One statement per
// call; the injected *sql.DB owns connection lifecycle. Rows are never
// mutated, only scanned and projected.
type Repo struct {
	db *sql.DB
}

// New creates a catalog repository around an open database handle.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// WaitForReady pings the database until it responds or the timeout elapses.
func (r *Repo) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := r.db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Ping checks database liveness.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	return nil
}

// Search executes one parameterized query and returns all rows in database
// order. Query and scan failures wrap domain.ErrDatabase and propagate; only
// the pipeline converts them into user-facing text.
func (r *Repo) Search(ctx context.Context, query string, args []any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatabase, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: read columns: %w", domain.ErrDatabase, err)
	}

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", domain.ErrDatabase, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatabase, err)
	}

	return products, nil
}

// ActiveCategories returns the active category names in display order.
// Falls back to the fixed category list on any failure so condition
// extraction keeps working while the categories table is unavailable.
func (r *Repo) ActiveCategories(ctx context.Context) []string {
	const query = "SELECT category_name FROM product_categories" +
		" WHERE is_active = true ORDER BY display_order, category_name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Warn("category lookup failed, using fallback", zap.Error(err))
		return fallbackCategories
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			logger.FromContext(ctx).Warn("category scan failed, using fallback", zap.Error(err))
			return fallbackCategories
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil || len(categories) == 0 {
		return fallbackCategories
	}

	return categories
}

// ProductNames returns every product as an "id:name" string, the candidate
// format the fuzzy-match prompt expects.
func (r *Repo) ProductNames(ctx context.Context) ([]string, error) {
	const query = "SELECT product_id, product_name FROM products ORDER BY product_id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatabase, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", domain.ErrDatabase, err)
		}
		names = append(names, fmt.Sprintf("%d:%s", id, name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatabase, err)
	}

	return names, nil
}

// scanProduct maps one row onto a Product by column name, so SELECT * and
// projected queries share one scan path regardless of column order.
func scanProduct(rows *sql.Rows, cols []string) (domain.Product, error) {
	dest := make([]any, len(cols))
	var (
		id                                          sql.NullInt64
		code, name, ptype, currency, desc, category sql.NullString
		risk                                        sql.NullInt64
		maturity                                    sql.NullTime
		rate                                        sql.NullFloat64
		skip                                        any
	)

	for i, col := range cols {
		switch col {
		case "product_id", "id":
			dest[i] = &id
		case "product_code":
			dest[i] = &code
		case "product_name":
			dest[i] = &name
		case "product_type":
			dest[i] = &ptype
		case "currency":
			dest[i] = &currency
		case "description":
			dest[i] = &desc
		case "maturity_date":
			dest[i] = &maturity
		case "interest_rate":
			dest[i] = &rate
		case "risk_level":
			dest[i] = &risk
		case "category_name":
			dest[i] = &category
		default:
			dest[i] = &skip
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:           int(id.Int64),
		ProductCode:  code.String,
		ProductName:  name.String,
		ProductType:  ptype.String,
		Currency:     currency.String,
		Description:  desc.String,
		RiskLevel:    int(risk.Int64),
		CategoryName: category.String,
	}
	if maturity.Valid {
		s := maturity.Time.Format("2006-01-02")
		p.MaturityDate = &s
	}
	if rate.Valid {
		v := rate.Float64
		p.InterestRate = &v
	}

	return p, nil
}
