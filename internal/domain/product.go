package domain

// Product is a read-only projection of one catalog row. Nullable columns are
// pointers so "no value" survives the round trip into the formatting prompt.
type Product struct {
	ID           int      `json:"product_id,omitempty"`
	ProductCode  string   `json:"product_code"`
	ProductName  string   `json:"product_name"`
	ProductType  string   `json:"product_type,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Description  string   `json:"description,omitempty"`
	MaturityDate *string  `json:"maturity_date"`
	InterestRate *float64 `json:"interest_rate"`
	RiskLevel    int      `json:"risk_level,omitempty"`
	CategoryName string   `json:"category_name,omitempty"`
}
