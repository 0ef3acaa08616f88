package domain

// Filter is the structured search filter produced by normalization.
// Absent fields mean "no constraint", never "exclude all": an empty Filter
// still matches rows, bounded only by the query row cap.
//
// This is the canonical superset of the historical per-tool field sets; each
// tool variant populates only the fields its extraction prompt produces.
type Filter struct {
	ProductCode   string   `json:"product_code,omitempty"`
	ProductName   string   `json:"product_name,omitempty"`
	MaturityDate  string   `json:"maturity_date,omitempty"`
	RiskLevel     string   `json:"risk_level,omitempty"`
	RiskLevels    []int    `json:"risk_levels,omitempty"`
	CategoryTypes []string `json:"category_types,omitempty"`
	ProductIDs    []int    `json:"product_ids,omitempty"`
}

// IsEmpty reports whether no constraint is set.
func (f Filter) IsEmpty() bool {
	return f.ProductCode == "" && f.ProductName == "" && f.MaturityDate == "" &&
		f.RiskLevel == "" && len(f.RiskLevels) == 0 &&
		len(f.CategoryTypes) == 0 && len(f.ProductIDs) == 0
}
