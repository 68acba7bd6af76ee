package models

// Plan is one entry of the plan catalog (see internal/plans/plans.yaml).
type Plan struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	PriceUSD    float64  `json:"price" yaml:"price_usd"`
	Credits     int      `json:"credits" yaml:"credits"`
	CharLimit   int      `json:"charLimit" yaml:"char_limit"` // 0 means unrestricted
	Features    []string `json:"features" yaml:"features"`
	IsFree      bool     `json:"isFree" yaml:"is_free"`
}
