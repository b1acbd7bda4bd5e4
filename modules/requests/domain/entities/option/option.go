package option

import "context"

// Categories the workflow validates against; deployments may configure more.
const (
	CategoryFiscalPeriod = "fiscal_period"
	CategoryBudgetType   = "budget_type"
	CategoryChannel      = "channel"
	CategoryCostCenter   = "cost_center"
)

type Option struct {
	Category string `json:"category" yaml:"-"`
	Value    string `json:"value" yaml:"value"`
	Label    string `json:"label" yaml:"label"`
	Position int    `json:"position" yaml:"position"`
	Active   bool   `json:"active" yaml:"active"`
}

// Source answers allow-list questions for categorical request fields.
type Source interface {
	IsAllowed(ctx context.Context, category, value string) (bool, error)
	// ActiveOptions returns the active options of category in display order.
	ActiveOptions(ctx context.Context, category string) ([]Option, error)
}
