package services

import (
	"context"
	"slices"
	"strings"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/pkg/serrors"
)

// FiscalPeriodResolver validates fiscal period codes against the configured
// allow-list. The list is the only source of codes; nothing is derived from
// event dates.
type FiscalPeriodResolver struct {
	options option.Source
}

func NewFiscalPeriodResolver(options option.Source) *FiscalPeriodResolver {
	return &FiscalPeriodResolver{options: options}
}

func (r *FiscalPeriodResolver) IsValid(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	return r.options.IsAllowed(ctx, option.CategoryFiscalPeriod, code)
}

// Default returns the first active code in display order.
func (r *FiscalPeriodResolver) Default(ctx context.Context) (string, error) {
	opts, err := r.options.ActiveOptions(ctx, option.CategoryFiscalPeriod)
	if err != nil {
		return "", err
	}
	opts = slices.DeleteFunc(slices.Clone(opts), func(o option.Option) bool {
		return !o.Active || strings.TrimSpace(o.Value) == ""
	})
	if len(opts) == 0 {
		return "", validationFailed(serrors.ValidationErrors{
			"fiscal_period": "no active fiscal period is configured",
		})
	}
	slices.SortStableFunc(opts, func(a, b option.Option) int {
		return a.Position - b.Position
	})
	return opts[0].Value, nil
}

// Resolve returns candidate when it is allowed and the default when it is
// blank. A non-blank code missing from the list is a validation failure.
func (r *FiscalPeriodResolver) Resolve(ctx context.Context, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return r.Default(ctx)
	}
	ok, err := r.IsValid(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", validationFailed(serrors.ValidationErrors{
			"fiscal_period": "unrecognized fiscal period code " + candidate,
		})
	}
	return candidate, nil
}
