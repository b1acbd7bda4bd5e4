package services

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/pkg/serrors"
)

// Amounts are stored as NUMERIC(14,2).
const amountScale = 2

var maxAmount = decimal.New(1, 12)

// DefaultRequiredCategories lists the classification categories each kind
// must carry.
var DefaultRequiredCategories = map[request.Kind][]string{
	request.KindBudget:    {option.CategoryBudgetType},
	request.KindMarketing: {option.CategoryChannel},
}

// PayloadValidator checks field constraints and allow-listed values of a
// request payload, normalizing it in place.
type PayloadValidator struct {
	validate *validator.Validate
	options  option.Source
	fiscal   *FiscalPeriodResolver
	required map[request.Kind][]string
}

func NewPayloadValidator(options option.Source, fiscal *FiscalPeriodResolver, required map[request.Kind][]string) *PayloadValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if required == nil {
		required = DefaultRequiredCategories
	}
	return &PayloadValidator{
		validate: v,
		options:  options,
		fiscal:   fiscal,
		required: required,
	}
}

func (v *PayloadValidator) Validate(ctx context.Context, p *request.Payload) error {
	p.Normalize()

	fields := make(serrors.ValidationErrors)
	if err := v.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describeFieldError(fe)
		}
	}
	switch {
	case !p.Amount.IsPositive():
		fields["amount"] = "must be greater than 0"
	case p.Amount.Exponent() < -amountScale && !p.Amount.Equal(p.Amount.Round(amountScale)):
		fields["amount"] = "must have at most 2 decimal places"
	case p.Amount.GreaterThanOrEqual(maxAmount):
		fields["amount"] = "must be less than " + maxAmount.String()
	}
	if p.EventDate.IsZero() {
		fields["event_date"] = "is required"
	}
	for _, id := range p.Participants {
		if id <= 0 {
			fields["participants"] = "must reference existing users"
			break
		}
	}

	for _, category := range v.required[p.Kind] {
		if strings.TrimSpace(p.Classifications[category]) == "" {
			fields[category] = "is required"
		}
	}
	for category, value := range p.Classifications {
		if value == "" {
			continue
		}
		ok, err := v.options.IsAllowed(ctx, category, value)
		if err != nil {
			return err
		}
		if !ok {
			fields[category] = "value " + value + " is not allowed"
		}
	}

	code, err := v.fiscal.Resolve(ctx, p.FiscalPeriod)
	if err != nil {
		var be *serrors.BaseError
		if !errors.As(err, &be) || be.Code != string(KindValidationFailed) {
			return err
		}
		for field, reason := range be.TemplateData {
			fields[field] = reason
		}
	} else {
		p.FiscalPeriod = code
	}

	if len(fields) > 0 {
		return validationFailed(fields)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
