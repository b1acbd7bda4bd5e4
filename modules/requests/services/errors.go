package services

import (
	"context"
	"errors"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/pkg/serrors"
)

type ErrorKind string

const (
	KindPermissionDenied   ErrorKind = "PERMISSION_DENIED"
	KindInvalidTransition  ErrorKind = "INVALID_TRANSITION"
	KindValidationFailed   ErrorKind = "VALIDATION_FAILED"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
)

var (
	ErrPermissionDenied   = serrors.NewError(string(KindPermissionDenied), "permission denied", "Requests.Errors.PermissionDenied")
	ErrInvalidTransition  = request.ErrInvalidTransition
	ErrValidationFailed   = serrors.NewError(string(KindValidationFailed), "validation failed", "Requests.Errors.ValidationFailed")
	ErrNotFound           = request.ErrRequestNotFound
	ErrPersistenceFailure = serrors.NewError(string(KindPersistenceFailure), "persistence failure", "Requests.Errors.PersistenceFailure")
)

func permissionDenied(format string, args ...any) error {
	return ErrPermissionDenied.WithMessage(format, args...)
}

func validationFailed(fields serrors.ValidationErrors) error {
	return ErrValidationFailed.WithMessage("validation failed: %s", fields.Error()).WithTemplateData(fields)
}

// classify maps any error escaping a workflow operation onto the error
// taxonomy; unknown errors are persistence failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch ErrorKind(serrors.Code(err)) {
	case KindPermissionDenied, KindInvalidTransition, KindValidationFailed, KindNotFound, KindPersistenceFailure:
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrPersistenceFailure.WithMessage("operation aborted").Wrap(err)
	}
	return ErrPersistenceFailure.Wrap(err)
}

// Result is the caller-facing outcome of a workflow operation.
type Result struct {
	Success bool                     `json:"success"`
	Kind    ErrorKind                `json:"kind,omitempty"`
	Message string                   `json:"message,omitempty"`
	Fields  serrors.ValidationErrors `json:"fields,omitempty"`
}

// ResultOf renders err as a Result; nil is success.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	err = classify(err)
	res := Result{
		Kind:    ErrorKind(serrors.Code(err)),
		Message: err.Error(),
	}
	var be *serrors.BaseError
	if errors.As(err, &be) {
		if res.Kind == KindPersistenceFailure {
			res.Message = be.Message
		}
		if res.Kind == KindValidationFailed && len(be.TemplateData) > 0 {
			res.Fields = serrors.ValidationErrors(be.TemplateData)
		}
	}
	return res
}
