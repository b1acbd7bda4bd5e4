package main

import (
	"errors"

	"github.com/iota-uz/approvals/modules/requests/services"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitDenied     = 5
	exitTransition = 6
	exitNotFound   = 7
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// codeFor maps a workflow error kind to the process exit code.
func codeFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidationFailed:
		return exitValidation
	case services.KindPermissionDenied:
		return exitDenied
	case services.KindInvalidTransition:
		return exitTransition
	case services.KindNotFound:
		return exitNotFound
	default:
		return exitDB
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
