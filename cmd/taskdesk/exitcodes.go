package main

import (
	"errors"

	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/pkg/serrors"
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
	exitAPI        = 4
	exitIO         = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return exitAPI
	}
	var be *serrors.BaseError
	if errors.As(err, &be) {
		return exitValidation
	}
	var ve serrors.ValidationErrors
	if errors.As(err, &ve) {
		return exitValidation
	}
	return 1
}
