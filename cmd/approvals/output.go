package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iota-uz/approvals/modules/requests/services"
)

func writeJSONLine(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitDB, fmt.Errorf("json encode: %w", err))
	}
	return nil
}

type okOutput struct {
	services.Result
	Data any `json:"data,omitempty"`
}

// report prints the outcome of a workflow call as one JSON line and turns a
// failure into the matching exit code.
func report(data any, err error) error {
	res := services.ResultOf(err)
	if err != nil {
		if werr := writeJSONLine(res); werr != nil {
			return werr
		}
		return withCode(codeFor(res.Kind), err)
	}
	return writeJSONLine(okOutput{Result: res, Data: data})
}
