package services

import (
	"slices"
	"strings"

	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
)

// changedFields lists the top-level JSON fields that differ between two
// payloads, sorted. Nested paths such as /classifications/channel collapse
// to their first segment.
func changedFields(before, after request.Payload) ([]string, error) {
	patch, err := jsondiff.Compare(before, after)
	if err != nil {
		return nil, err
	}
	var fields []string
	for _, op := range patch {
		field, _, _ := strings.Cut(strings.TrimPrefix(op.Path, "/"), "/")
		if field != "" && !slices.Contains(fields, field) {
			fields = append(fields, field)
		}
	}
	slices.Sort(fields)
	return fields, nil
}
