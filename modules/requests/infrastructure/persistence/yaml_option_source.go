package persistence

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
)

type yamlOption struct {
	Value    string `yaml:"value"`
	Label    string `yaml:"label"`
	Position int    `yaml:"position"`
	Active   *bool  `yaml:"active"`
}

// YAMLOptionSource serves allow-lists from a file keyed by category:
//
//	fiscal_period:
//	  - value: FY26
//	    label: Fiscal year 2026
//	    position: 1
//
// Options are active unless marked otherwise. The file is read once.
type YAMLOptionSource struct {
	byCategory map[string][]option.Option
}

func LoadYAMLOptionSource(path string) (*YAMLOptionSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read options file %s", path)
	}
	return ParseYAMLOptionSource(raw)
}

func ParseYAMLOptionSource(raw []byte) (*YAMLOptionSource, error) {
	var doc map[string][]yamlOption
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse options file")
	}
	src := &YAMLOptionSource{byCategory: make(map[string][]option.Option, len(doc))}
	for category, entries := range doc {
		category = strings.TrimSpace(category)
		for i, e := range entries {
			value := strings.TrimSpace(e.Value)
			if value == "" {
				return nil, errors.Errorf("options file: %s entry %d has no value", category, i)
			}
			src.byCategory[category] = append(src.byCategory[category], option.Option{
				Category: category,
				Value:    value,
				Label:    e.Label,
				Position: e.Position,
				Active:   e.Active == nil || *e.Active,
			})
		}
		slices.SortStableFunc(src.byCategory[category], func(a, b option.Option) int {
			return a.Position - b.Position
		})
	}
	return src, nil
}

func (s *YAMLOptionSource) IsAllowed(_ context.Context, category, value string) (bool, error) {
	return slices.ContainsFunc(s.byCategory[category], func(o option.Option) bool {
		return o.Active && o.Value == value
	}), nil
}

func (s *YAMLOptionSource) ActiveOptions(_ context.Context, category string) ([]option.Option, error) {
	var out []option.Option
	for _, o := range s.byCategory[category] {
		if o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

// All returns every option in the file, inactive ones included, ordered by
// category then position.
func (s *YAMLOptionSource) All() []option.Option {
	categories := make([]string, 0, len(s.byCategory))
	for c := range s.byCategory {
		categories = append(categories, c)
	}
	slices.Sort(categories)
	var out []option.Option
	for _, c := range categories {
		out = append(out, s.byCategory[c]...)
	}
	return out
}
