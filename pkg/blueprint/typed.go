package blueprint

import (
	"fmt"
	"sort"
)

// Titled is one entry of a TypedList variable.
type Titled[T any] struct {
	Title string
	Value T
}

// DecodeTypedList decodes a TypedList value into its entries. A mapping is keyed by title and
// decoded in title order. A list holds mappings that carry their title under "Title". Properties
// T has no field for are an ErrWrongType.
func DecodeTypedList[T any](value any) ([]Titled[T], error) {
	switch v := value.(type) {
	case map[string]any:
		titles := make([]string, 0, len(v))
		for title := range v {
			titles = append(titles, title)
		}
		sort.Strings(titles)
		out := make([]Titled[T], len(titles))
		for i, title := range titles {
			out[i].Title = title
			if err := DecodeStrict(v[title], &out[i].Value); err != nil {
				return nil, fmt.Errorf("%s: %w: %v", title, ErrWrongType, err)
			}
		}
		return out, nil

	case []any:
		out := make([]Titled[T], len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d: %w: expected a mapping, got %T", i, ErrWrongType, item)
			}
			title, _ := m["Title"].(string)
			if title == "" {
				return nil, fmt.Errorf("item %d: Title: %w", i, ErrMissingRequired)
			}
			props := make(map[string]any, len(m)-1)
			for k, val := range m {
				if k != "Title" {
					props[k] = val
				}
			}
			out[i].Title = title
			if err := DecodeStrict(props, &out[i].Value); err != nil {
				return nil, fmt.Errorf("%s: %w: %v", title, ErrWrongType, err)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected a mapping or list, got %T", ErrWrongType, value)
}
