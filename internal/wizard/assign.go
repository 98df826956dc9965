// internal/wizard/assign.go
package wizard

import "strings"

// Field is one input on a page with its visible label, if any.
type Field struct {
	Index int
	Label string
}

// Assignment pairs a value key with the field it goes into.
type Assignment struct {
	Key   string
	Field int
}

// AssignByLabel maps value keys to fields. Each key has label keywords; a key
// goes to the first unused field whose label contains one of them. Keys left
// over are assigned positionally, in order, to the fields still unused.
func AssignByLabel(fields []Field, order []string, keywords map[string][]string) []Assignment {
	used := make(map[int]bool, len(fields))
	assigned := make(map[string]int, len(order))

	for _, key := range order {
		for _, f := range fields {
			if used[f.Index] || f.Label == "" {
				continue
			}
			if labelMatches(f.Label, keywords[key]) {
				assigned[key] = f.Index
				used[f.Index] = true
				break
			}
		}
	}

	free := make([]int, 0, len(fields))
	for _, f := range fields {
		if !used[f.Index] {
			free = append(free, f.Index)
		}
	}
	for _, key := range order {
		if _, ok := assigned[key]; ok {
			continue
		}
		if len(free) == 0 {
			break
		}
		assigned[key] = free[0]
		free = free[1:]
	}

	out := make([]Assignment, 0, len(assigned))
	for _, key := range order {
		if idx, ok := assigned[key]; ok {
			out = append(out, Assignment{Key: key, Field: idx})
		}
	}
	return out
}

func labelMatches(label string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(label, k) {
			return true
		}
	}
	return false
}
