package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses `field,-field` into orderings.
func ParseOrdering(val string) []DBOrdering {
	if val == "" {
		return nil
	}
	var orderings []DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// CleanOrdering keeps the orderings whose field is in `allowed` (public name -> column),
// rewriting fields to their column names. `def` is returned when nothing is left.
func CleanOrdering(ordering []DBOrdering, allowed map[string]string, def ...DBOrdering) []DBOrdering {
	cleaned := make([]DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := allowed[ord.Field]; ok {
			cleaned = append(cleaned, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
