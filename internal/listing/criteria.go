package listing

import (
	"fmt"
	"strings"
	"time"

	"marketadmin/internal/domain"
)

// AllValues is the dropdown value that disables a categorical filter.
const AllValues = "all"

type NumberRange struct {
	Min *float64
	Max *float64
}

func (r NumberRange) active() bool { return r.Min != nil || r.Max != nil }

func (r NumberRange) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// DateRange bounds are inclusive; a zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) active() bool { return !r.From.IsZero() || !r.To.IsZero() }

func (r DateRange) contains(v time.Time) bool {
	if v.IsZero() {
		return false
	}
	if !r.From.IsZero() && v.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && v.After(r.To) {
		return false
	}
	return true
}

// Criteria is the user-editable state of a list screen.
type Criteria struct {
	Search  string
	Filters map[string]string
	Numbers map[string]NumberRange
	Dates   map[string]DateRange
	Sort    string
	Desc    bool
}

func filterActive(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, AllValues)
}

// Check rejects criteria naming fields the schema does not know.
func (s Schema[T]) Check(c Criteria) error {
	for key := range c.Filters {
		if _, ok := s.Filters[key]; !ok {
			return domain.ValidationError{Field: "filter." + key, Msg: "unknown filter"}
		}
	}
	for key, r := range c.Numbers {
		if _, ok := s.Numbers[key]; !ok {
			return domain.ValidationError{Field: key, Msg: "unknown numeric field"}
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return domain.ValidationError{Field: key, Msg: "min is greater than max"}
		}
	}
	for key, r := range c.Dates {
		if _, ok := s.Dates[key]; !ok {
			return domain.ValidationError{Field: key, Msg: "unknown date field"}
		}
		if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
			return domain.ValidationError{Field: key, Msg: fmt.Sprintf("from %s is after to", r.From.Format("2006-01-02"))}
		}
	}
	if c.Sort != "" {
		if _, ok := s.Sorts[c.Sort]; !ok {
			return domain.ValidationError{Field: "sort", Msg: "unknown sort key " + c.Sort}
		}
	}
	return nil
}

// Match reports whether item passes every active predicate of c.
func (s Schema[T]) Match(item T, c Criteria) bool {
	return s.match(item, c, strings.ToLower(strings.TrimSpace(c.Search)))
}

func (s Schema[T]) match(item T, c Criteria, needle string) bool {
	if needle != "" {
		hit := false
		for _, field := range s.Search {
			if strings.Contains(strings.ToLower(field(item)), needle) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for key, want := range c.Filters {
		if !filterActive(want) {
			continue
		}
		get, ok := s.Filters[key]
		if !ok || !strings.EqualFold(strings.TrimSpace(get(item)), strings.TrimSpace(want)) {
			return false
		}
	}
	for key, r := range c.Numbers {
		if !r.active() {
			continue
		}
		get, ok := s.Numbers[key]
		if !ok || !r.contains(get(item)) {
			return false
		}
	}
	for key, r := range c.Dates {
		if !r.active() {
			continue
		}
		get, ok := s.Dates[key]
		if !ok || !r.contains(get(item)) {
			return false
		}
	}
	return true
}
