package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
	"marketadmin/internal/utils"
)

// parseCriteria reads the view query:
//
//	q=<text> filter.<key>=<value> min.<key>=<n> max.<key>=<n>
//	from.<key>=YYYY-MM-DD to.<key>=YYYY-MM-DD sort=<key> order=asc|desc
//
// Unknown keys are left for the schema check.
func parseCriteria(q url.Values) (listing.Criteria, error) {
	cr := listing.Criteria{
		Search:  utils.NormalizeSpace(q.Get("q")),
		Filters: map[string]string{},
		Numbers: map[string]listing.NumberRange{},
		Dates:   map[string]listing.DateRange{},
		Sort:    strings.TrimSpace(q.Get("sort")),
	}

	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "asc":
	case "desc":
		cr.Desc = true
	default:
		return cr, domain.ValidationError{Field: "order", Msg: "must be asc or desc"}
	}

	for param, values := range q {
		prefix, key, ok := strings.Cut(param, ".")
		if !ok || key == "" || len(values) == 0 {
			continue
		}
		raw := strings.TrimSpace(values[0])
		if raw == "" {
			continue
		}
		switch prefix {
		case "filter":
			cr.Filters[key] = raw
		case "min", "max":
			n, err := utils.ParseAmount(raw)
			if err != nil {
				return cr, domain.ValidationError{Field: param, Msg: "must be a number"}
			}
			r := cr.Numbers[key]
			if prefix == "min" {
				r.Min = &n
			} else {
				r.Max = &n
			}
			cr.Numbers[key] = r
		case "from", "to":
			t, err := parseBound(raw, prefix == "to")
			if err != nil {
				return cr, domain.ValidationError{Field: param, Msg: "must be a date (YYYY-MM-DD)"}
			}
			r := cr.Dates[key]
			if prefix == "from" {
				r.From = t
			} else {
				r.To = t
			}
			cr.Dates[key] = r
		}
	}
	return cr, nil
}

// parseBound accepts a day or a full timestamp. A day used as an upper
// bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	if day, err := utils.ParseDate(raw); err == nil {
		if upper {
			return utils.EndOfDay(day), nil
		}
		return day, nil
	}
	t, err := domain.ParseTime(raw)
	return t.Time, err
}

func intParam(q url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ValidationError{Field: name, Msg: "must be a non-negative integer"}
	}
	return n, nil
}
