// Package resources declares the marketplace list screens: their item
// types, how each is searched, filtered, sorted and exported, and where
// each is read from.
package resources

import (
	"cmp"
	"database/sql"
	"strings"
	"time"

	"marketadmin/internal/apiclient"
	"marketadmin/internal/config"
	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
	"marketadmin/internal/repositories"
	"marketadmin/internal/services"
	"marketadmin/internal/utils"
)

// Backend is where collections are read from and written to.
type Backend struct {
	Mode string
	API  *apiclient.Client
	DB   *sql.DB
}

// kind ties one item type to its schema and storage.
type kind[T any] struct {
	name   string
	title  string
	roles  []string
	typ    string
	schema listing.Schema[T]
	table  repositories.Table[T]
	// readOnly screens keep edits local until the next load.
	readOnly bool
}

func (k kind[T]) resource(b Backend, o config.ResourceOverride) services.Resource {
	roles := k.roles
	if len(o.Roles) > 0 {
		roles = make([]string, 0, len(o.Roles))
		for _, r := range o.Roles {
			roles = append(roles, domain.NormalizeRole(r))
		}
	}
	return services.Resource{
		Name:  k.name,
		Title: k.title,
		Roles: roles,
		Type:  k.typ,
		Open: func(scope listing.Scope, opts listing.Options) services.Screen {
			source, writer := k.storage(b, o)
			if k.readOnly {
				writer = nil
			}
			return services.NewScreen(k.title, listing.New(k.schema, source, writer, scope, opts))
		},
	}
}

func (k kind[T]) storage(b Backend, o config.ResourceOverride) (listing.Source[T], listing.Writer[T]) {
	if b.Mode == config.SourceMySQL {
		table := k.table
		if o.Table != "" {
			table.Name = o.Table
		}
		ts := repositories.TableSource[T]{DB: b.DB, Table: table}
		return ts, ts
	}
	res := apiclient.Resource[T]{
		Client:  b.API,
		Name:    k.name,
		Path:    o.Path,
		Key:     o.Key,
		ItemKey: o.ItemKey,
		IDParam: o.IDParam,
	}
	return res, res
}

// Catalog returns every screen not disabled by overrides.
func Catalog(b Backend, overrides map[string]config.ResourceOverride) []services.Resource {
	builders := []func(Backend, config.ResourceOverride) services.Resource{
		buyers().resource,
		sellers().resource,
		employers().resource,
		earnings().resource,
		schedules().resource,
		orders().resource,
		bookings().resource,
		reviews().resource,
		interviews().resource,
		jobs().resource,
	}
	out := make([]services.Resource, 0, len(builders))
	for _, build := range builders {
		r := build(b, config.ResourceOverride{})
		o, ok := overrides[r.Name]
		if ok && o.Disabled {
			utils.LogEvent("", "resources", "disabled", "resource="+r.Name)
			continue
		}
		if ok {
			r = build(b, o)
		}
		out = append(out, r)
	}
	return out
}

func id[T any](get func(T) domain.ID) func(T) string {
	return func(t T) string { return string(get(t)) }
}

func byText[T any](get func(T) string) func(a, b T) int {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
	}
}

func byNumber[T any, N cmp.Ordered](get func(T) N) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(get(a), get(b)) }
}

func byTime[T any](get func(T) domain.Time) func(a, b T) int {
	return func(a, b T) int { return get(a).Compare(get(b).Time) }
}

func date[T any](get func(T) domain.Time) func(T) time.Time {
	return func(t T) time.Time { return get(t).Time }
}

func money(v float64) string { return utils.FormatMoney(v) }

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.ValidationError{Field: field, Msg: "required"}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return domain.ValidationError{Field: field, Msg: "must be one of " + strings.Join(allowed, ", ")}
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return domain.ValidationError{Field: field, Msg: "must not be negative"}
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
