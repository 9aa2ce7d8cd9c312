package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"marketadmin/internal/domain"
	"marketadmin/internal/export"
	"marketadmin/internal/listing"
)

// Screen is one open list screen with its item type erased so the
// registry and handlers can hold screens of every resource side by side.
type Screen interface {
	Resource() string
	Load(ctx context.Context) error
	Meta() ScreenMeta
	Query(cr listing.Criteria, page, pageSize int) (View, error)
	Create(ctx context.Context, raw json.RawMessage) (any, error)
	Update(ctx context.Context, id string, patch listing.Patch) (item any, found bool, err error)
	Delete(ctx context.Context, id string) (found bool, err error)
	Export(w io.Writer, format string, cr listing.Criteria) error
	Close()
}

// ScreenMeta describes what a screen can be filtered and sorted by,
// together with its loading state.
type ScreenMeta struct {
	Resource string              `json:"resource"`
	Title    string              `json:"title"`
	Status   listing.Status      `json:"status"`
	Error    string              `json:"error,omitempty"`
	LoadedAt string              `json:"loadedAt,omitempty"`
	Count    int                 `json:"count"`
	Pending  int                 `json:"pending"`
	Search   bool                `json:"search"`
	Filters  map[string][]string `json:"filters"`
	Numbers  []string            `json:"numbers"`
	Dates    []string            `json:"dates"`
	Sorts    []string            `json:"sorts"`
	Columns  []string            `json:"columns"`
}

// Row is one visible item with its persistence state.
type Row struct {
	State listing.EntryState `json:"state"`
	Item  any                `json:"item"`
}

type View struct {
	Rows       []Row             `json:"rows"`
	Pagination domain.Pagination `json:"pagination"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Paginate clamps page and pageSize and returns the slice bounds for total rows.
// A pageSize of zero or less means the default.
func Paginate(total, page, pageSize int) (domain.Pagination, int, int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)
	pages := (total + pageSize - 1) / pageSize
	page = max(page, 1)
	if pages > 0 {
		page = min(page, pages)
	}
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return domain.Pagination{Page: page, PageSize: pageSize, Total: total, Pages: pages}, start, end
}

type typedScreen[T any] struct {
	title string
	coll  *listing.Collection[T]
}

// NewScreen wraps a typed collection.
func NewScreen[T any](title string, coll *listing.Collection[T]) Screen {
	return &typedScreen[T]{title: title, coll: coll}
}

func (s *typedScreen[T]) Resource() string { return s.coll.Schema().Resource }

func (s *typedScreen[T]) Load(ctx context.Context) error { return s.coll.Load(ctx) }

func (s *typedScreen[T]) Close() { s.coll.Close() }

func (s *typedScreen[T]) Meta() ScreenMeta {
	schema := s.coll.Schema()
	snap := s.coll.Snapshot()

	pending := 0
	for _, e := range snap.Entries {
		if e.State == listing.StatePending {
			pending++
		}
	}

	filters := make(map[string][]string, len(schema.Filters))
	for key, get := range schema.Filters {
		seen := map[string]struct{}{}
		values := []string{}
		for _, e := range snap.Entries {
			v := strings.TrimSpace(get(e.Item))
			if _, dup := seen[strings.ToLower(v)]; dup || v == "" {
				continue
			}
			seen[strings.ToLower(v)] = struct{}{}
			values = append(values, v)
		}
		slices.Sort(values)
		filters[key] = values
	}

	columns := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		columns[i] = c.Header
	}

	meta := ScreenMeta{
		Resource: schema.Resource,
		Title:    s.title,
		Status:   snap.Status,
		Error:    snap.Error,
		Count:    len(snap.Entries),
		Pending:  pending,
		Search:   len(schema.Search) > 0,
		Filters:  filters,
		Numbers:  slices.Sorted(maps.Keys(schema.Numbers)),
		Dates:    slices.Sorted(maps.Keys(schema.Dates)),
		Sorts:    slices.Sorted(maps.Keys(schema.Sorts)),
		Columns:  columns,
	}
	if !snap.LoadedAt.IsZero() {
		meta.LoadedAt = snap.LoadedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

func (s *typedScreen[T]) Query(cr listing.Criteria, page, pageSize int) (View, error) {
	entries, err := s.coll.View(cr)
	if err != nil {
		return View{}, err
	}
	pg, start, end := Paginate(len(entries), page, pageSize)
	rows := make([]Row, 0, end-start)
	for _, e := range entries[start:end] {
		rows = append(rows, Row{State: e.State, Item: e.Item})
	}
	return View{Rows: rows, Pagination: pg}, nil
}

func (s *typedScreen[T]) Create(ctx context.Context, raw json.RawMessage) (any, error) {
	var item T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&item); err != nil {
		return nil, domain.ValidationError{Msg: "payload is not a valid " + s.Resource() + " item", Err: err}
	}
	return s.coll.Create(ctx, item)
}

func (s *typedScreen[T]) Update(ctx context.Context, id string, patch listing.Patch) (any, bool, error) {
	item, found, err := s.coll.Update(ctx, id, patch)
	if err != nil || !found {
		return nil, found, err
	}
	return item, true, nil
}

func (s *typedScreen[T]) Delete(ctx context.Context, id string) (bool, error) {
	return s.coll.Delete(ctx, id)
}

// Export writes every visible row, ignoring pagination.
func (s *typedScreen[T]) Export(w io.Writer, format string, cr listing.Criteria) error {
	if !export.Supported(format) {
		return domain.ValidationError{Field: "format", Msg: "unsupported export format " + format}
	}
	entries, err := s.coll.View(cr)
	if err != nil {
		return err
	}
	rows := make([]T, len(entries))
	for i, e := range entries {
		rows[i] = e.Item
	}
	return export.Write(w, format, s.title, s.coll.Schema().Columns, rows)
}
