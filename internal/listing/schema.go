// Package listing implements the list-management screen pattern: a
// collection loaded from a remote source, a derived view computed from
// filter criteria, and optimistic local mutations reconciled with a writer.
package listing

import (
	"context"
	"time"
)

// Column is one exported column of a resource.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Schema describes how a resource type is identified, searched, filtered,
// sorted and exported. Every resource instantiates one.
type Schema[T any] struct {
	Resource string

	ID    func(T) string
	SetID func(*T, string)

	// Search lists the fields matched by the free-text box.
	Search []func(T) string
	// Filters are categorical fields compared by exact value.
	Filters map[string]func(T) string
	Numbers map[string]func(T) float64
	Dates   map[string]func(T) time.Time
	Sorts   map[string]func(a, b T) int

	Columns []Column[T]

	// Validate runs before a create or update leaves the process.
	Validate func(T) error
}

// Scope holds the query parameters a load is restricted by (role, id, type).
type Scope map[string]string

func (s Scope) Get(key string) string {
	if s == nil {
		return ""
	}
	return s[key]
}

// Patch is a JSON merge patch over a single item.
type Patch map[string]any

// Source reads a whole collection.
type Source[T any] interface {
	List(ctx context.Context, scope Scope) ([]T, error)
}

// Writer persists mutations. A returned item with an empty id means the
// server only acknowledged the write.
type Writer[T any] interface {
	Create(ctx context.Context, scope Scope, item T) (T, error)
	Update(ctx context.Context, scope Scope, id string, patch Patch) (T, error)
	Delete(ctx context.Context, scope Scope, id string) error
}

// Observer receives load and mutation outcomes, e.g. for metrics.
type Observer interface {
	LoadDone(resource string, took time.Duration, err error)
	MutationDone(resource, op string, err error, rolledBack bool)
}
