package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table maps a resource onto a MySQL table.
type Table[T any] struct {
	Name string
	// Select lists the select expressions in Scan order, id first.
	Select []string
	// Insert lists writable columns in Values order.
	Insert []string
	Scan   func(Scanner) (T, error)
	Values func(T) []any
	// Fields maps JSON field names accepted in patches to columns.
	Fields map[string]string
	// Times lists the patch fields holding timestamps.
	Times []string
	// Owners maps a role to the column holding the caller's id. Admins
	// are never restricted; other roles need an entry.
	Owners map[string]string
	// Order is the ORDER BY clause; defaults to "id DESC".
	Order string
}

// TableSource implements listing.Source and listing.Writer on a table.
type TableSource[T any] struct {
	DB    *sql.DB
	Table Table[T]
}

// owner returns the restriction for scope: column and value, or empty
// when the caller sees everything.
func (s TableSource[T]) owner(scope listing.Scope) (string, string, error) {
	role := domain.NormalizeRole(scope.Get("role"))
	if role == domain.RoleAdmin {
		return "", "", nil
	}
	col, ok := s.Table.Owners[role]
	if !ok {
		return "", "", domain.ForbiddenError{Role: role, Resource: s.Table.Name}
	}
	id := strings.TrimSpace(scope.Get("id"))
	if id == "" {
		return "", "", domain.ValidationError{Field: "id", Msg: "scope has no owner id"}
	}
	return col, id, nil
}

func (s TableSource[T]) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(s.Table.Select, ", "), s.Table.Name)
}

// List returns the scoped rows. A missing table reads as an empty list.
func (s TableSource[T]) List(ctx context.Context, scope listing.Scope) ([]T, error) {
	col, id, err := s.owner(scope)
	if err != nil {
		return nil, err
	}
	if !HasTable(ctx, s.DB, s.Table.Name) {
		return []T{}, nil
	}

	query := s.selectSQL()
	args := []any{}
	if col != "" {
		query += " WHERE " + col + " = ?"
		args = append(args, id)
	}
	order := s.Table.Order
	if order == "" {
		order = "id DESC"
	}
	query += " ORDER BY " + order

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.TransportError{Op: "load", Resource: s.Table.Name, Err: err}
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := s.Table.Scan(rows)
		if err != nil {
			return nil, domain.InternalError{Msg: "failed to read " + s.Table.Name, Err: err}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.TransportError{Op: "load", Resource: s.Table.Name, Err: err}
	}
	return out, nil
}

// get reads one row, restricted to col = owner when col is set.
func (s TableSource[T]) get(ctx context.Context, id, col, owner string) (T, error) {
	query := s.selectSQL() + " WHERE id = ?"
	args := []any{id}
	if col != "" {
		query += " AND " + col + " = ?"
		args = append(args, owner)
	}
	item, err := s.Table.Scan(s.DB.QueryRowContext(ctx, query+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return item, domain.NotFoundError{Resource: s.Table.Name, ID: id, Err: err}
	}
	if err != nil {
		return item, domain.InternalError{Msg: "failed to read " + s.Table.Name, Err: err}
	}
	return item, nil
}

// Create inserts item and returns the stored row.
func (s TableSource[T]) Create(ctx context.Context, scope listing.Scope, item T) (T, error) {
	var zero T
	col, owner, err := s.owner(scope)
	if err != nil {
		return zero, err
	}
	args := s.Table.Values(item)
	// rows created by a scoped caller always belong to that caller
	if i := slices.Index(s.Table.Insert, col); col != "" && i >= 0 {
		args[i] = owner
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(s.Table.Insert)), ",")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.Table.Name, strings.Join(s.Table.Insert, ", "), marks)

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return zero, s.writeError("create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return zero, domain.InternalError{Msg: "no id for new " + s.Table.Name, Err: err}
	}
	return s.get(ctx, strconv.FormatInt(id, 10), "", "")
}

// Update writes the patched columns and returns the stored row.
func (s TableSource[T]) Update(ctx context.Context, scope listing.Scope, id string, patch listing.Patch) (T, error) {
	var zero T
	col, owner, err := s.owner(scope)
	if err != nil {
		return zero, err
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		if k != "id" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return zero, domain.ValidationError{Msg: "nothing to update"}
	}
	// stable statement text for the same patch shape
	slices.Sort(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		column, ok := s.Table.Fields[k]
		if !ok {
			return zero, domain.ValidationError{Field: k, Msg: "field is not writable"}
		}
		val := sqlValue(patch[k])
		if slices.Contains(s.Table.Times, k) {
			if val, err = timeValue(k, patch[k]); err != nil {
				return zero, err
			}
		}
		sets = append(sets, column+" = ?")
		args = append(args, val)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.Table.Name, strings.Join(sets, ", "))
	args = append(args, id)
	if col != "" {
		query += " AND " + col + " = ?"
		args = append(args, owner)
	}

	// RowsAffected is 0 for a no-change update too, so existence is
	// decided by reading the row back.
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return zero, s.writeError("update", err)
	}
	return s.get(ctx, id, col, owner)
}

func (s TableSource[T]) Delete(ctx context.Context, scope listing.Scope, id string) error {
	col, owner, err := s.owner(scope)
	if err != nil {
		return err
	}
	query := "DELETE FROM " + s.Table.Name + " WHERE id = ?"
	args := []any{id}
	if col != "" {
		query += " AND " + col + " = ?"
		args = append(args, owner)
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return s.writeError("delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: s.Table.Name, ID: id}
	}
	return nil
}

func (s TableSource[T]) writeError(op string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062:
			return domain.ConflictError{Resource: s.Table.Name, Msg: "duplicate entry", Err: err}
		case 1452:
			return domain.ValidationError{Msg: "referenced record does not exist", Err: err}
		}
	}
	return domain.TransportError{Op: op, Resource: s.Table.Name, Err: err}
}

// sqlValue turns decoded JSON values into driver arguments.
func sqlValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, int64, int:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func timeValue(field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(string)
	if !ok {
		return nil, domain.ValidationError{Field: field, Msg: "must be a date string"}
	}
	t, err := domain.ParseTime(raw)
	if err != nil {
		return nil, domain.ValidationError{Field: field, Msg: "invalid date", Err: err}
	}
	return t.Value()
}
