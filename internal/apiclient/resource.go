package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
)

// Resource reads and writes one collection under /api/<Path>. It
// implements listing.Source and listing.Writer.
type Resource[T any] struct {
	Client *Client
	Name   string
	Path   string
	// Key is the envelope field holding the list; ItemKey the single item.
	Key     string
	ItemKey string
	IDParam string
}

func (r Resource[T]) path() string {
	p := strings.Trim(r.Path, "/")
	if p == "" {
		p = r.Name
	}
	return "api/" + p
}

func (r Resource[T]) listKey() string {
	if r.Key != "" {
		return r.Key
	}
	return r.Name
}

func (r Resource[T]) itemKey() string {
	if r.ItemKey != "" {
		return r.ItemKey
	}
	return strings.TrimSuffix(r.listKey(), "s")
}

func scopeQuery(scope listing.Scope) url.Values {
	q := url.Values{}
	for k, v := range scope {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	return q
}

// List issues GET /api/<path>?<scope>.
func (r Resource[T]) List(ctx context.Context, scope listing.Scope) ([]T, error) {
	env, err := r.Client.Call(ctx, "load", r.Name, http.MethodGet, r.path(), scopeQuery(scope), nil)
	if err != nil {
		return nil, err
	}
	raw, ok := env.Field(r.listKey(), "data", "items")
	if !ok {
		if env.Has(r.listKey(), "data", "items") {
			return []T{}, nil
		}
		return nil, domain.TransportError{Op: "load", Resource: r.Name, Err: fmt.Errorf("response has no %s", r.listKey())}
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.TransportError{Op: "load", Resource: r.Name, Err: fmt.Errorf("decode %s: %w", r.listKey(), err)}
	}
	return out, nil
}

// Create issues POST /api/<path>. A response without an item yields the
// zero value, which the collection treats as a bare acknowledgement.
func (r Resource[T]) Create(ctx context.Context, scope listing.Scope, item T) (T, error) {
	env, err := r.Client.Call(ctx, "create", r.Name, http.MethodPost, r.path(), scopeQuery(scope), item)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.decodeItem(env, "create")
}

// Update issues PUT /api/<path>/<id> with the merge patch as body.
func (r Resource[T]) Update(ctx context.Context, scope listing.Scope, id string, patch listing.Patch) (T, error) {
	path := r.path() + "/" + url.PathEscape(id)
	env, err := r.Client.Call(ctx, "update", r.Name, http.MethodPut, path, scopeQuery(scope), patch)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.decodeItem(env, "update")
}

// Delete issues DELETE /api/<path>?<idParam>=<id>. Only the role of the
// scope travels along since "id" names the item here.
func (r Resource[T]) Delete(ctx context.Context, scope listing.Scope, id string) error {
	q := url.Values{}
	if role := scope.Get("role"); role != "" {
		q.Set("role", role)
	}
	param := r.IDParam
	if param == "" {
		param = "id"
	}
	q.Set(param, id)
	_, err := r.Client.Call(ctx, "delete", r.Name, http.MethodDelete, r.path(), q, nil)
	return err
}

func (r Resource[T]) decodeItem(env Envelope, op string) (T, error) {
	var out T
	raw, ok := env.Field(r.itemKey(), "data", "item")
	if !ok || !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, domain.TransportError{Op: op, Resource: r.Name, Err: fmt.Errorf("decode %s: %w", r.itemKey(), err)}
	}
	return out, nil
}
