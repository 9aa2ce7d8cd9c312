package listing

import (
	"bytes"
	"encoding/json"

	"marketadmin/internal/domain"
)

// ApplyPatch merges patch onto item by JSON field name. The "id" key is
// ignored so identity never changes; unknown keys are rejected.
func ApplyPatch[T any](item T, patch Patch) (T, error) {
	var zero T
	raw, err := json.Marshal(item)
	if err != nil {
		return zero, domain.InternalError{Msg: "cannot encode item", Err: err}
	}
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return zero, domain.InternalError{Msg: "item is not a JSON object", Err: err}
	}

	for key, val := range patch {
		if key == "id" {
			continue
		}
		if _, ok := fields[key]; !ok {
			return zero, domain.ValidationError{Field: key, Msg: "unknown field"}
		}
		fields[key] = val
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, domain.ValidationError{Msg: "patch is not serializable", Err: err}
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, domain.ValidationError{Msg: "patch has a value of the wrong type", Err: err}
	}
	return out, nil
}

// settled rebuilds patch from the merged item, so a writer stores the
// values that were validated. A null decoded to a zero value is sent as
// that zero value.
func settled[T any](item T, patch Patch) (Patch, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, domain.InternalError{Msg: "cannot encode item", Err: err}
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, domain.InternalError{Msg: "item is not a JSON object", Err: err}
	}
	out := make(Patch, len(patch))
	for k := range patch {
		out[k] = fields[k]
	}
	return out, nil
}

// withoutID returns the patch minus its identity key.
func (p Patch) withoutID() Patch {
	if _, ok := p["id"]; !ok {
		return p
	}
	out := make(Patch, len(p))
	for k, v := range p {
		if k != "id" {
			out[k] = v
		}
	}
	return out
}
