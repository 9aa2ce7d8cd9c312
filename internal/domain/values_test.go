package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var got struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":42,"b":" x-7 ","c":null}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.A != "42" || got.B != "x-7" || got.C != "" {
		t.Fatalf("unexpected ids %+v", got)
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &got); err == nil {
		t.Fatalf("expected error for boolean id")
	}
}

func TestIDScan(t *testing.T) {
	var id ID
	if err := id.Scan(int64(9)); err != nil || id != "9" {
		t.Fatalf("scan int64: %v %q", err, id)
	}
	if err := id.Scan([]byte("abc")); err != nil || id != "abc" {
		t.Fatalf("scan bytes: %v %q", err, id)
	}
	if err := id.Scan(1.5); err == nil {
		t.Fatalf("expected error for float")
	}
}

func TestTimeFormats(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-05", "2024-03-05 00:00:00", "2024-03-05T00:00:00Z"} {
		got, err := ParseTime(in)
		if err != nil || !got.Equal(want) {
			t.Fatalf("ParseTime(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTime("05/03/2024"); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestTimeJSON(t *testing.T) {
	var v struct {
		At Time `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":"2024-03-05"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"at":"2024-03-05T00:00:00Z"}` {
		t.Fatalf("unexpected json %s", out)
	}
	v.At = Time{}
	out, _ = json.Marshal(v)
	if string(out) != `{"at":null}` {
		t.Fatalf("zero time should be null, got %s", out)
	}
}

func TestTimeValueAndScan(t *testing.T) {
	var zero Time
	if v, err := zero.Value(); err != nil || v != nil {
		t.Fatalf("zero time should be NULL, got %v %v", v, err)
	}
	var tm Time
	if err := tm.Scan(nil); err != nil || !tm.IsZero() {
		t.Fatalf("scan nil: %v", err)
	}
	if err := tm.Scan([]byte("2024-01-02 10:00:00")); err != nil || tm.Hour() != 10 {
		t.Fatalf("scan bytes: %v %v", err, tm)
	}
}
