package utils

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" $ 1,000.50 ")
	if err != nil || v != 1000.5 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := ParseAmount("  "); err == nil {
		t.Fatalf("expected error for blank amount")
	}
}

func TestEndOfDay(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	end := EndOfDay(d)
	if FormatDate(end) != "2025-03-09" || !end.After(d.Add(23*time.Hour)) {
		t.Fatalf("unexpected end of day %v", end)
	}
	if FormatDate(time.Time{}) != "" {
		t.Fatalf("zero time should render empty")
	}
}

func TestSafeFilenamePart(t *testing.T) {
	if got := SafeFilenamePart("orders: q1/2025"); got != "orders__q1_2025" {
		t.Fatalf("got %q", got)
	}
	if got := SafeFilenamePart(""); got != "NA" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	long := strings.Repeat("é", 45)
	got := SafeFilenamePart(long)
	if !utf8.ValidString(got) || utf8.RuneCountInString(got) != 40 {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("pesanan", 20); got != "pesanan" {
		t.Fatalf("short input changed: %q", got)
	}
}
