package normalize

import (
	"testing"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		name     string
		raw      any
		fallback float64
		want     float64
	}{
		{"float", 3.5, 0, 3.5},
		{"int", 7, 0, 7},
		{"string", "42", 0, 42},
		{"string with space", " 42 ", 0, 42},
		{"bad string", "abc", 9, 9},
		{"empty string", "", 9, 9},
		{"nil", nil, 9, 9},
		{"bool true", true, 0, 1},
		{"bool false", false, 5, 0},
	}
	for _, tc := range cases {
		if got := Number(tc.raw, tc.fallback); got != tc.want {
			t.Errorf("%s: Number(%v, %v) = %v, want %v", tc.name, tc.raw, tc.fallback, got, tc.want)
		}
	}
}

func TestText(t *testing.T) {
	if got := Text(nil); got != "" {
		t.Errorf("Text(nil) = %q, want empty", got)
	}
	if got := Text("  hello  "); got != "hello" {
		t.Errorf("trim failed: %q", got)
	}
	if got := Text(float64(5)); got != "5" {
		t.Errorf("Text(5) = %q, want 5", got)
	}
}

func TestFlag(t *testing.T) {
	cases := []struct {
		raw  any
		want bool
	}{
		{true, true},
		{false, false},
		{"TRUE", true},
		{"False", false},
		{float64(2), true},
		{float64(0), false},
		{float64(-1), false},
		{"1", true},
		{nil, false},
	}
	for _, tc := range cases {
		if got := Flag(tc.raw); got != tc.want {
			t.Errorf("Flag(%v) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		raw  any
		want int
	}{
		{float64(0), 0},
		{float64(1), 1},
		{float64(3), 1},
		{"0", 0},
		{"abc", 1},
		{nil, 1},
		{true, 1},
		{false, 0},
	}
	for _, tc := range cases {
		if got := Status(tc.raw); got != tc.want {
			t.Errorf("Status(%v) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	if got := Timestamp(""); got != 0 {
		t.Errorf("empty timestamp = %d, want 0", got)
	}
	if got := Timestamp("not-a-date"); got != 0 {
		t.Errorf("garbage timestamp = %d, want 0", got)
	}

	a := Timestamp("2024-05-01 10:00:00")
	b := Timestamp("2024-05-01 10:00:01")
	if a <= 0 || b <= 0 {
		t.Fatalf("expected positive epochs, got %d / %d", a, b)
	}
	if b-a != 1000 {
		t.Errorf("one second gap = %d ms, want 1000", b-a)
	}

	// 空格与 T 分隔的同一时刻应相等
	if Timestamp("2024-05-01 10:00:00") != Timestamp("2024-05-01T10:00:00") {
		t.Errorf("space and T separated forms should parse identically")
	}
}

func TestUnwrapList(t *testing.T) {
	bare := []any{map[string]any{"id": float64(1)}}
	if got := unwrapList(bare); len(got) != 1 {
		t.Errorf("bare array: got %d rows", len(got))
	}

	// list 优先于 records / rows
	wrapped := map[string]any{
		"list":    []any{map[string]any{"id": float64(1)}},
		"records": []any{map[string]any{"id": float64(2)}, map[string]any{"id": float64(3)}},
	}
	got := unwrapList(wrapped)
	if len(got) != 1 {
		t.Fatalf("wrapped: got %d rows, want 1 (list wins)", len(got))
	}

	if got := unwrapList("scalar"); got != nil {
		t.Errorf("scalar should yield empty list")
	}
	if got := unwrapList(nil); got != nil {
		t.Errorf("nil should yield empty list")
	}
}
