package core

import (
	"math"
	"testing"
)

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in  float64
		out string
		ok  bool
	}{
		{0, "R$ 0,00", true},
		{1, "R$ 1,00", true},
		{1234.5, "R$ 1.234,50", true},
		{5000, "R$ 5.000,00", true},
		{1234567.89, "R$ 1.234.567,89", true},
		{0.01, "R$ 0,01", true},
		{12.345, "R$ 12,35", true}, // half-up rounding
		{12.344, "R$ 12,34", true},
		{-1234.5, "-R$ 1.234,50", true},
		{math.NaN(), "", false},
		{math.Inf(1), "", false},
		{math.Inf(-1), "", false},
	}
	for _, tc := range cases {
		got, err := FormatBRL(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("FormatBRL(%v) = %q (err=%v), want %q", tc.in, got, err, tc.out)
			}
		} else {
			if err == nil {
				t.Fatalf("FormatBRL(%v) expected error", tc.in)
			}
		}
	}
}

func TestFormatBRLDeterministic(t *testing.T) {
	first, err := FormatBRL(1234.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := FormatBRL(1234.5)
		if err != nil || got != first {
			t.Fatalf("call %d: got %q (err=%v), want %q", i, got, err, first)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1.000"},
		{"12345", "12.345"},
		{"1234567", "1.234.567"},
	}
	for _, tc := range cases {
		if got := groupThousands(tc.in); got != tc.out {
			t.Fatalf("groupThousands(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
