package core

import (
	"testing"
	"time"
)

func TestIsCurrencyCode(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"USD", true},
		{"eur", true},
		{"JpY", true},
		{"US", false},
		{"USDT", false},
		{"U$D", false},
		{"12A", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsCurrencyCode(tc.code); got != tc.ok {
			t.Errorf("IsCurrencyCode(%q) = %v, want %v", tc.code, got, tc.ok)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"expense", "Income", "TRANSFER", "balanceadjustment", "LiabilityAdjustment"} {
		if _, err := ParseTransactionType(s); err != nil {
			t.Fatalf("%q: unexpected error %v", s, err)
		}
	}
	if _, err := ParseTransactionType("Gift"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestMonthPeriod(t *testing.T) {
	p, err := MonthPeriod(2026, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) || !p.End.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period %s", p)
	}
	if !p.Contains(p.Start) || p.Contains(p.End) {
		t.Fatalf("period must be half-open")
	}
	for _, m := range []int{0, 13} {
		if _, err := MonthPeriod(2026, m); err == nil {
			t.Fatalf("month %d expected error", m)
		}
	}
}

func TestYearPeriod(t *testing.T) {
	p := YearPeriod(2026)
	if p.Start.Year() != 2026 || p.End.Year() != 2027 || p.End.YearDay() != 1 {
		t.Fatalf("unexpected period %s", p)
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	got := Day(time.Date(2026, 1, 8, 3, 0, 0, 0, loc))
	if !got.Equal(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Day did not normalize to UTC: %s", got)
	}
}
