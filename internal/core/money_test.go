package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"-7.5", "-7.5", true},
		{"0", "0", true},
		{"1.00005", "1.0001", true}, // half away from zero
		{" 2.50 ", "2.5", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		typ    TransactionType
		amount string
		refund bool
		want   string
	}{
		{Expense, "12.5", false, "12.5"},
		{Expense, "-12.5", false, "12.5"},
		{Expense, "12.5", true, "-12.5"},
		{Expense, "-12.5", true, "-12.5"},
		{Income, "-40", false, "40"},
		{Transfer, "-3", false, "3"},
		{BalanceAdjustment, "-9.99", false, "9.99"},
		{LiabilityAdjustment, "1.23456", false, "1.2346"},
	}
	for _, tc := range cases {
		got := NormalizeAmount(tc.typ, decimal.RequireFromString(tc.amount), tc.refund)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("NormalizeAmount(%s, %s, %v) = %s, want %s", tc.typ, tc.amount, tc.refund, got, tc.want)
		}
	}
}

func TestNormalizeAmountRefundSignProperty(t *testing.T) {
	for _, s := range []string{"0.0001", "1", "-1", "250.75", "-99999.9999"} {
		in := decimal.RequireFromString(s)
		for _, refund := range []bool{true, false} {
			got := NormalizeAmount(Expense, in, refund)
			if refund != got.IsNegative() {
				t.Fatalf("amount %s refund=%v stored %s", s, refund, got)
			}
			if !got.Abs().Equal(in.Abs()) {
				t.Fatalf("amount %s lost magnitude: %s", s, got)
			}
		}
	}
}
