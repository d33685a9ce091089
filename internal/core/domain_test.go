package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-08-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-08-15" {
		t.Fatalf("round trip mismatch: %s", d)
	}

	for _, s := range []string{"", "yesterday", "2025-13-01", "15/08/2025"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("%q expected error", s)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{
		Amount:   Money{Cents: 100},
		Category: "food",
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Entry{
		{Amount: Money{Cents: 0}, Category: "food", Date: NewDate(2025, 1, 1)},
		{Amount: Money{Cents: 100}, Category: "  ", Date: NewDate(2025, 1, 1)},
		{Amount: Money{Cents: 100}, Category: "food", Date: Date{Time: time.Time{}}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDebtValidate(t *testing.T) {
	good := Debt{
		Direction:  DebtGiven,
		PersonName: "Aziz",
		Amount:     Money{Cents: 100_000_00},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		d    Debt
	}{
		{"bad direction", Debt{Direction: "owed", PersonName: "Aziz", Amount: Money{Cents: 100}}},
		{"empty person", Debt{Direction: DebtTaken, PersonName: " ", Amount: Money{Cents: 100}}},
		{"zero amount", Debt{Direction: DebtTaken, PersonName: "Aziz", Amount: Money{Cents: 0}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.d.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDebtIsOverdue(t *testing.T) {
	today := NewDate(2025, 8, 20)
	yesterday := NewDate(2025, 8, 19)
	tomorrow := NewDate(2025, 8, 21)

	cases := []struct {
		name string
		d    Debt
		want bool
	}{
		{"due yesterday active", Debt{Status: DebtActive, DueDate: yesterday}, true},
		{"due yesterday paid", Debt{Status: DebtPaid, DueDate: yesterday}, false},
		{"due today", Debt{Status: DebtActive, DueDate: today}, false},
		{"due tomorrow", Debt{Status: DebtActive, DueDate: tomorrow}, false},
		{"no due date", Debt{Status: DebtActive}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.IsOverdue(today); got != tc.want {
				t.Fatalf("IsOverdue = %v, want %v", got, tc.want)
			}
		})
	}
}
