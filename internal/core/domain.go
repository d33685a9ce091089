package core

import (
	"errors"
	"strings"
	"time"
)

const (
	DebtGiven DebtDirection = "given" // money the user lent out
	DebtTaken DebtDirection = "taken" // money the user borrowed

	DebtActive DebtStatus = "active"
	DebtPaid   DebtStatus = "paid"
)

type (
	DebtDirection string

	DebtStatus string

	// Date is a calendar day, not a timestamp.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		FullName     string
		CreatedAt    time.Time
	}

	// Entry is a single income or expense record. The two share a shape;
	// which ledger it belongs to is decided by the store, not the type.
	Entry struct {
		ID          int64
		UserID      int64
		Amount      Money
		Category    string
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	Debt struct {
		ID          int64
		UserID      int64
		Direction   DebtDirection
		PersonName  string
		Amount      Money // original amount, fixed at creation
		Remaining   Money // may go negative on overpayment
		DueDate     Date  // zero means no due date
		Description string
		Status      DebtStatus
		CreatedAt   time.Time
	}

	DebtPayment struct {
		ID          int64
		DebtID      int64
		Amount      Money
		PaymentDate Date
		CreatedAt   time.Time
	}

	// PaymentResult is what record-payment hands back to the caller.
	PaymentResult struct {
		DebtID    int64
		Remaining Money
		Status    DebtStatus
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDirection = errors.New("invalid debt direction")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyPersonName  = errors.New("empty person name")

	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrDebtNotFound  = errors.New("debt not found")
	ErrForbidden     = errors.New("debt belongs to another user")
	ErrDebtNotActive = errors.New("debt is not active")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset (used for optional due dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d DebtDirection) Validate() error {
	switch d {
	case DebtGiven, DebtTaken:
		return nil
	}
	return ErrInvalidDirection
}

func (e Entry) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (d Debt) Validate() error {
	if err := d.Direction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.PersonName) == "" {
		return ErrEmptyPersonName
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if len(d.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// IsOverdue reports whether the debt is past due as of today. Overdue is a
// derived display state, never persisted: active, has a due date, due date
// strictly before today.
func (d Debt) IsOverdue(today Date) bool {
	if d.Status != DebtActive || d.DueDate.IsEmpty() {
		return false
	}
	return d.DueDate.Before(today.Time)
}
