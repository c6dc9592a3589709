package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the direction of a transaction. The amount itself is sign-agnostic;
// direction is carried here.
type Kind string

const (
	Entrada Kind = "ENTRADA"
	Saida   Kind = "SAIDA"
)

var (
	// ErrValidation is the base error for all client-input failures.
	// Specific validation errors wrap it so callers can classify with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound reports that an operation targeted a nonexistent id.
	ErrNotFound = errors.New("transaction not found")

	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidKind      = fmt.Errorf("%w: kind must be ENTRADA or SAIDA", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
)

// ParseKind validates and normalizes a transaction kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case Entrada:
		return Entrada, nil
	case Saida:
		return Saida, nil
	default:
		return "", ErrInvalidKind
	}
}

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Transaction is one monetary event: income or expense.
type Transaction struct {
	ID        int64
	Descricao string
	Valor     Money
	Tipo      Kind
	Data      Date
	Categoria string // optional; empty is excluded from category aggregation
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Descricao)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Descricao) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	}
	if err := t.Valor.Validate(); err != nil {
		return err
	}
	if _, err := ParseKind(string(t.Tipo)); err != nil {
		return err
	}
	return t.Data.Validate()
}
