// Package memory provides an in-memory TransactionAppender, used in tests and
// for running the worker without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"gastos/internal/core"
	"gastos/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ sheets.TransactionAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, t)
	return fmt.Sprintf("mem:%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Transaction, len(a.rows))
	copy(out, a.rows)
	return out
}
