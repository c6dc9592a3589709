package sheets

import (
	"context"

	"gastos/internal/core"
)

// TransactionAppender is the outbound port for spreadsheet export.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
