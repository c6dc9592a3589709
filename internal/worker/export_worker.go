// Package worker consumes transaction events and exports the affected rows to
// a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/sheets"
)

// TransactionGetter loads a single transaction by id.
type TransactionGetter interface {
	Get(ctx context.Context, id int64) (core.Transaction, error)
}

// ExportWorker appends created and updated transactions to a spreadsheet.
// Deleted transactions are acknowledged and skipped: a spreadsheet row has no
// stable key to remove, so the export is append-only.
type ExportWorker struct {
	store    TransactionGetter
	appender sheets.TransactionAppender
	logger   *log.Logger
}

func NewExportWorker(store TransactionGetter, appender sheets.TransactionAppender, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &ExportWorker{store: store, appender: appender, logger: logger}
}

// HandleEvent processes a single transaction event. A returned error requeues
// the message; a nil return acknowledges it.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if err := msg.Validate(); err != nil {
		// Invalid events can never succeed; drop them.
		w.logger.WarnContext(ctx, "Dropping invalid transaction event",
			log.FieldError, err,
			log.FieldTransactionID, msg.ID,
			log.FieldOperation, msg.Action)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldTransactionID, msg.ID,
		log.FieldOperation, msg.Action)

	if msg.Action == amqp.ActionDeleted {
		w.logger.DebugContext(ctx, "Skipping deleted transaction, export is append-only",
			log.FieldTransactionID, msg.ID)
		return nil
	}

	tx, err := w.store.Get(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// The row was deleted between the event and now; nothing to export.
		w.logger.WarnContext(ctx, "Transaction vanished before export",
			log.FieldTransactionID, msg.ID,
			log.FieldOperation, msg.Action)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", msg.ID, err)
	}

	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transaction %d: %w", msg.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction exported",
		log.FieldTransactionID, msg.ID,
		log.FieldOperation, msg.Action,
		"sheets_ref", ref)
	return nil
}
