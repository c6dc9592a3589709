package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/sheets/memory"
)

type fakeStore struct {
	transactions map[int64]core.Transaction
	err          error
}

func (f *fakeStore) Get(_ context.Context, id int64) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	tx, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

type failingAppender struct{ err error }

func (f failingAppender) Append(context.Context, core.Transaction) (string, error) {
	return "", f.err
}

func sampleTransaction(id int64) core.Transaction {
	return core.Transaction{
		ID:        id,
		Descricao: "Mercado",
		Valor:     core.Money{Cents: 15075},
		Tipo:      core.Saida,
		Data:      core.NewDate(2024, 3, 5),
		Categoria: "Alimentação",
	}
}

func event(id int64, action string) *amqp.TransactionEventMessage {
	return &amqp.TransactionEventMessage{ID: id, Action: action, Timestamp: time.Now()}
}

func TestHandleEventExportsCreated(t *testing.T) {
	store := &fakeStore{transactions: map[int64]core.Transaction{1: sampleTransaction(1)}}
	appender := memory.New()
	w := NewExportWorker(store, appender, nil)

	if err := w.HandleEvent(context.Background(), event(1, amqp.ActionCreated)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 1 || rows[0].ID != 1 || rows[0].Descricao != "Mercado" {
		t.Fatalf("rows = %+v, want the exported transaction", rows)
	}
}

func TestHandleEventExportsUpdated(t *testing.T) {
	store := &fakeStore{transactions: map[int64]core.Transaction{3: sampleTransaction(3)}}
	appender := memory.New()
	w := NewExportWorker(store, appender, nil)

	if err := w.HandleEvent(context.Background(), event(3, amqp.ActionUpdated)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(appender.Rows()) != 1 {
		t.Fatalf("rows = %+v, want one exported row", appender.Rows())
	}
}

func TestHandleEventSkipsDeleted(t *testing.T) {
	store := &fakeStore{}
	appender := memory.New()
	w := NewExportWorker(store, appender, nil)

	if err := w.HandleEvent(context.Background(), event(9, amqp.ActionDeleted)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Fatalf("deleted event must not append rows, got %+v", appender.Rows())
	}
}

func TestHandleEventDropsInvalidMessage(t *testing.T) {
	w := NewExportWorker(&fakeStore{}, memory.New(), nil)

	// Invalid events are acknowledged, not requeued.
	if err := w.HandleEvent(context.Background(), event(0, "renamed")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

func TestHandleEventVanishedTransaction(t *testing.T) {
	w := NewExportWorker(&fakeStore{}, memory.New(), nil)

	// Row deleted between publish and consume: acknowledge and move on.
	if err := w.HandleEvent(context.Background(), event(5, amqp.ActionCreated)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

func TestHandleEventStorageErrorRequeues(t *testing.T) {
	store := &fakeStore{err: errors.New("database locked")}
	w := NewExportWorker(store, memory.New(), nil)

	if err := w.HandleEvent(context.Background(), event(1, amqp.ActionCreated)); err == nil {
		t.Fatal("expected error for storage failure")
	}
}

func TestHandleEventAppendErrorRequeues(t *testing.T) {
	store := &fakeStore{transactions: map[int64]core.Transaction{1: sampleTransaction(1)}}
	w := NewExportWorker(store, failingAppender{err: errors.New("quota exceeded")}, nil)

	if err := w.HandleEvent(context.Background(), event(1, amqp.ActionCreated)); err == nil {
		t.Fatal("expected error for append failure")
	}
}
