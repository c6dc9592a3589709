package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/storage"
)

type recordedEvent struct {
	id     int64
	action string
}

type fakePublisher struct {
	events []recordedEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, id int64, action string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{id: id, action: action})
	return nil
}

func newTestService(t *testing.T) (*TransactionService, *fakePublisher) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "gastos.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	pub := &fakePublisher{}
	return NewTransactionService(repo, pub, nil), pub
}

func validInput() TransactionInput {
	return TransactionInput{
		Descricao:     "Cinema",
		Valor:         "45.90",
		Tipo:          "SAIDA",
		DataTransacao: "2024-02-10",
		Categoria:     "Lazer",
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatal("Create returned id 0")
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d rows, want 1", len(list))
	}
	got := list[0]
	if got.ID != id || got.Descricao != "Cinema" || got.Valor.Cents != 4590 ||
		got.Tipo != core.Saida || got.Data.String() != "2024-02-10" || got.Categoria != "Lazer" {
		t.Fatalf("listed transaction = %+v, want the created record with id %d", got, id)
	}

	if len(pub.events) != 1 || pub.events[0] != (recordedEvent{id: id, action: amqp.ActionCreated}) {
		t.Fatalf("events = %+v, want single created event for id %d", pub.events, id)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*TransactionInput)
	}{
		{"missing descricao", func(in *TransactionInput) { in.Descricao = "" }},
		{"blank descricao", func(in *TransactionInput) { in.Descricao = "  " }},
		{"missing valor", func(in *TransactionInput) { in.Valor = "" }},
		{"zero valor", func(in *TransactionInput) { in.Valor = "0" }},
		{"negative valor", func(in *TransactionInput) { in.Valor = "-10" }},
		{"missing tipo", func(in *TransactionInput) { in.Tipo = "" }},
		{"unknown tipo", func(in *TransactionInput) { in.Tipo = "DEBITO" }},
		{"missing data", func(in *TransactionInput) { in.DataTransacao = "" }},
		{"malformed data", func(in *TransactionInput) { in.DataTransacao = "10/02/2024" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(ctx, in); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("Create err = %v, want ErrValidation", err)
			}
		})
	}

	if len(pub.events) != 0 {
		t.Fatalf("no events expected for failed creates, got %+v", pub.events)
	}
}

func TestCreateWithoutCategoryDefaultsEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Categoria = ""
	id, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list[0].ID != id || list[0].Categoria != "" {
		t.Fatalf("transaction = %+v, want empty categoria", list[0])
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Update(ctx, id, map[string]string{
		"valor": "100,00",
		"tipo":  "ENTRADA",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	list, _ := svc.List(ctx)
	got := list[0]
	if got.Valor.Cents != 10000 || got.Tipo != core.Entrada {
		t.Fatalf("updated transaction = %+v, want valor 10000 / tipo ENTRADA", got)
	}
	if got.Descricao != "Cinema" || got.Categoria != "Lazer" {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	last := pub.events[len(pub.events)-1]
	if last != (recordedEvent{id: id, action: amqp.ActionUpdated}) {
		t.Fatalf("last event = %+v, want updated event", last)
	}
}

func TestUpdateEmptyFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Empty mapping fails validation whether or not the id exists.
	if err := svc.Update(ctx, id, nil); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Update(existing, empty) err = %v, want ErrValidation", err)
	}
	if err := svc.Update(ctx, 9999, map[string]string{}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Update(missing, empty) err = %v, want ErrValidation", err)
	}
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Update(ctx, id, map[string]string{"saldo": "1.00"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Update with unknown field err = %v, want ErrValidation", err)
	}
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := map[string]map[string]string{
		"empty descricao": {"descricao": "  "},
		"zero valor":      {"valor": "0"},
		"bad tipo":        {"tipo": "PIX"},
		"bad data":        {"data_transacao": "soon"},
	}
	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			if err := svc.Update(ctx, id, fields); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("Update err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpdateUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Update(context.Background(), 404, map[string]string{"descricao": "x"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Update err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAndIdempotentNotFound(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}

	last := pub.events[len(pub.events)-1]
	if last != (recordedEvent{id: id, action: amqp.ActionDeleted}) {
		t.Fatalf("last event = %+v, want deleted event", last)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	id, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create with failing publisher: %v", err)
	}
	if id == 0 {
		t.Fatal("Create returned id 0")
	}
}

func TestNilPublisherIsAllowed(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "gastos.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := NewTransactionService(repo, nil, nil)
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create without publisher: %v", err)
	}
}
