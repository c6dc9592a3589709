package services

import (
	"context"
	"fmt"
	"strings"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
)

// TransactionRepository is the storage surface the service needs.
type TransactionRepository interface {
	Insert(ctx context.Context, t core.Transaction) (int64, error)
	List(ctx context.Context) ([]core.Transaction, error)
	Update(ctx context.Context, id int64, columns map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// EventPublisher notifies other processes of a committed mutation.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id int64, action string) error
}

// TransactionInput is the raw, untyped field set arriving at the API
// boundary. Values are strings regardless of their JSON type; the service
// turns them into a validated core.Transaction.
type TransactionInput struct {
	Descricao     string
	Valor         string
	Tipo          string
	DataTransacao string
	Categoria     string
}

// TransactionService validates and shapes incoming records and runs CRUD
// operations against the repository. Mutations publish a fire-and-forget
// event when a publisher is configured.
type TransactionService struct {
	repo   TransactionRepository
	events EventPublisher
	logger *log.Logger
}

func NewTransactionService(repo TransactionRepository, events EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentService)
	}
	return &TransactionService{repo: repo, events: events, logger: logger}
}

// Create validates the input, stores one row, and returns the new id.
func (s *TransactionService) Create(ctx context.Context, in TransactionInput) (int64, error) {
	tx, err := s.shape(in)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Insert(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, id, amqp.ActionCreated)
	return id, nil
}

// List returns all transactions ordered by date descending.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

// updatableColumns maps API field names to their column name and a converter
// that validates the raw value. Keys outside this allow-list are rejected
// before any SQL is built.
var updatableColumns = map[string]struct {
	column  string
	convert func(string) (any, error)
}{
	"descricao": {"descricao", func(v string) (any, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, core.ErrEmptyDescription
		}
		return v, nil
	}},
	"valor": {"valor_centavos", func(v string) (any, error) {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return nil, err
		}
		return cents, nil
	}},
	"tipo": {"tipo", func(v string) (any, error) {
		kind, err := core.ParseKind(v)
		if err != nil {
			return nil, err
		}
		return string(kind), nil
	}},
	"data_transacao": {"data_transacao", func(v string) (any, error) {
		d, err := core.ParseDate(v)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	}},
	"categoria": {"categoria", func(v string) (any, error) {
		return strings.TrimSpace(v), nil
	}},
}

// Update applies the supplied fields to the transaction with the given id,
// leaving all others untouched. An empty mapping fails validation regardless
// of whether the id exists.
func (s *TransactionService) Update(ctx context.Context, id int64, fields map[string]string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", core.ErrValidation)
	}

	columns := make(map[string]any, len(fields))
	for name, raw := range fields {
		spec, ok := updatableColumns[name]
		if !ok {
			return fmt.Errorf("%w: unknown field %q", core.ErrValidation, name)
		}
		value, err := spec.convert(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		columns[spec.column] = value
	}

	if err := s.repo.Update(ctx, id, columns); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}

	s.publish(ctx, id, amqp.ActionUpdated)
	return nil
}

// Delete removes the transaction with the given id permanently.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.publish(ctx, id, amqp.ActionDeleted)
	return nil
}

// shape turns raw input into a validated transaction.
func (s *TransactionService) shape(in TransactionInput) (core.Transaction, error) {
	descricao := strings.TrimSpace(in.Descricao)
	if descricao == "" {
		return core.Transaction{}, core.ErrEmptyDescription
	}

	cents, err := core.ParseDecimalToCents(in.Valor)
	if err != nil {
		return core.Transaction{}, err
	}

	kind, err := core.ParseKind(in.Tipo)
	if err != nil {
		return core.Transaction{}, err
	}

	date, err := core.ParseDate(in.DataTransacao)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		Descricao: descricao,
		Valor:     core.Money{Cents: cents},
		Tipo:      kind,
		Data:      date,
		Categoria: strings.TrimSpace(in.Categoria),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// publish sends a mutation event. Failures are logged and never fail the
// request; the row is already committed.
func (s *TransactionService) publish(ctx context.Context, id int64, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, id, action); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldError, err,
			log.FieldTransactionID, id,
			log.FieldOperation, action)
	}
}
