package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gastos/internal/core"
	"gastos/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository issues parameterized SQL against the transacoes table.
// It owns no business logic; validation happens before values reach it.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteRepository opens the database at dbPath and applies the embedded
// schema. An unreachable database at startup is logged, not fatal: the pool
// opens lazily and each request surfaces its own storage error.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentStorage)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		logger.Warn("Database unreachable at startup, continuing anyway", "error", err, "path", dbPath)
	} else if err := RunMigrations(dbPath); err != nil {
		logger.Warn("Schema migration failed at startup", "error", err, "path", dbPath)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert stores one transaction and returns the database-assigned id.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transacoes (descricao, valor_centavos, tipo, data_transacao, categoria)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Descricao, t.Valor.Cents, string(t.Tipo), t.Data.String(), t.Categoria)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		log.FieldTransactionID, id,
		log.FieldDescription, t.Descricao,
		log.FieldAmountCents, t.Valor.Cents,
		log.FieldKind, string(t.Tipo))

	return id, nil
}

// List returns every transaction, most recent date first. Ties in date are
// broken by id descending so the order is stable.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, descricao, valor_centavos, tipo, data_transacao, categoria
		 FROM transacoes
		 ORDER BY data_transacao DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// Get returns the transaction with the given id, or core.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, descricao, valor_centavos, tipo, data_transacao, categoria
		 FROM transacoes WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

// Update builds an UPDATE statement touching exactly the supplied columns.
// Column names must come from the service-layer allow-list; they are never
// taken from client input directly. Columns are applied in sorted order so
// the generated SQL is deterministic.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, columns map[string]any) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns to update", core.ErrValidation)
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		assignments[i] = name + " = ?"
		args = append(args, columns[name])
	}
	args = append(args, id)

	query := "UPDATE transacoes SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Transaction updated",
		log.FieldTransactionID, id,
		"columns", strings.Join(names, ","))
	return nil
}

// Delete removes the row matching id, or returns core.ErrNotFound.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transacoes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)
	return nil
}

// Summary sums amounts grouped by kind. Both accumulators start at zero so a
// kind with no rows reports 0 rather than going missing.
func (r *SQLiteRepository) Summary(ctx context.Context) (core.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tipo, COALESCE(SUM(valor_centavos), 0)
		 FROM transacoes
		 GROUP BY tipo`)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary query: %w", err)
	}
	defer rows.Close()

	var s core.Summary
	for rows.Next() {
		var tipo string
		var cents int64
		if err := rows.Scan(&tipo, &cents); err != nil {
			return core.Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		switch core.Kind(tipo) {
		case core.Entrada:
			s.TotalEntradas = core.Money{Cents: cents}
		case core.Saida:
			s.TotalSaidas = core.Money{Cents: cents}
		}
	}
	if err := rows.Err(); err != nil {
		return core.Summary{}, fmt.Errorf("summary query: %w", err)
	}
	return s, nil
}

// SpendingByCategory sums expense amounts per category, largest first.
// Uncategorized rows are excluded; categories with no rows are absent.
func (r *SQLiteRepository) SpendingByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT categoria, COALESCE(SUM(valor_centavos), 0) AS total
		 FROM transacoes
		 WHERE tipo = ? AND categoria <> ''
		 GROUP BY categoria
		 ORDER BY total DESC`, string(core.Saida))
	if err != nil {
		return nil, fmt.Errorf("spending by category query: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		var cents int64
		if err := rows.Scan(&ct.Categoria, &cents); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		ct.Total = core.Money{Cents: cents}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spending by category query: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t     core.Transaction
		cents int64
		tipo  string
		data  string
	)
	if err := row.Scan(&t.ID, &t.Descricao, &cents, &tipo, &data, &t.Categoria); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Valor = core.Money{Cents: cents}
	t.Tipo = core.Kind(tipo)

	parsed, err := core.ParseDate(data)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", data, err)
	}
	t.Data = parsed
	return t, nil
}
