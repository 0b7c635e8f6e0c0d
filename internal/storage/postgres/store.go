// Package postgres реализует хранилище движка поверх pgx.
// Конкурентные переходы статуса одного товара сериализуются через
// SELECT ... FOR UPDATE внутри транзакции WithTx
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/polesharing-api/internal/market"
)

// queryer объединяет пул и транзакцию pgx
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store — хранилище движка в Postgres
type Store struct {
	pool *pgxpool.Pool
	db   queryer
	tx   pgx.Tx // не nil внутри транзакции
}

// NewStore создает хранилище поверх пула соединений
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// WithTx выполняет fn в одной транзакции. Вложенный вызов WithTx
// продолжает уже открытую транзакцию
func (s *Store) WithTx(ctx context.Context, fn func(market.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	txStore := &Store{pool: s.pool, db: tx, tx: tx}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}
