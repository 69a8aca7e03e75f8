package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dutchthrift_server/lib"

	"github.com/uptrace/bun"
)

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

type whereClause struct {
	sql  string
	args []any
}

// QueryBuilder provides a fluent, type-safe API for building select queries.
// Statements run with retry unless the handle is a transaction, where a
// failed statement aborts the transaction and retrying is pointless.
type QueryBuilder[T any] struct {
	db        bun.IDB
	retry     bool
	wheres    []whereClause
	orders    []string
	relations []string
	limitVal  int
	offsetVal int
	forUpdate bool
	timeout   time.Duration
}

// Query creates a new QueryBuilder instance
func Query[T any](db bun.IDB) *QueryBuilder[T] {
	_, inTx := db.(bun.Tx)
	return &QueryBuilder[T]{
		db:    db,
		retry: !inTx,
	}
}

// Where adds a simple WHERE condition (column = value)
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	return q.WhereOp(column, "=", value)
}

// WhereOp adds a WHERE condition with a custom operator
func (q *QueryBuilder[T]) WhereOp(column, operator string, value any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, whereClause{
		sql:  fmt.Sprintf("%s %s ?", column, operator),
		args: []any{value},
	})
	return q
}

// WhereIn adds a WHERE IN condition
func (q *QueryBuilder[T]) WhereIn(column string, values any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, whereClause{
		sql:  column + " IN (?)",
		args: []any{bun.In(values)},
	})
	return q
}

// WhereRaw adds a raw WHERE condition
func (q *QueryBuilder[T]) WhereRaw(sql string, args ...any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, whereClause{sql: sql, args: args})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	q.orders = append(q.orders, column+" "+string(direction))
	return q
}

// Relation preloads a bun relation declared on T
func (q *QueryBuilder[T]) Relation(name string) *QueryBuilder[T] {
	q.relations = append(q.relations, name)
	return q
}

// Limit sets the LIMIT clause
func (q *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	q.limitVal = limit
	return q
}

// Offset sets the OFFSET clause
func (q *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	q.offsetVal = offset
	return q
}

// ForUpdate adds FOR UPDATE clause (for row locking)
func (q *QueryBuilder[T]) ForUpdate() *QueryBuilder[T] {
	q.forUpdate = true
	return q
}

// Timeout sets a timeout for the query
func (q *QueryBuilder[T]) Timeout(duration time.Duration) *QueryBuilder[T] {
	q.timeout = duration
	return q
}

func (q *QueryBuilder[T]) build(model any) *bun.SelectQuery {
	query := q.db.NewSelect().Model(model)

	for _, rel := range q.relations {
		query = query.Relation(rel)
	}
	for _, w := range q.wheres {
		query = query.Where(w.sql, w.args...)
	}
	for _, o := range q.orders {
		query = query.OrderExpr(o)
	}
	if q.limitVal > 0 {
		query = query.Limit(q.limitVal)
	}
	if q.offsetVal > 0 {
		query = query.Offset(q.offsetVal)
	}
	if q.forUpdate {
		query = query.For("UPDATE")
	}

	return query
}

func (q *QueryBuilder[T]) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	if !q.retry {
		return fn(ctx)
	}
	return WithRetry(ctx, func() error { return fn(ctx) })
}

// All executes the query and returns all matching records
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	start := time.Now()
	var data []T

	err := q.run(ctx, func(ctx context.Context) error {
		data = nil // Reset on retry
		return q.build(&data).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w (took %v)", lib.MapPgError(err), time.Since(start))
	}

	return data, nil
}

// First returns the first matching record, or nil when nothing matches
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	start := time.Now()
	var data T

	err := q.run(ctx, func(ctx context.Context) error {
		return q.build(&data).Limit(1).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute first query: %w (took %v)", lib.MapPgError(err), time.Since(start))
	}

	return &data, nil
}

// Count returns the number of matching records, ignoring limit and offset
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	start := time.Now()
	var count int

	err := q.run(ctx, func(ctx context.Context) error {
		var err error
		count, err = q.build((*T)(nil)).Limit(0).Offset(0).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w (took %v)", lib.MapPgError(err), time.Since(start))
	}

	return count, nil
}

// Exists checks if any records match the query
func (q *QueryBuilder[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Paginate applies page/pageSize to the query and returns the page and the
// unpaginated total.
func Paginate[T any](ctx context.Context, q *QueryBuilder[T], page Page) ([]T, int, error) {
	page = page.Normalize()

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	data, err := q.Limit(page.Size).Offset(page.Offset()).All(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get paginated data: %w", err)
	}

	return data, total, nil
}
