package database

import (
	"context"

	"github.com/surrealdb/surrealdb.go"
)

// statement is a SurrealQL statement paired with the gateway operation that
// runs it. Driver failures come back as a DBError naming both.
type statement struct {
	op string
	ql string
}

func (s statement) fail(err error) error {
	return NewDBError(err, s.op).WithQuery(s.ql)
}

// exec runs s and discards whatever it returns.
func (s statement) exec(ctx context.Context, db *surrealdb.DB, vars map[string]any) error {
	if _, err := surrealdb.Query[any](ctx, db, s.ql, vars); err != nil {
		return s.fail(err)
	}
	return nil
}

// selectAll decodes the rows of the first statement in s.
func selectAll[T any](ctx context.Context, db *surrealdb.DB, s statement, vars map[string]any) ([]T, error) {
	res, err := surrealdb.Query[[]T](ctx, db, s.ql, vars)
	if err != nil {
		return nil, s.fail(err)
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[0].Result, nil
}

// selectOne is selectAll for statements that yield at most one row. A
// missing row is reported as nil without an error.
func selectOne[T any](ctx context.Context, db *surrealdb.DB, s statement, vars map[string]any) (*T, error) {
	rows, err := selectAll[T](ctx, db, s, vars)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
