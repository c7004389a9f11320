// Package tablegateway implements the table data gateway pattern over bun.
package tablegateway

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// TableGateway reads and writes one table.
//
//	gw := tablegateway.New(db, "cities")
//	rs, err := gw.FetchWhere(ctx, "population > ?", 100000)
type TableGateway struct {
	db    *bun.DB
	table string
}

func New(db *bun.DB, table string) *TableGateway {
	return &TableGateway{db: db, table: table}
}

func (gw *TableGateway) Table() string { return gw.table }

func (gw *TableGateway) DB() *bun.DB { return gw.db }

// FetchAll returns every row, ordered by the given order expressions.
func (gw *TableGateway) FetchAll(ctx context.Context, order ...string) (*Rowset, error) {
	return gw.fetch(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order(order...)
	})
}

// FetchWhere returns the rows matching query, with ? placeholders for args.
func (gw *TableGateway) FetchWhere(ctx context.Context, query string, args ...any) (*Rowset, error) {
	return gw.fetch(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(query, args...)
	})
}

func (gw *TableGateway) fetch(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) (*Rowset, error) {
	var rows []map[string]any
	q := apply(gw.db.NewSelect().Table(gw.table))
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("tablegateway: fetch %s: %w", gw.table, err)
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	rs := NewRowset(out)
	rs.gateway = gw
	return rs, nil
}

// Insert adds one row and returns the number of affected rows.
func (gw *TableGateway) Insert(ctx context.Context, row Row) (int64, error) {
	values := map[string]any(row)
	res, err := gw.db.NewInsert().Model(&values).TableExpr(gw.table).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tablegateway: insert %s: %w", gw.table, err)
	}
	return res.RowsAffected()
}

// Delete removes the rows matching query and returns how many were removed.
func (gw *TableGateway) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := gw.db.NewDelete().TableExpr(gw.table).Where(query, args...).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tablegateway: delete %s: %w", gw.table, err)
	}
	return res.RowsAffected()
}

// Count returns the number of rows.
func (gw *TableGateway) Count(ctx context.Context) (int, error) {
	n, err := gw.db.NewSelect().Table(gw.table).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tablegateway: count %s: %w", gw.table, err)
	}
	return n, nil
}
