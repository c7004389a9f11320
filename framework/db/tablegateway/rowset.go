package tablegateway

import (
	"errors"
	"fmt"
	"iter"
)

var ErrIllegalIndex = errors.New("tablegateway: illegal index")

// Row is one fetched record keyed by column name.
type Row map[string]any

// Rowset is a cursor over fetched rows.
//
//	for rs.Rewind(); rs.Valid(); rs.Next() {
//	    row := rs.Current()
//	}
type Rowset struct {
	rows    []Row
	pointer int
	gateway *TableGateway
}

func NewRowset(rows []Row) *Rowset {
	return &Rowset{rows: rows}
}

// Gateway returns the table gateway the rows were fetched from, if any.
func (rs *Rowset) Gateway() *TableGateway { return rs.gateway }

func (rs *Rowset) Rewind() *Rowset {
	rs.pointer = 0
	return rs
}

// Current returns the row under the cursor, nil past the end.
func (rs *Rowset) Current() Row {
	if !rs.Valid() {
		return nil
	}
	return rs.rows[rs.pointer]
}

func (rs *Rowset) Key() int { return rs.pointer }

func (rs *Rowset) Next() { rs.pointer++ }

func (rs *Rowset) Valid() bool { return rs.pointer >= 0 && rs.pointer < len(rs.rows) }

func (rs *Rowset) Count() int { return len(rs.rows) }

// Seek moves the cursor to position.
func (rs *Rowset) Seek(position int) error {
	if position < 0 || position >= len(rs.rows) {
		return fmt.Errorf("%w %d", ErrIllegalIndex, position)
	}
	rs.pointer = position
	return nil
}

// At moves the cursor to position and returns the row there.
func (rs *Rowset) At(position int) (Row, error) {
	if err := rs.Seek(position); err != nil {
		return nil, err
	}
	return rs.Current(), nil
}

// Rows returns the rows as a slice, for ranging in templates.
func (rs *Rowset) Rows() []Row { return rs.rows }

// All iterates over the rows without moving the cursor.
func (rs *Rowset) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, row := range rs.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}
