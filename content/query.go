package content

import (
	"fmt"
	"strings"
)

// Op is a filter operator understood by the query compiler.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpILike
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpNeq:
		return "neq"
	case OpILike:
		return "ilike"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Filter is a single column predicate. Filters on a query are ANDed.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Order is one ORDER BY term.
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a read against one table. The builder methods return a new
// Query and never modify the receiver, so partially built queries can be
// shared.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Orders  []Order
	Max     int // 0 means no limit
}

// recordColumns lists the columns of the posts table in scan order.
var recordColumns = []string{
	"id", "title", "slug", "excerpt", "content", "image", "author",
	"category", "date", "read_time", "featured", "created_at",
}

var knownColumns = func() map[string]struct{} {
	m := make(map[string]struct{}, len(recordColumns))
	for _, c := range recordColumns {
		m[c] = struct{}{}
	}
	return m
}()

// From starts a query against table.
func From(table string) Query {
	return Query{Table: table}
}

// Select restricts the projection. With no columns every column is read.
func (q Query) Select(cols ...string) Query {
	q.Columns = append([]string(nil), cols...)
	return q
}

// Eq adds a column = value filter.
func (q Query) Eq(col string, v any) Query {
	return q.where(Filter{Column: col, Op: OpEq, Value: v})
}

// Neq adds a column <> value filter.
func (q Query) Neq(col string, v any) Query {
	return q.where(Filter{Column: col, Op: OpNeq, Value: v})
}

// ILike adds a case-insensitive LIKE filter. pattern uses SQL wildcards; use
// EscapeLike to match user input literally.
func (q Query) ILike(col, pattern string) Query {
	return q.where(Filter{Column: col, Op: OpILike, Value: pattern})
}

// Order appends an ORDER BY term.
func (q Query) Order(col string, ascending bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: col, Ascending: ascending})
	return q
}

// Limit caps the number of rows returned.
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

func (q Query) where(f Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), f)
	return q
}

func (q Query) selected() []string {
	if len(q.Columns) == 0 {
		return recordColumns
	}
	return q.Columns
}

// Compile renders the query as parameterized SQL for SQLite. Column and table
// names are checked against the schema; values are always bound.
//
// Every compiled query ends with an id tie-break so two reads of the same
// data return rows in the same order.
func (q Query) Compile() (string, []any, error) {
	if q.Table != PostsTable {
		return "", nil, fmt.Errorf("unknown table %q", q.Table)
	}
	cols := q.selected()
	for _, c := range cols {
		if err := checkColumn(c); err != nil {
			return "", nil, err
		}
	}

	var b strings.Builder
	var args []any
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.Table)

	for i, f := range q.Filters {
		if err := checkColumn(f.Column); err != nil {
			return "", nil, err
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		switch f.Op {
		case OpEq:
			b.WriteString(f.Column + " = ?")
		case OpNeq:
			b.WriteString(f.Column + " <> ?")
		case OpILike:
			b.WriteString(foldFunc + "(" + f.Column + ") LIKE " + foldFunc + `(?) ESCAPE '\'`)
		default:
			return "", nil, fmt.Errorf("unsupported operator %s", f.Op)
		}
		args = append(args, bindValue(f.Value))
	}

	orders := q.Orders
	if len(orders) == 0 {
		orders = []Order{{Column: "created_at"}}
	}
	b.WriteString(" ORDER BY ")
	hasID := false
	for i, o := range orders {
		if err := checkColumn(o.Column); err != nil {
			return "", nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(o.Column)
		if o.Ascending {
			b.WriteString(" ASC")
		} else {
			b.WriteString(" DESC")
		}
		if o.Column == "id" {
			hasID = true
		}
	}
	if !hasID {
		if orders[len(orders)-1].Ascending {
			b.WriteString(", id ASC")
		} else {
			b.WriteString(", id DESC")
		}
	}

	if q.Max > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Max)
	}
	return b.String(), args, nil
}

func checkColumn(c string) error {
	if _, ok := knownColumns[c]; !ok {
		return fmt.Errorf("unknown column %q", c)
	}
	return nil
}

func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// EscapeLike escapes LIKE wildcards in s so it matches literally under
// ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
