package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"persondir.systems/persondir/internal/attributes"
)

// ParamType controls how a seed value is bound to a placeholder.
type ParamType int

const (
	// Varchar binds the value as a string.
	Varchar ParamType = iota
	// Raw binds the value unchanged.
	Raw
)

func (p ParamType) String() string {
	switch p {
	case Varchar:
		return "VARCHAR"
	case Raw:
		return "RAW"
	default:
		return fmt.Sprintf("ParamType(%d)", int(p))
	}
}

// Param declares one positional query parameter.
type Param struct {
	Name string
	Type ParamType
}

// Row is one result row keyed by column name.
type Row map[string]any

// Query is a statement compiled once against a database and executed with
// varying arguments. It holds no per-call state and is safe for concurrent
// use.
type Query struct {
	sql    string
	params []Param
	stmt   *sql.Stmt
}

// Compile prepares query against db. The number of placeholders in query must
// match the number of params.
func Compile(ctx context.Context, db *sql.DB, query string, params []Param) (*Query, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database cannot be nil", attributes.ErrInvalidArgument)
	}
	n, err := countPlaceholders(query)
	if err != nil {
		return nil, err
	}
	if n != len(params) {
		return nil, fmt.Errorf("%w: query declares %d placeholders but %d parameters are configured", attributes.ErrInvalidArgument, n, len(params))
	}
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error compiling query: %w", err)
	}
	p := make([]Param, len(params))
	copy(p, params)
	return &Query{sql: query, params: p, stmt: stmt}, nil
}

// SQL returns the query text.
func (q *Query) SQL() string { return q.sql }

// Params returns a copy of the declared parameters.
func (q *Query) Params() []Param {
	p := make([]Param, len(q.params))
	copy(p, q.params)
	return p
}

// Execute binds args positionally and returns every row. Each arg is the
// value list of the matching parameter; the first value is bound and an empty
// list binds NULL. Driver errors are returned unchanged.
func (q *Query) Execute(ctx context.Context, args ...[]any) ([]Row, error) {
	if len(args) != len(q.params) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", attributes.ErrInvalidArgument, len(q.params), len(args))
	}
	bound := make([]any, len(args))
	for i, a := range args {
		bound[i] = bind(q.params[i], a)
	}
	rows, err := q.stmt.QueryContext(ctx, bound...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRows(rows)
}

// Close releases the prepared statement.
func (q *Query) Close() error {
	return q.stmt.Close()
}

func (q *Query) String() string {
	return fmt.Sprintf("SQL=[%v] params=%v", q.sql, q.params)
}

func bind(p Param, values []any) any {
	if len(values) == 0 || values[0] == nil {
		return nil
	}
	v := values[0]
	if p.Type == Raw {
		return v
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// countPlaceholders counts bind parameters outside of quoted literals and
// comments. Bare ? counts once per occurrence; numbered ?N and $N count up to
// the highest index. Styles may not be mixed.
func countPlaceholders(query string) (int, error) {
	question := 0
	numbered := 0
	dollar := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			end := skipQuoted(query, i, c)
			if end < 0 {
				return 0, fmt.Errorf("%w: unterminated quote in query", attributes.ErrInvalidArgument)
			}
			i = end
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				return 0, fmt.Errorf("%w: unterminated comment in query", attributes.ErrInvalidArgument)
			}
			i += end + 3
		case c == '?' || c == '$':
			n, j, err := placeholderIndex(query, i)
			if err != nil {
				return 0, err
			}
			switch {
			case n > 0 && c == '?':
				numbered = max(numbered, n)
			case n > 0:
				dollar = max(dollar, n)
			case c == '?':
				question++
			}
			i = j - 1
		}
	}
	styles := 0
	for _, n := range []int{question, numbered, dollar} {
		if n > 0 {
			styles++
		}
	}
	if styles > 1 {
		return 0, fmt.Errorf("%w: query mixes placeholder styles", attributes.ErrInvalidArgument)
	}
	return question + numbered + dollar, nil
}

// placeholderIndex reads the digits after the marker at i. It returns 0 when
// there are none, and the offset just past the placeholder.
func placeholderIndex(query string, i int) (int, int, error) {
	j := i + 1
	for j < len(query) && query[j] >= '0' && query[j] <= '9' {
		j++
	}
	if j == i+1 {
		return 0, j, nil
	}
	n, err := strconv.Atoi(query[i+1 : j])
	if err != nil || n == 0 {
		return 0, 0, fmt.Errorf("%w: bad placeholder %q", attributes.ErrInvalidArgument, query[i:j])
	}
	return n, j, nil
}

func skipQuoted(query string, start int, quote byte) int {
	for i := start + 1; i < len(query); i++ {
		if query[i] != quote {
			continue
		}
		// doubled quote is an escaped quote
		if i+1 < len(query) && query[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return -1
}
