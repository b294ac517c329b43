// Package sqldb looks up person attributes with a single parameterized SQL
// query.
//
// The query is compiled when the Dao is built. Each lookup checks the seed
// holds every required query attribute, binds the seed values in the
// configured attribute order and hands the rows to a RowParser.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"persondir.systems/persondir/internal/attributes"
)

// RowParser turns the rows of one lookup into an attribute map following the
// nil/empty/populated rules of the attributes package.
type RowParser interface {
	ParseRows(rows []Row) (map[string][]any, error)
}

// RowParserFunc adapts a function to RowParser.
type RowParserFunc func(rows []Row) (map[string][]any, error)

func (f RowParserFunc) ParseRows(rows []Row) (map[string][]any, error) {
	return f(rows)
}

// nameReporter is implemented by parsers that know every attribute they can
// produce.
type nameReporter interface {
	PossibleAttributeNames() []string
}

// Dao runs one compiled query per lookup.
type Dao struct {
	*attributes.QueryDao
	queryAttributes []string
	query           *Query
	parser          RowParser
}

var (
	_ attributes.Source = (*Dao)(nil)
	_ attributes.Dao    = (*Dao)(nil)
)

type options struct {
	defaultAttribute string
	paramTypes       map[string]ParamType
}

type Option func(*options)

// WithDefaultAttribute sets the seed key used by identifier lookups and by an
// empty query attribute list.
func WithDefaultAttribute(name string) Option {
	return func(o *options) {
		if name != "" {
			o.defaultAttribute = name
		}
	}
}

// WithParamType overrides the binding type of one query attribute. Attributes
// default to Varchar.
func WithParamType(attribute string, t ParamType) Option {
	return func(o *options) { o.paramTypes[attribute] = t }
}

// NewDao compiles query against db. queryAttributes lists the seed keys the
// query needs in placeholder order; it is copied. An empty list requires the
// default attribute only.
func NewDao(ctx context.Context, db *sql.DB, queryAttributes []string, query string, parser RowParser, opts ...Option) (*Dao, error) {
	if queryAttributes == nil {
		return nil, fmt.Errorf("%w: query attribute list cannot be nil", attributes.ErrInvalidArgument)
	}
	if parser == nil {
		return nil, fmt.Errorf("%w: row parser cannot be nil", attributes.ErrInvalidArgument)
	}
	o := options{
		defaultAttribute: attributes.DefaultAttributeName,
		paramTypes:       map[string]ParamType{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	attrs := slices.Clone(queryAttributes)
	if len(attrs) == 0 {
		attrs = []string{o.defaultAttribute}
	}
	params := make([]Param, len(attrs))
	for i, a := range attrs {
		params[i] = Param{Name: a, Type: o.paramTypes[a]}
	}
	q, err := Compile(ctx, db, query, params)
	if err != nil {
		return nil, err
	}
	d := &Dao{
		queryAttributes: attrs,
		query:           q,
		parser:          parser,
	}
	d.QueryDao = attributes.NewDao(d, o.defaultAttribute)
	log.Debug("constructed sql attribute source", "query", q, "query_attributes", attrs)
	return d, nil
}

// QueryAttributes returns a copy of the required query attributes.
func (d *Dao) QueryAttributes() []string {
	return slices.Clone(d.queryAttributes)
}

// Lookup returns nil without touching the database when seed is missing a
// required query attribute.
func (d *Dao) Lookup(ctx context.Context, seed map[string][]any) (map[string][]any, error) {
	if err := attributes.CheckSeed(seed); err != nil {
		return nil, err
	}
	if !attributes.HasKeys(seed, d.queryAttributes) {
		log.Debug("seed is missing query attributes", "query_attributes", d.queryAttributes)
		return nil, nil
	}
	// the order of the seed map is meaningless, the query attribute order is not
	args := make([][]any, len(d.queryAttributes))
	for i, name := range d.queryAttributes {
		args[i] = seed[name]
	}
	rows, err := d.query.Execute(ctx, args...)
	if err != nil {
		return nil, err
	}
	return d.parser.ParseRows(rows)
}

// PossibleAttributeNames reports the names the parser can produce, or nil.
func (d *Dao) PossibleAttributeNames() []string {
	if r, ok := d.parser.(nameReporter); ok {
		return attributes.NewNameSet(r.PossibleAttributeNames()...)
	}
	return nil
}

// Close releases the compiled query. The database stays open.
func (d *Dao) Close() error {
	return d.query.Close()
}

func (d *Dao) String() string {
	return fmt.Sprintf("sqldb.Dao query=%v queryAttributes=%v", d.query, d.queryAttributes)
}
