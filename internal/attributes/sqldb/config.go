package sqldb

import (
	"errors"
	"fmt"
	"slices"

	"github.com/knadh/koanf/v2"
)

const (
	ParserSingleRow = "single_row"
	ParserMultiRow  = "multi_row"
)

type Config struct {
	Driver           string              `toml:"driver"`
	DSN              string              `toml:"dsn"`
	Query            string              `toml:"query"`
	QueryAttributes  []string            `toml:"query_attributes"`
	DefaultAttribute string              `toml:"default_attribute"`
	RawParams        []string            `toml:"raw_params"`
	Parser           string              `toml:"parser"`
	Columns          map[string][]string `toml:"columns"`
	NameColumn       string              `toml:"name_column"`
	ValueColumns     []string            `toml:"value_columns"`
	Attributes       map[string][]string `toml:"attributes"`
	MaxOpenConns     int                 `toml:"max_open_conns"`
}

func (c Config) Validate() error {
	if c.DSN == "" {
		return errors.New("need dsn for sql attributes")
	}
	if c.Query == "" {
		return errors.New("need query for sql attributes")
	}
	if !slices.Contains(Drivers(), c.Driver) {
		return fmt.Errorf("unsupported sql driver %q", c.Driver)
	}
	switch c.Parser {
	case ParserSingleRow:
	case ParserMultiRow:
		if c.NameColumn == "" || len(c.ValueColumns) == 0 {
			return errors.New("multi_row parser needs name_column and value_columns")
		}
	default:
		return fmt.Errorf("unknown row parser %q", c.Parser)
	}
	return nil
}

func (c Config) SourceType() string { return "sql" }

func NewConfig(k *koanf.Koanf) (*Config, error) {
	var c Config
	c.Driver = k.String("sql.driver")
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	c.DSN = k.String("sql.dsn")
	c.Query = k.String("sql.query")
	c.QueryAttributes = k.Strings("sql.query_attributes")
	c.DefaultAttribute = k.String("sql.default_attribute")
	c.RawParams = k.Strings("sql.raw_params")
	c.Parser = k.String("sql.parser")
	if c.Parser == "" {
		c.Parser = ParserSingleRow
	}
	var err error
	c.Columns, err = stringsMap(k, "sql.columns")
	if err != nil {
		return nil, err
	}
	c.NameColumn = k.String("sql.multi_row.name_column")
	c.ValueColumns = k.Strings("sql.multi_row.value_columns")
	c.Attributes, err = stringsMap(k, "sql.multi_row.attributes")
	if err != nil {
		return nil, err
	}
	c.MaxOpenConns = k.Int("sql.max_open_conns")
	return &c, nil
}

func (c Config) String() string {
	return fmt.Sprintf("Driver: %v\nQuery: %v\nQuery attributes: %v\nParser: %v\n", c.Driver, c.Query, c.QueryAttributes, c.Parser)
}

// BuildParser returns the row parser the config describes.
func (c Config) BuildParser() (RowParser, error) {
	switch c.Parser {
	case ParserMultiRow:
		return NewMultiRowParser(c.NameColumn, c.ValueColumns, c.Attributes)
	case ParserSingleRow, "":
		return NewSingleRowParser(c.Columns), nil
	default:
		return nil, fmt.Errorf("unknown row parser %q", c.Parser)
	}
}

// stringsMap reads a table whose values are a string or a list of strings.
func stringsMap(k *koanf.Koanf, path string) (map[string][]string, error) {
	if !k.Exists(path) {
		return nil, nil
	}
	raw, ok := k.Get(path).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%v must be a table", path)
	}
	result := make(map[string][]string, len(raw))
	for key, v := range raw {
		switch t := v.(type) {
		case string:
			result[key] = []string{t}
		case []string:
			result[key] = slices.Clone(t)
		case []any:
			for _, s := range t {
				str, ok := s.(string)
				if !ok {
					return nil, fmt.Errorf("%v.%v must hold strings", path, key)
				}
				result[key] = append(result[key], str)
			}
		default:
			return nil, fmt.Errorf("%v.%v must be a string or list of strings", path, key)
		}
	}
	return result, nil
}
