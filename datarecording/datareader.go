package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// QueryParams selects and orders the rows of a table. Where and OrderBy are
// SQL fragments without their keywords, with Args bound to the placeholders
// of Where. A zero Limit returns every row.
type QueryParams struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

func (p QueryParams) filter() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) window() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", p.Offset)
		}
	}

	return b.String()
}

// DataReader reads back the tables that a DataRecorder wrote. Rows decode
// into the struct type mapped to their table, with columns matched to fields
// by name.
type DataReader interface {
	MapTable(tableName string, sampleEntry any)
	ListTables() []string

	// Query returns pointers to the selected rows and the number of rows
	// that match the filter regardless of Limit and Offset.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

// QueryAs runs Query and converts the rows to values of T. T must be the
// type mapped to the table.
func QueryAs[T any](
	ctx context.Context,
	r DataReader,
	tableName string,
	params QueryParams,
) ([]T, int, error) {
	rows, total, err := r.Query(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	out := make([]T, 0, len(rows))

	for _, row := range rows {
		entry, ok := row.(*T)
		if !ok {
			return nil, 0, fmt.Errorf("table %s holds %T, not %T",
				tableName, row, entry)
		}

		out = append(out, *entry)
	}

	return out, total, nil
}

type rowMapping struct {
	structType reflect.Type
	fields     map[string]int
}

func newRowMapping(sampleEntry any) rowMapping {
	t := reflect.TypeOf(sampleEntry)
	m := rowMapping{structType: t, fields: make(map[string]int, t.NumField())}

	for i := 0; i < t.NumField(); i++ {
		m.fields[t.Field(i).Name] = i
	}

	return m
}

// decode reads the rows into new structs. Columns without a field are
// skipped.
func (m rowMapping) decode(rows *sql.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []any

	for rows.Next() {
		entry := reflect.New(m.structType)
		targets := make([]any, len(columns))

		for i, col := range columns {
			if idx, ok := m.fields[col]; ok {
				targets[i] = entry.Elem().Field(idx).Addr().Interface()
			} else {
				targets[i] = new(any)
			}
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		out = append(out, entry.Interface())
	}

	return out, rows.Err()
}

type sqliteReader struct {
	db       *sql.DB
	mappings map[string]rowMapping
	order    []string
}

// NewReader opens a SQLite file for reading.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbFilename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB reads from an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{db: db, mappings: make(map[string]rowMapping)}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	if _, ok := r.mappings[tableName]; !ok {
		r.order = append(r.order, tableName)
	}

	r.mappings[tableName] = newRowMapping(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	return append([]string(nil), r.order...)
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	m, ok := r.mappings[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.filter(),
		params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+tableName+params.filter()+params.window(),
		params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	results, err := m.decode(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
