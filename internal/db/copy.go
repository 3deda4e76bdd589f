package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Table is a schema-qualified table name.
type Table struct {
	Schema string
	Name   string
}

// Identifier returns the pgx identifier for t. An empty schema leaves the
// name unqualified.
func (t Table) Identifier() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Replace drops t and recreates it from the column definitions, creating the
// schema first when t has one.
func Replace(ctx context.Context, pool Pool, t Table, columnDefs string) error {
	if t.Schema != "" {
		sql := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{t.Schema}.Sanitize())
		if _, err := pool.Exec(ctx, sql); err != nil {
			return eris.Wrapf(err, "db: create schema %s", t.Schema)
		}
	}

	ident := t.Identifier().Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", ident)); err != nil {
		return eris.Wrapf(err, "db: drop %s", t)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", ident, columnDefs)); err != nil {
		return eris.Wrapf(err, "db: create %s", t)
	}
	return nil
}

// CopyFrom bulk-inserts rows into t using the COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, t Table, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, t.Identifier(), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", t)
	}
	return n, nil
}
