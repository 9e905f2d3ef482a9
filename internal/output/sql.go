// internal/output/sql.go - SQL table output for SQLite, PostgreSQL, MySQL and SQL Server
package output

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/dataset"
)

// Dialect captures the per-database differences in generated SQL.
type Dialect struct {
	Driver    string
	TextType  string
	MaxParams int
	quote     [2]string
	bind      func(n int) string
	create    func(table, body string) string
}

var dialects = map[Format]Dialect{
	FormatSQLite: {
		Driver:    "sqlite3",
		TextType:  "TEXT",
		MaxParams: 999,
		quote:     [2]string{`"`, `"`},
		bind:      func(int) string { return "?" },
	},
	FormatPostgreSQL: {
		Driver:    "postgres",
		TextType:  "TEXT",
		MaxParams: 65535,
		quote:     [2]string{`"`, `"`},
		bind:      func(n int) string { return "$" + strconv.Itoa(n) },
	},
	FormatMySQL: {
		Driver:    "mysql",
		TextType:  "TEXT",
		MaxParams: 65535,
		quote:     [2]string{"`", "`"},
		bind:      func(int) string { return "?" },
	},
	FormatMSSQL: {
		Driver:    "sqlserver",
		TextType:  "NVARCHAR(MAX)",
		MaxParams: 2100,
		quote:     [2]string{"[", "]"},
		bind:      func(n int) string { return "@p" + strconv.Itoa(n) },
		create: func(table, body string) string {
			return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s", table, body)
		},
	},
}

// DialectFor returns the SQL dialect of a database format.
func DialectFor(format Format) (Dialect, bool) {
	d, ok := dialects[format]
	return d, ok
}

// Quote quotes an identifier, escaping the closing quote character.
func (d Dialect) Quote(name string) string {
	return d.quote[0] + strings.ReplaceAll(name, d.quote[1], d.quote[1]+d.quote[1]) + d.quote[1]
}

// QuoteTable quotes each part of a possibly schema-qualified table name.
func (d Dialect) QuoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// CreateTableSQL declares every column as text.
func (d Dialect) CreateTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.Quote(c) + " " + d.TextType
	}
	body := fmt.Sprintf("%s (%s)", d.QuoteTable(table), strings.Join(defs, ", "))
	if d.create != nil {
		return d.create(table, body)
	}
	return "CREATE TABLE IF NOT EXISTS " + body
}

// InsertSQL builds a multi-row insert for rows rows of columns.
func (d Dialect) InsertSQL(table string, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.QuoteTable(table), strings.Join(quoted, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.bind(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// RowsPerStatement caps a batch so one statement stays under the bind limit.
func (d Dialect) RowsPerStatement(batchSize, columns int) int {
	if columns == 0 {
		return batchSize
	}
	limit := d.MaxParams / columns
	if limit < 1 {
		limit = 1
	}
	if batchSize <= 0 || batchSize > limit {
		return limit
	}
	return batchSize
}

// SQLWriter inserts table rows into one SQL table inside a transaction
// per Write call.
type SQLWriter struct {
	db          *sql.DB
	dialect     Dialect
	table       string
	batchSize   int
	createTable bool
	created     bool
	owned       bool
}

// NewSQLWriter opens and pings the database named by cfg.
func NewSQLWriter(ctx context.Context, format Format, cfg *config.DatabaseConfig) (*SQLWriter, error) {
	dialect, ok := DialectFor(format)
	if !ok {
		return nil, fmt.Errorf("%s is not a SQL format", format)
	}
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required for %s", format)
	}
	db, err := sql.Open(dialect.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", format, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", format, err)
	}
	if format == FormatSQLite {
		// One writer; avoids "database is locked" from pooled connections.
		db.SetMaxOpenConns(1)
	}

	w, err := NewSQLWriterWithDB(db, format, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	w.owned = true
	return w, nil
}

// NewSQLWriterWithDB writes through an existing connection pool, which the
// caller keeps ownership of.
func NewSQLWriterWithDB(db *sql.DB, format Format, cfg *config.DatabaseConfig) (*SQLWriter, error) {
	dialect, ok := DialectFor(format)
	if !ok {
		return nil, fmt.Errorf("%s is not a SQL format", format)
	}
	if err := ValidateTableName(cfg.Table); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}
	return &SQLWriter{
		db:          db,
		dialect:     dialect,
		table:       cfg.Table,
		batchSize:   cfg.BatchSize,
		createTable: cfg.CreateTable,
	}, nil
}

func (w *SQLWriter) Write(ctx context.Context, table *dataset.Table) error {
	if len(table.Columns) == 0 {
		return nil
	}
	if w.createTable && !w.created {
		if _, err := w.db.ExecContext(ctx, w.dialect.CreateTableSQL(w.table, table.Columns)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", w.table, err)
		}
		w.created = true
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	per := w.dialect.RowsPerStatement(w.batchSize, len(table.Columns))
	var stmt *sql.Stmt
	for start := 0; start < len(table.Rows); start += per {
		end := min(start+per, len(table.Rows))
		batch := table.Rows[start:end]

		args := make([]interface{}, 0, len(batch)*len(table.Columns))
		for _, row := range batch {
			for _, cell := range row {
				args = append(args, cell.Value())
			}
		}

		if len(batch) == per && stmt != nil {
			_, err = stmt.ExecContext(ctx, args...)
		} else if len(batch) == per {
			stmt, err = tx.PrepareContext(ctx, w.dialect.InsertSQL(w.table, table.Columns, per))
			if err == nil {
				defer stmt.Close()
				_, err = stmt.ExecContext(ctx, args...)
			}
		} else {
			_, err = tx.ExecContext(ctx, w.dialect.InsertSQL(w.table, table.Columns, len(batch)), args...)
		}
		if err != nil {
			return fmt.Errorf("failed to insert rows %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (w *SQLWriter) Close() error {
	if !w.owned || w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	return err
}
