package flaws

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Schema is the flaw rule table. Timestamps are stored as text in any of
// the accepted layouts; kind is "interval" or "range".
const Schema = `CREATE TABLE IF NOT EXISTS flaw_rules (
	sample      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	starts_at   TEXT,
	ends_at     TEXT,
	column_name TEXT,
	min_value   DOUBLE PRECISION,
	max_value   DOUBLE PRECISION,
	reason      TEXT
)`

// SQLSource serves rules from a flaw_rules table, for labs that keep the
// flaw log in a shared database.
type SQLSource struct {
	db      *sql.DB
	query   string
	layouts []string
}

// OpenSQLSource connects to a rule database. driver is "sqlite" (dsn is a
// file path) or "postgres".
func OpenSQLSource(ctx context.Context, driver, dsn string, layouts []string) (*SQLSource, error) {
	name := driver
	if driver == "postgres" {
		name = "pgx"
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewSQLSource(db, driver, layouts), nil
}

// NewSQLSource wraps an open database.
func NewSQLSource(db *sql.DB, driver string, layouts []string) *SQLSource {
	ph := "?"
	if driver == "postgres" {
		ph = "$1"
	}
	q := `SELECT kind, starts_at, ends_at, column_name, min_value, max_value, reason
		FROM flaw_rules WHERE sample = ` + ph + ` ORDER BY starts_at`
	return &SQLSource{db: db, query: q, layouts: layouts}
}

// EnsureSchema creates the flaw_rules table when it does not exist.
func (s *SQLSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure flaw_rules table: %w", err)
	}
	return nil
}

func (s *SQLSource) Rules(ctx context.Context, sample string) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx, s.query, sample)
	if err != nil {
		return nil, fmt.Errorf("select flaw rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Rule
	for rows.Next() {
		var (
			kind                     string
			from, to, column, reason sql.NullString
			minV, maxV               sql.NullFloat64
		)
		if err := rows.Scan(&kind, &from, &to, &column, &minV, &maxV, &reason); err != nil {
			return nil, fmt.Errorf("scan flaw rule: %w", err)
		}
		spec := ruleSpec{From: from.String, To: to.String, Column: column.String, Reason: reason.String}
		if minV.Valid {
			spec.Min = &minV.Float64
		}
		if maxV.Valid {
			spec.Max = &maxV.Float64
		}
		r, err := spec.rule(s.layouts)
		if err != nil {
			return nil, fmt.Errorf("flaw rule %d for %s: %w", len(out), sample, err)
		}
		if Kind(kind) != r.Kind {
			return nil, fmt.Errorf("flaw rule %d for %s: kind %q does not match its columns", len(out), sample, kind)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLSource) Close() error { return s.db.Close() }
