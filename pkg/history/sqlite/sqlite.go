// Package sqlite provides a SQLite-backed history driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/faqbot/pkg/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	product_id TEXT    NOT NULL DEFAULT '',
	question   TEXT    NOT NULL,
	answer     TEXT    NOT NULL DEFAULT '',
	sources    TEXT    NOT NULL DEFAULT '[]',
	debug      TEXT    NOT NULL DEFAULT '',
	failed     INTEGER NOT NULL DEFAULT 0,
	error      TEXT    NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS exchanges_session_created
	ON exchanges (session_id, created_at);
`

const selectColumns = `id, session_id, product_id, question, answer, sources, debug, failed, error, created_at`

// Driver implements history.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver opens the database at dbPath and creates the schema if needed.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Save stores ex and sets its ID.
func (d *Driver) Save(ctx context.Context, ex *history.Exchange) error {
	if err := history.Validate(ex); err != nil {
		return err
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	sources, err := json.Marshal(nonNil(ex.Sources))
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO exchanges (session_id, product_id, question, answer, sources, debug, failed, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.SessionID, ex.ProductID, ex.Question, ex.Answer, string(sources),
		ex.Debug, ex.Failed, ex.Error, ex.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading exchange id: %w", err)
	}
	ex.ID = id

	return nil
}

// Get retrieves an exchange by ID.
func (d *Driver) Get(ctx context.Context, id int64) (*history.Exchange, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM exchanges WHERE id = ?`, id)

	ex, err := scanExchange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// List returns the most recent exchanges of a session, oldest first.
func (d *Driver) List(ctx context.Context, sessionID string, limit int) ([]*history.Exchange, error) {
	var (
		where []string
		args  []any
	)
	if sessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, sessionID)
	}

	query := `SELECT ` + selectColumns + ` FROM exchanges`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	defer rows.Close()

	var out []*history.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}

	// Rows come newest first so LIMIT keeps the latest ones.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

// Sessions returns the known session IDs, most recently active first.
func (d *Driver) Sessions(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT session_id FROM exchanges GROUP BY session_id ORDER BY MAX(created_at) DESC, MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	return out, nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(s scanner) (*history.Exchange, error) {
	var (
		ex        history.Exchange
		sources   string
		createdAt int64
	)
	err := s.Scan(&ex.ID, &ex.SessionID, &ex.ProductID, &ex.Question, &ex.Answer,
		&sources, &ex.Debug, &ex.Failed, &ex.Error, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning exchange: %w", err)
	}

	if err := json.Unmarshal([]byte(sources), &ex.Sources); err != nil {
		return nil, fmt.Errorf("decoding sources of exchange %d: %w", ex.ID, err)
	}
	if len(ex.Sources) == 0 {
		ex.Sources = nil
	}
	ex.CreatedAt = time.Unix(0, createdAt)

	return &ex, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
