// Package docstore is a small document database on top of SQL: named
// collections of JSON documents with server-assigned ids and timestamps.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	data       TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_created_idx ON documents (collection, created_at);
`

type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  queryer

	now   func() time.Time
	newID func() string
}

func New(db *sql.DB) *Store {
	return &Store{
		db:    db,
		q:     db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.q.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("docstore migrate: %w", err)
	}
	return nil
}

// WithTx runs fn against a Store bound to a single transaction. fn must
// only use the store it is given.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	bound := *s
	bound.db = nil
	bound.q = tx

	if err := fn(&bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (s *Store) Collection(name string) *Collection {
	return &Collection{s: s, name: name}
}

type Collection struct {
	s    *Store
	name string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Create(ctx context.Context, body any) (Document, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", c.name, err)
	}

	now := c.s.now()
	doc := Document{ID: c.s.newID(), Data: data, CreatedAt: now, UpdatedAt: now}

	_, err = c.s.q.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.name, doc.ID, string(data), now.UnixNano(), now.UnixNano())
	if err != nil {
		return Document{}, fmt.Errorf("insert %s: %w", c.name, err)
	}

	return doc, nil
}

// Update replaces the body of an existing document and bumps updated_at.
func (c *Collection) Update(ctx context.Context, id string, body any) (Document, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", c.name, err)
	}

	now := c.s.now()
	res, err := c.s.q.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), now.UnixNano(), c.name, id)
	if err != nil {
		return Document{}, fmt.Errorf("update %s: %w", c.name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Document{}, ErrNotFound
	}

	return c.Get(ctx, id)
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	res, err := c.s.q.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Collection) Get(ctx context.Context, id string) (Document, error) {
	row := c.s.q.QueryRowContext(ctx,
		`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		c.name, id)

	doc, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", c.name, err)
	}
	return doc, nil
}

// List returns every document in the collection, newest first.
func (c *Collection) List(ctx context.Context) ([]Document, error) {
	rows, err := c.s.q.QueryContext(ctx,
		`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? ORDER BY created_at DESC, id`,
		c.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c.name, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Count returns the number of documents in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Document, error) {
	var (
		doc              Document
		data             string
		created, updated int64
	)
	if err := s.Scan(&doc.ID, &data, &created, &updated); err != nil {
		return Document{}, err
	}
	doc.Data = json.RawMessage(data)
	doc.CreatedAt = time.Unix(0, created).UTC()
	doc.UpdatedAt = time.Unix(0, updated).UTC()
	return doc, nil
}
