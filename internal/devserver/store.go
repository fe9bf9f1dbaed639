package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Customized is a traveler's editable copy of an original itinerary.
type Customized struct {
	ID         string
	OriginalID string
	Owner      string
	Body       []byte // canonical document JSON
}

// Store persists originals and customized copies.
type Store interface {
	PutOriginal(ctx context.Context, id string, body []byte) error
	GetOriginal(ctx context.Context, id string) ([]byte, error)

	GetCustomized(ctx context.Context, id string) (*Customized, error)
	FindCustomized(ctx context.Context, owner, originalID string) (*Customized, error)
	PutCustomized(ctx context.Context, c *Customized) error

	Ping(ctx context.Context) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS originals (
	id         TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS customized (
	id          TEXT PRIMARY KEY,
	original_id TEXT NOT NULL,
	owner       TEXT NOT NULL,
	body        TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS customized_owner_original ON customized (owner, original_id);
`

// sqlStore implements Store over database/sql for both sqlite and postgres.
// Queries are written with ? placeholders and rebound for postgres.
type sqlStore struct {
	db       *sql.DB
	dollarPH bool
}

func newSQLStore(ctx context.Context, db *sql.DB, dollarPH bool) (*sqlStore, error) {
	s := &sqlStore{db: db, dollarPH: dollarPH}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return s, nil
}

func (s *sqlStore) PutOriginal(ctx context.Context, id string, body []byte) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO originals (id, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`),
		id, string(body), time.Now().UTC())
	return err
}

func (s *sqlStore) GetOriginal(ctx context.Context, id string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT body FROM originals WHERE id = ?`), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *sqlStore) GetCustomized(ctx context.Context, id string) (*Customized, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, original_id, owner, body FROM customized WHERE id = ?`), id)
	return scanCustomized(row)
}

func (s *sqlStore) FindCustomized(ctx context.Context, owner, originalID string) (*Customized, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, original_id, owner, body FROM customized
WHERE owner = ? AND original_id = ? ORDER BY updated_at DESC LIMIT 1`), owner, originalID)
	return scanCustomized(row)
}

func (s *sqlStore) PutCustomized(ctx context.Context, c *Customized) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO customized (id, original_id, owner, body, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`),
		c.ID, c.OriginalID, c.Owner, string(c.Body), time.Now().UTC())
	return err
}

func (s *sqlStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlStore) Close() error { return s.db.Close() }

func scanCustomized(row *sql.Row) (*Customized, error) {
	var (
		c    Customized
		body string
	)
	err := row.Scan(&c.ID, &c.OriginalID, &c.Owner, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Body = []byte(body)
	return &c, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *sqlStore) rebind(q string) string {
	if !s.dollarPH {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
