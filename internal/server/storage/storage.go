// Package storage persists items and their embeddings for the reference
// backend, on SQLite for local use or Postgres when a DSN is supplied.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Store wraps the items and embeddings tables.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open opens a DB and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examflux.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examflux?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Record is one stored item row. Choices and metadata stay JSON-encoded,
// exactly as they travel on the wire.
type Record struct {
	ID          int64
	Source      string
	Prompt      string
	Stimulus    string
	Stem        string
	ChoicesJSON string
	Answer      string
	MetaJSON    string
	Status      string
	Committed   bool
	CreatedAt   time.Time
}

const recordCols = "id, source, prompt, stimulus, stem, choices, answer, metadata, status, committed, created_at"

// Insert stores a new item and returns its assigned id.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	if rec.ChoicesJSON == "" {
		rec.ChoicesJSON = "[]"
	}
	if rec.Status == "" {
		rec.Status = "new"
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	q := s.rebind(`INSERT INTO items (source, prompt, stimulus, stem, choices, answer, metadata, status, committed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int64
	err := s.db.QueryRowContext(ctx, q,
		rec.Source, rec.Prompt, rec.Stimulus, rec.Stem, rec.ChoicesJSON,
		rec.Answer, rec.MetaJSON, rec.Status, boolInt(rec.Committed), rec.CreatedAt.Unix(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}
	return id, nil
}

// List returns the most recent items, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	q := s.rebind("SELECT " + recordCols + " FROM items ORDER BY id DESC LIMIT ?")
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Get fetches one item by id.
func (s *Store) Get(ctx context.Context, id int64) (Record, bool, error) {
	q := s.rebind("SELECT " + recordCols + " FROM items WHERE id = ?")
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return Record{}, false, fmt.Errorf("fetching item: %w", err)
	}
	defer rows.Close()
	recs, err := scanRecords(rows)
	if err != nil {
		return Record{}, false, err
	}
	if len(recs) == 0 {
		return Record{}, false, nil
	}
	return recs[0], true, nil
}

// SetStatus updates an item's review status. Returns false if the item
// does not exist.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) (bool, error) {
	q := s.rebind("UPDATE items SET status = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return false, fmt.Errorf("updating status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Cart lists approved, uncommitted items.
func (s *Store) Cart(ctx context.Context) ([]Record, error) {
	q := "SELECT " + recordCols + " FROM items WHERE status = 'approved' AND committed = 0 ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing cart: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CommitCart marks every approved, uncommitted item as committed and
// returns how many were affected.
func (s *Store) CommitCart(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE items SET committed = 1 WHERE status = 'approved' AND committed = 0")
	if err != nil {
		return 0, fmt.Errorf("committing cart: %w", err)
	}
	return res.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			rec                               Record
			prompt, stimulus, stem, metaJSON  sql.NullString
			committed                         int64
			createdAt                         int64
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &prompt, &stimulus, &stem,
			&rec.ChoicesJSON, &rec.Answer, &metaJSON, &rec.Status, &committed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		rec.Prompt = prompt.String
		rec.Stimulus = stimulus.String
		rec.Stem = stem.String
		rec.MetaJSON = metaJSON.String
		rec.Committed = committed != 0
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PutEmbedding caches an item's embedding vector.
func (s *Store) PutEmbedding(ctx context.Context, itemID int64, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	// delete-then-insert for idempotency
	del := s.rebind("DELETE FROM embeddings WHERE item_id = ?")
	if _, err := s.db.ExecContext(ctx, del, itemID); err != nil {
		return fmt.Errorf("clearing embedding: %w", err)
	}
	ins := s.rebind("INSERT INTO embeddings (item_id, dim, vector, created_at) VALUES (?, ?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, ins, itemID, len(vec), string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns a cached embedding, if any.
func (s *Store) GetEmbedding(ctx context.Context, itemID int64) ([]float32, bool, error) {
	q := s.rebind("SELECT vector FROM embeddings WHERE item_id = ?")
	var data string
	err := s.db.QueryRowContext(ctx, q, itemID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetching embedding: %w", err)
	}
	var vec []float32
	if err := json.Unmarshal([]byte(data), &vec); err != nil {
		return nil, false, fmt.Errorf("decoding embedding: %w", err)
	}
	return vec, true, nil
}

// Unembedded returns items with no cached embedding yet.
func (s *Store) Unembedded(ctx context.Context) ([]Record, error) {
	q := "SELECT " + recordCols + " FROM items WHERE id NOT IN (SELECT item_id FROM embeddings)"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing unembedded items: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ItemVector pairs an item id with its embedding for pool scans.
type ItemVector struct {
	ItemID int64
	Vector []float32
}

// EmbeddingsExcept loads every cached embedding except the query item's.
func (s *Store) EmbeddingsExcept(ctx context.Context, itemID int64) ([]ItemVector, error) {
	q := s.rebind("SELECT item_id, vector FROM embeddings WHERE item_id != ?")
	rows, err := s.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading embedding pool: %w", err)
	}
	defer rows.Close()

	var out []ItemVector
	for rows.Next() {
		var iv ItemVector
		var data string
		if err := rows.Scan(&iv.ItemID, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &iv.Vector); err != nil {
			continue // skip undecodable vectors
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL DEFAULT 'ai',
  prompt TEXT,
  stimulus TEXT,
  stem TEXT,
  choices TEXT NOT NULL DEFAULT '[]',
  answer TEXT NOT NULL DEFAULT '',
  metadata TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  committed INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
  item_id INTEGER PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
  dim INTEGER NOT NULL,
  vector TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS items (
  id BIGSERIAL PRIMARY KEY,
  source TEXT NOT NULL DEFAULT 'ai',
  prompt TEXT,
  stimulus TEXT,
  stem TEXT,
  choices TEXT NOT NULL DEFAULT '[]',
  answer TEXT NOT NULL DEFAULT '',
  metadata TEXT,
  status TEXT NOT NULL DEFAULT 'new',
  committed INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
  item_id BIGINT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
  dim INTEGER NOT NULL,
  vector TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
