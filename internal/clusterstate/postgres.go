package clusterstate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/gutenberg"
)

// persistence durably records this node's shard of the metadata map and
// inverted-index multimap behind a narrow interface, so the Postgres-backed
// implementation and an in-memory no-op are interchangeable.
type persistence interface {
	SaveMetadata(ctx context.Context, m gutenberg.Metadata) error
	LoadMetadata(ctx context.Context) (map[int64]gutenberg.Metadata, error)
	SavePosting(ctx context.Context, term string, id int64) error
	LoadPostings(ctx context.Context) (map[string][]int64, error)
	Clear(ctx context.Context) error
	Close()
}

// noPersistence no-ops persistence, used in tests that don't need a
// database.
type noPersistence struct{}

var (
	_ persistence = (*pgPersistence)(nil)
	_ persistence = noPersistence{}
)

func (noPersistence) SaveMetadata(context.Context, gutenberg.Metadata) error { return nil }
func (noPersistence) LoadMetadata(context.Context) (map[int64]gutenberg.Metadata, error) {
	return map[int64]gutenberg.Metadata{}, nil
}
func (noPersistence) SavePosting(context.Context, string, int64) error { return nil }
func (noPersistence) LoadPostings(context.Context) (map[string][]int64, error) {
	return map[string][]int64{}, nil
}
func (noPersistence) Clear(context.Context) error { return nil }
func (noPersistence) Close()                      {}

// pgPersistence persists cluster state to Postgres.
type pgPersistence struct {
	db *pgxpool.Pool
}

// NewPostgresPersistence connects to dsn and ensures the backing tables exist.
func NewPostgresPersistence(ctx context.Context, dsn string) (*pgPersistence, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", errs.ErrIO)
	}

	_, err = db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cluster_metadata (
			book_id  BIGINT PRIMARY KEY,
			title    TEXT NOT NULL,
			author   TEXT NOT NULL,
			language TEXT NOT NULL,
			year     INT,
			has_year BOOLEAN NOT NULL,
			path     TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS cluster_postings (
			term    TEXT NOT NULL,
			book_id BIGINT NOT NULL,
			PRIMARY KEY (term, book_id)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("provisioning cluster state schema: %w", errs.ErrIO)
	}

	return &pgPersistence{db: db}, nil
}

func (p *pgPersistence) SaveMetadata(ctx context.Context, m gutenberg.Metadata) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO cluster_metadata (book_id, title, author, language, year, has_year, path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (book_id) DO NOTHING
	`, m.BookID, m.Title, m.Author, m.Language, m.Year, m.HasYear, m.Path)
	if err != nil {
		return fmt.Errorf("persisting metadata for book %d: %w", m.BookID, errs.ErrIO)
	}
	return nil
}

func (p *pgPersistence) LoadMetadata(ctx context.Context) (map[int64]gutenberg.Metadata, error) {
	rows, err := p.db.Query(ctx, `SELECT book_id, title, author, language, year, has_year, path FROM cluster_metadata`)
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", errs.ErrIO)
	}
	defer rows.Close()

	out := map[int64]gutenberg.Metadata{}
	for rows.Next() {
		var m gutenberg.Metadata
		var year *int
		if err := rows.Scan(&m.BookID, &m.Title, &m.Author, &m.Language, &year, &m.HasYear, &m.Path); err != nil {
			return nil, fmt.Errorf("scanning metadata row: %w", errs.ErrIO)
		}
		if year != nil {
			m.Year = *year
		}
		out[m.BookID] = m
	}
	return out, rows.Err()
}

func (p *pgPersistence) SavePosting(ctx context.Context, term string, id int64) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO cluster_postings (term, book_id) VALUES ($1, $2)
		ON CONFLICT (term, book_id) DO NOTHING
	`, term, id)
	if err != nil {
		return fmt.Errorf("persisting posting %q/%d: %w", term, id, errs.ErrIO)
	}
	return nil
}

func (p *pgPersistence) LoadPostings(ctx context.Context) (map[string][]int64, error) {
	rows, err := p.db.Query(ctx, `SELECT term, book_id FROM cluster_postings`)
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", errs.ErrIO)
	}
	defer rows.Close()

	out := map[string][]int64{}
	for rows.Next() {
		var term string
		var id int64
		if err := rows.Scan(&term, &id); err != nil {
			return nil, fmt.Errorf("scanning posting row: %w", errs.ErrIO)
		}
		out[term] = append(out[term], id)
	}
	return out, rows.Err()
}

func (p *pgPersistence) Clear(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `TRUNCATE cluster_metadata, cluster_postings`)
	if err != nil {
		return fmt.Errorf("clearing cluster state: %w", errs.ErrIO)
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *pgPersistence) Close() {
	p.db.Close()
}
