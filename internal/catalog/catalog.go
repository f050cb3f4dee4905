// Package catalog is the Postgres-backed song library the pipeline draws
// from.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/earworm-scheduler/internal/db"
	"github.com/example/earworm-scheduler/internal/earworm"
)

// Entry is a stored song plus its bookkeeping columns.
type Entry struct {
	ID        int64
	Artist    string
	Title     string
	Snippet   string
	CreatedAt time.Time
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

// PickRandom returns one uniformly random song. An empty catalog, a query
// error, or a row with blank artist/title all surface as the source being
// unavailable: the run has nothing usable to work with either way.
func (r *Repo) PickRandom(ctx context.Context) (earworm.Song, error) {
	var s earworm.Song
	err := r.db.QueryRow(ctx, `
SELECT artist, title, earworm
FROM earworms
ORDER BY random()
LIMIT 1`).Scan(&s.Artist, &s.Title, &s.Snippet)
	if err != nil {
		if db.IsNotFound(err) {
			return earworm.Song{}, errors.Wrap(earworm.ErrSourceUnavailable, "catalog is empty")
		}
		return earworm.Song{}, errors.WithSecondaryError(earworm.ErrSourceUnavailable, err)
	}
	if strings.TrimSpace(s.Artist) == "" || strings.TrimSpace(s.Title) == "" {
		return earworm.Song{}, errors.Wrapf(earworm.ErrSourceUnavailable, "malformed catalog entry (artist=%q title=%q)", s.Artist, s.Title)
	}
	return s, nil
}

func (r *Repo) Add(ctx context.Context, artist, title, snippet string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO earworms(artist, title, earworm)
VALUES ($1,$2,$3)
RETURNING id`, artist, title, snippet).Scan(&id)
	return id, db.WrapNotFound(err)
}

func (r *Repo) Remove(ctx context.Context, id int64) error {
	return r.db.Exec(ctx, `DELETE FROM earworms WHERE id=$1`, id)
}

func (r *Repo) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, artist, title, earworm, created_at
FROM earworms
ORDER BY artist, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Artist, &e.Title, &e.Snippet, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM earworms`).Scan(&n)
	return n, err
}
