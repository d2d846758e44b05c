package storage

import (
	"context"
	"database/sql"
	"time"

	"presse/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

// SourcePostgresStorage reads the source registry and writes health fields.
// Content and ownership fields of a source are never mutated here.
type SourcePostgresStorage struct {
	db *sqlx.DB
}

type dbSource struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	FeedURL       string         `db:"feed_url"`
	Favicon       sql.NullString `db:"favicon"`
	Orientation   pq.StringArray `db:"orientation"`
	Categories    pq.StringArray `db:"categories"`
	LastFetchedAt sql.NullTime   `db:"last_fetched_at"`
	FetchSuccess  sql.NullBool   `db:"fetch_success"`
	FetchMessage  sql.NullString `db:"fetch_message"`
	FetchStatusAt sql.NullTime   `db:"fetch_status_at"`
	CreatedAt     time.Time      `db:"created_at"`
}

func NewSourceStorage(db *sqlx.DB) *SourcePostgresStorage {
	return &SourcePostgresStorage{
		db: db,
	}
}

func (s *SourcePostgresStorage) Sources(ctx context.Context) ([]model.Source, error) {
	conn, err := s.db.Connx(ctx)

	if err != nil {
		return nil, err
	}

	defer conn.Close()

	var sources []dbSource

	err = conn.SelectContext(ctx, &sources, `SELECT * FROM sources;`)

	if err != nil {
		return nil, err
	}

	return lo.Map(sources, func(source dbSource, _ int) model.Source { return sourceFromRow(source) }), nil
}

// UpdateHealth records the outcome of one fetch attempt. It runs after every
// attempt regardless of outcome, so a source going quiet stays visible.
func (s *SourcePostgresStorage) UpdateHealth(ctx context.Context, id int64, status model.FetchStatus) error {
	conn, err := s.db.Connx(ctx)

	if err != nil {
		return err
	}

	defer conn.Close()

	_, execErr := conn.ExecContext(
		ctx,
		`UPDATE sources
			SET last_fetched_at = $1, fetch_success = $2, fetch_message = $3, fetch_status_at = $4
			WHERE id = $5;`,
		status.Timestamp,
		status.Success,
		status.Message,
		status.Timestamp,
		id,
	)

	if execErr != nil {
		return execErr
	}

	return nil
}

func sourceFromRow(source dbSource) model.Source {
	out := model.Source{
		ID:          source.ID,
		Name:        source.Name,
		FeedURL:     source.FeedURL,
		Favicon:     source.Favicon.String,
		Orientation: source.Orientation,
		Categories:  source.Categories,
		CreatedAt:   source.CreatedAt,
	}

	if source.LastFetchedAt.Valid {
		t := source.LastFetchedAt.Time
		out.LastFetchedAt = &t
	}

	if source.FetchStatusAt.Valid {
		out.FetchStatus = model.FetchStatus{
			Success:   source.FetchSuccess.Bool,
			Message:   source.FetchMessage.String,
			Timestamp: source.FetchStatusAt.Time,
		}
	}

	return out
}
