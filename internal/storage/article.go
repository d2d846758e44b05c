package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"presse/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

// PersistError wraps any database failure during the duplicate check or the
// bulk upsert. A failing batch fails as a whole for that cycle.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist (%s): %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type ArticlePostgresStorage struct {
	db *sqlx.DB
}

type dbArticle struct {
	ID            int64          `db:"id"`
	SourceID      int64          `db:"source_id"`
	Title         string         `db:"title"`
	Link          string         `db:"link"`
	Description   sql.NullString `db:"description"`
	Content       sql.NullString `db:"content"`
	Image         sql.NullString `db:"image"`
	Tags          pq.StringArray `db:"tags"`
	Language      string         `db:"language"`
	Creator       string         `db:"creator"`
	Categories    pq.StringArray `db:"categories"`
	SourceName    string         `db:"source_name"`
	SourceFavicon sql.NullString `db:"source_favicon"`
	Orientation   pq.StringArray `db:"orientation"`
	PublishedAt   time.Time      `db:"published_at"`
	CreatedAt     time.Time      `db:"created_at"`
}

func NewArticleStorage(db *sqlx.DB) *ArticlePostgresStorage {
	return &ArticlePostgresStorage{
		db: db,
	}
}

// Exists reports whether an article with the same title already came from
// the same source. This is the pre-persistence duplicate check; it is looser
// than the link uniqueness enforced by the upsert itself.
func (s *ArticlePostgresStorage) Exists(ctx context.Context, title string, sourceID int64) (bool, error) {
	conn, err := s.db.Connx(ctx)

	if err != nil {
		return false, &PersistError{Op: "duplicate check", Err: err}
	}

	defer conn.Close()

	var exists bool

	err = conn.GetContext(
		ctx,
		&exists,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE title = $1 AND source_id = $2);`,
		title,
		sourceID,
	)

	if err != nil {
		return false, &PersistError{Op: "duplicate check", Err: err}
	}

	return exists, nil
}

const articleColumns = `source_id, title, link, description, content, image, tags, language, creator,
		categories, source_name, source_favicon, orientation, published_at, created_at`

// UpsertBatch writes a batch of candidates in one statement, keyed by link:
// insert when absent, overwrite fields when present. When the batch itself
// carries the same link twice, the last candidate wins, matching the
// overwrite semantics a second statement would have had.
func (s *ArticlePostgresStorage) UpsertBatch(ctx context.Context, articles []model.Article) (model.UpsertResult, error) {
	if len(articles) == 0 {
		return model.UpsertResult{}, nil
	}

	articles = collapseByLink(articles)

	conn, err := s.db.Connx(ctx)

	if err != nil {
		return model.UpsertResult{}, &PersistError{Op: "bulk upsert", Err: err}
	}

	defer conn.Close()

	placeholders := make([]string, 0, len(articles))
	args := make([]any, 0, len(articles)*15)

	for i, article := range articles {
		base := i * 15
		row := make([]string, 15)

		for j := range row {
			row[j] = fmt.Sprintf("$%d", base+j+1)
		}

		placeholders = append(placeholders, "("+strings.Join(row, ", ")+")")
		args = append(args, articleArgs(article)...)
	}

	query := fmt.Sprintf(`INSERT INTO articles (%s)
		VALUES %s
		ON CONFLICT (link) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			image = EXCLUDED.image,
			tags = EXCLUDED.tags,
			language = EXCLUDED.language,
			creator = EXCLUDED.creator,
			categories = EXCLUDED.categories,
			source_name = EXCLUDED.source_name,
			source_favicon = EXCLUDED.source_favicon,
			orientation = EXCLUDED.orientation,
			published_at = EXCLUDED.published_at
		RETURNING (xmax = 0) AS inserted;`,
		articleColumns, strings.Join(placeholders, ", "))

	rows, err := conn.QueryxContext(ctx, query, args...)

	if err != nil {
		return model.UpsertResult{}, &PersistError{Op: "bulk upsert", Err: err}
	}

	defer rows.Close()

	var result model.UpsertResult

	for rows.Next() {
		var inserted bool

		if err := rows.Scan(&inserted); err != nil {
			return model.UpsertResult{}, &PersistError{Op: "bulk upsert", Err: err}
		}

		if inserted {
			result.Inserted++
		} else {
			result.Modified++
		}
	}

	if err := rows.Err(); err != nil {
		return model.UpsertResult{}, &PersistError{Op: "bulk upsert", Err: err}
	}

	return result, nil
}

// BySource returns the most recent articles of one source, newest first.
func (s *ArticlePostgresStorage) BySource(ctx context.Context, sourceID int64, limit uint64) ([]model.Article, error) {
	conn, err := s.db.Connx(ctx)

	if err != nil {
		return nil, &PersistError{Op: "select", Err: err}
	}

	defer conn.Close()

	var articles []dbArticle

	if err := conn.SelectContext(
		ctx,
		&articles,
		`SELECT * FROM articles WHERE source_id = $1 ORDER BY published_at DESC LIMIT $2;`,
		sourceID,
		limit,
	); err != nil {
		return nil, &PersistError{Op: "select", Err: err}
	}

	return lo.Map(articles, func(article dbArticle, _ int) model.Article {
		return model.Article{
			ID:            article.ID,
			SourceID:      article.SourceID,
			Title:         article.Title,
			Link:          article.Link,
			Description:   article.Description.String,
			Content:       article.Content.String,
			Image:         article.Image.String,
			Tags:          article.Tags,
			Language:      article.Language,
			Creator:       article.Creator,
			Categories:    article.Categories,
			SourceName:    article.SourceName,
			SourceFavicon: article.SourceFavicon.String,
			Orientation:   article.Orientation,
			PublishedAt:   article.PublishedAt,
			CreatedAt:     article.CreatedAt,
		}
	}), nil
}

// collapseByLink keeps the last candidate per link. Postgres rejects a
// statement that touches the same conflict key twice.
func collapseByLink(articles []model.Article) []model.Article {
	seen := make(map[string]int, len(articles))
	out := make([]model.Article, 0, len(articles))

	for _, article := range articles {
		if i, ok := seen[article.Link]; ok {
			out[i] = article
			continue
		}

		seen[article.Link] = len(out)
		out = append(out, article)
	}

	return out
}

// articleArgs lays out one row of bind arguments in articleColumns order.
// Optional text fields map to NULL when empty, mirroring how the row struct
// reads them back.
func articleArgs(article model.Article) []any {
	return []any{
		article.SourceID,
		article.Title,
		article.Link,
		nullable(article.Description),
		nullable(article.Content),
		nullable(article.Image),
		pq.Array(article.Tags),
		article.Language,
		article.Creator,
		pq.Array(article.Categories),
		article.SourceName,
		nullable(article.SourceFavicon),
		pq.Array(article.Orientation),
		article.PublishedAt,
		article.CreatedAt,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
