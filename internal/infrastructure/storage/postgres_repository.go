package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/ports"
)

// PostgresStore reads the organization's recent articles for deduplication.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleStore = (*PostgresStore)(nil)

// Open connects to the articles database using the given DSN.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// RecentArticles lists articles created for the domain since the given time.
func (s *PostgresStore) RecentArticles(ctx context.Context, domainID string, since time.Time) ([]domain.StoredArticle, error) {
	if s.db == nil {
		return nil, fmt.Errorf("article store is not connected")
	}

	query, args, err := s.builder.
		Select("id", "title", "source_url", "created_at").
		From("articles").
		Where(sq.Eq{"app": domainID}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}

	var articles []domain.StoredArticle
	for rows.Next() {
		var a domain.StoredArticle
		var url sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &url, &a.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.URL = url.String
		articles = append(articles, a)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return articles, nil
}
