package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/amishk599/postscout/internal/model"
)

// SQLiteSink appends posts to a SQLite table, one transaction per batch.
type SQLiteSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteSink opens (or creates) a SQLite database at dbPath and ensures the
// posts table exists.
func NewSQLiteSink(dbPath string, logger *slog.Logger) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS posts (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		url                  TEXT NOT NULL,
		content              TEXT NOT NULL,
		profile_name         TEXT NOT NULL DEFAULT '',
		hiring_post          INTEGER NULL,
		names_classification INTEGER NULL,
		saved_at             DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating posts table: %w", err)
	}

	return &SQLiteSink{db: db, logger: logger}, nil
}

// Append inserts posts in a single transaction. Any failure rolls the whole
// batch back and returns it unsaved.
func (s *SQLiteSink) Append(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	if len(posts) == 0 {
		s.logger.Warn("no posts provided for sqlite export")
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return posts, fmt.Errorf("%w: begin tx: %v", ErrPersist, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts
		(url, content, profile_name, hiring_post, names_classification)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return posts, fmt.Errorf("%w: prepare insert: %v", ErrPersist, err)
	}
	defer stmt.Close()

	for _, p := range posts {
		if _, err := stmt.ExecContext(ctx, p.URL, p.Content, p.ProfileName,
			nullLabel(p.HiringPost), nullLabel(p.NamesClassification)); err != nil {
			return posts, fmt.Errorf("%w: insert %s: %v", ErrPersist, p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return posts, fmt.Errorf("%w: commit: %v", ErrPersist, err)
	}
	s.logger.Info("saved posts", "count", len(posts))
	return nil, nil
}

// Load returns every stored post in insertion order.
func (s *SQLiteSink) Load(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, content, profile_name, hiring_post, names_classification
		FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		var hiring, names sql.NullInt64
		if err := rows.Scan(&p.URL, &p.Content, &p.ProfileName, &hiring, &names); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.HiringPost = labelFromNull(hiring)
		p.NamesClassification = labelFromNull(names)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func nullLabel(c *model.Classification) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

func labelFromNull(n sql.NullInt64) *model.Classification {
	if !n.Valid {
		return nil
	}
	c := model.Classification(n.Int64)
	return &c
}
