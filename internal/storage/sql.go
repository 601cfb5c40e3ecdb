package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/motoroverpropage/motorover.in/internal/config"
)

// SQLWriter mirrors crawled pages into a relational table.
type SQLWriter struct {
	db          *sql.DB
	autoMigrate bool
}

// NewSQLWriter opens the database described by cfg, creating it and the
// schema when configured to.
func NewSQLWriter(ctx context.Context, cfg config.SQLConfig) (*SQLWriter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("sql config missing driver or dsn")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		if !cfg.CreateIfMissing || !shouldAttemptCreateDatabase(cfg.Driver, err) {
			return nil, fmt.Errorf("ping sql connection: %w", err)
		}
		if err := createDatabase(pingCtx, cfg); err != nil {
			return nil, err
		}
		db, err = sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sql connection: %w", err)
		}
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping sql connection: %w", err)
		}
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}

	writer := &SQLWriter{db: db, autoMigrate: cfg.AutoMigrate}
	if cfg.AutoMigrate {
		if err := writer.ensureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return writer, nil
}

// SavePage upserts rec into the site_pages table.
func (s *SQLWriter) SavePage(ctx context.Context, rec PageRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.upsertPage(ctx, rec)
	if err == nil {
		return nil
	}
	if !s.autoMigrate || !isUndefinedTableErr(err) {
		return fmt.Errorf("insert page: %w", err)
	}
	if schemaErr := s.ensureSchema(ctx); schemaErr != nil {
		return fmt.Errorf("ensure schema: %w", schemaErr)
	}
	if retryErr := s.upsertPage(ctx, rec); retryErr != nil {
		return fmt.Errorf("insert page: %w", retryErr)
	}
	return nil
}

const upsertPageQuery = `
        INSERT INTO site_pages (url, final_url, depth, fetched_at, status_code, slug, title, page)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (url) DO UPDATE SET
            final_url = EXCLUDED.final_url,
            depth = EXCLUDED.depth,
            fetched_at = EXCLUDED.fetched_at,
            status_code = EXCLUDED.status_code,
            slug = EXCLUDED.slug,
            title = EXCLUDED.title,
            page = EXCLUDED.page
    `

func (s *SQLWriter) upsertPage(ctx context.Context, rec PageRecord) error {
	_, err := s.db.ExecContext(ctx, upsertPageQuery,
		rec.URL,
		rec.FinalURL,
		rec.Depth,
		rec.FetchedAt,
		rec.StatusCode,
		rec.Slug,
		rec.Title,
		string(rec.Page),
	)
	return err
}

// Close closes the underlying DB connection.
func (s *SQLWriter) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS site_pages (
	    url TEXT PRIMARY KEY,
	    final_url TEXT,
	    depth INT,
	    fetched_at TIMESTAMPTZ,
	    status_code INT,
	    slug TEXT,
	    title TEXT,
	    page JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_site_pages_slug ON site_pages (slug)`,
}

func (s *SQLWriter) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil || !s.autoMigrate {
		return nil
	}
	if ctx == nil || ctx.Err() != nil {
		ctx = context.Background()
	}
	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(schemaCtx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func shouldAttemptCreateDatabase(driver string, err error) bool {
	if !strings.EqualFold(driver, "postgres") {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "3D000"
	}
	return strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

// adminDSN points dsn at the maintenance database and returns the target name.
func adminDSN(dsn string) (string, string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", "", fmt.Errorf("parse dsn: %w", err)
	}
	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return "", "", errors.New("dsn missing database name")
	}
	if strings.EqualFold(dbName, "postgres") {
		return "", "", fmt.Errorf("target database %q cannot be auto-created", dbName)
	}
	parsed.Path = "/postgres"
	return parsed.String(), dbName, nil
}

func createDatabase(ctx context.Context, cfg config.SQLConfig) error {
	admin, dbName, err := adminDSN(cfg.DSN)
	if err != nil {
		return err
	}
	adminDB, err := sql.Open(cfg.Driver, admin)
	if err != nil {
		return fmt.Errorf("connect admin database: %w", err)
	}
	defer adminDB.Close()
	if err := adminDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping admin database: %w", err)
	}
	stmt := fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))
	if _, err := adminDB.ExecContext(ctx, stmt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	return nil
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist")
}
