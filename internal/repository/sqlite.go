package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"linkshort/internal/model"
	apperrors "linkshort/pkg/errors"
)

const selectColumns = `SELECT id, original_url, short_code, created_at, clicks FROM urls`

// ensureDir creates the parent directory of the database file at path.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

// SQLiteStore keeps mappings in a single SQLite file.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path. The schema
// is expected to be migrated already.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, originalURL, shortCode string) (*model.URLMapping, error) {
	created := now()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO urls (original_url, short_code, created_at, clicks) VALUES (?, ?, ?, 0)`,
		originalURL, shortCode, created)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, apperrors.ErrShortCodeExists
		}
		return nil, apperrors.Internal(err, "insert url")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.Internal(err, "read inserted id")
	}

	return &model.URLMapping{
		ID: id, OriginalURL: originalURL, ShortCode: shortCode, CreatedAt: created, Clicks: 0,
	}, nil
}

func (s *SQLiteStore) FindByCode(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	m, err := scanMapping(s.DB.QueryRowContext(ctx, selectColumns+` WHERE short_code = ?`, shortCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrURLNotFound
		}
		return nil, apperrors.Internal(err, "find url")
	}
	return m, nil
}

func (s *SQLiteStore) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = ?)`, shortCode).Scan(&exists)
	if err != nil {
		return false, apperrors.Internal(err, "check short code")
	}
	return exists, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.URLMapping, error) {
	rows, err := s.DB.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, apperrors.Internal(err, "list urls")
	}
	defer rows.Close()

	res := make([]model.URLMapping, 0)
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, apperrors.Internal(err, "scan url")
		}
		res = append(res, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err, "list urls")
	}
	return res, nil
}

// IncrementClicks runs the update and the read-back in one immediate
// transaction so the returned row includes exactly this increment.
func (s *SQLiteStore) IncrementClicks(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal(err, "begin increment")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE urls SET clicks = clicks + 1 WHERE short_code = ?`, shortCode)
	if err != nil {
		return nil, apperrors.Internal(err, "increment clicks")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.Internal(err, "increment clicks")
	}
	if n == 0 {
		return nil, apperrors.ErrURLNotFound
	}

	m, err := scanMapping(tx.QueryRowContext(ctx, selectColumns+` WHERE short_code = ?`, shortCode))
	if err != nil {
		return nil, apperrors.Internal(err, "read incremented url")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(err, "commit increment")
	}
	return m, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (*model.URLMapping, error) {
	var m model.URLMapping
	if err := row.Scan(&m.ID, &m.OriginalURL, &m.ShortCode, &m.CreatedAt, &m.Clicks); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// now is the creation timestamp, truncated to what every backend can store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
