package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkshort/internal/model"
	apperrors "linkshort/pkg/errors"
)

// SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore keeps mappings in the urls table of a Postgres database.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn. Zero maxConns/minConns keep the pgx defaults.
func OpenPostgres(ctx context.Context, dsn string, maxConns, minConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, originalURL, shortCode string) (*model.URLMapping, error) {
	created := now()
	var id int64
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO urls (original_url, short_code, created_at, clicks) VALUES ($1, $2, $3, 0) RETURNING id`,
		originalURL, shortCode, created).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperrors.ErrShortCodeExists
		}
		return nil, apperrors.Internal(err, "insert url")
	}

	return &model.URLMapping{
		ID: id, OriginalURL: originalURL, ShortCode: shortCode, CreatedAt: created, Clicks: 0,
	}, nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	m, err := scanMapping(s.Pool.QueryRow(ctx, selectColumns+` WHERE short_code = $1`, shortCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrURLNotFound
		}
		return nil, apperrors.Internal(err, "find url")
	}
	return m, nil
}

func (s *PostgresStore) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)`, shortCode).Scan(&exists)
	if err != nil {
		return false, apperrors.Internal(err, "check short code")
	}
	return exists, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]model.URLMapping, error) {
	rows, err := s.Pool.Query(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, apperrors.Internal(err, "list urls")
	}

	res, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.URLMapping])
	if err != nil {
		return nil, apperrors.Internal(err, "scan urls")
	}
	for i := range res {
		res[i].CreatedAt = res[i].CreatedAt.UTC()
	}
	return res, nil
}

// IncrementClicks is a single UPDATE ... RETURNING, atomic at row level.
func (s *PostgresStore) IncrementClicks(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	m, err := scanMapping(s.Pool.QueryRow(ctx, `
		UPDATE urls
		SET clicks = clicks + 1
		WHERE short_code = $1
		RETURNING id, original_url, short_code, created_at, clicks`, shortCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrURLNotFound
		}
		return nil, apperrors.Internal(err, "increment clicks")
	}
	return m, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}
