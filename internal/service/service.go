package service

import (
	"context"
	"log/slog"

	"linkshort/internal/model"
	"linkshort/internal/repository"
	"linkshort/internal/util"
	apperrors "linkshort/pkg/errors"
)

// Options tune short code allocation.
type Options struct {
	// ShortLen is the generated code length (util.DefaultCodeLength when zero).
	ShortLen int
	// MaxAttempts caps the codes tried per CreateShort call; zero means no cap.
	MaxAttempts int
	// RetryOnConflict picks a new code when Insert reports a duplicate instead
	// of failing the request.
	RetryOnConflict bool
}

// Service implements shortening, listing and redirect resolution over a Store.
type Service struct {
	Repo            repository.Store
	Logger          *slog.Logger
	ShortLen        int
	MaxAttempts     int
	RetryOnConflict bool

	generate func(length int) string
}

func NewService(r repository.Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShortLen <= 0 {
		opts.ShortLen = util.DefaultCodeLength
	}
	return &Service{
		Repo:            r,
		Logger:          logger.With("component", "service"),
		ShortLen:        opts.ShortLen,
		MaxAttempts:     opts.MaxAttempts,
		RetryOnConflict: opts.RetryOnConflict,
		generate:        util.GenerateShortCode,
	}
}

// List returns every mapping. No ordering is promised beyond what the store does.
func (s *Service) List(ctx context.Context) ([]model.URLMapping, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		s.Logger.ErrorContext(ctx, "list urls failed", "error", err)
		return nil, apperrors.Internal(err, "list urls")
	}
	return list, nil
}

// Lookup returns the mapping for code without counting a click.
func (s *Service) Lookup(ctx context.Context, code string) (*model.URLMapping, error) {
	if !util.IsValidShortCode(code) {
		return nil, apperrors.ErrURLNotFound
	}
	return s.Repo.FindByCode(ctx, code)
}

// Healthy reports whether the store answers.
func (s *Service) Healthy(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}
