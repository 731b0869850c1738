package service

import (
	"context"

	"linkshort/internal/util"
	apperrors "linkshort/pkg/errors"
)

// Resolve returns the original URL for code and counts one click.
// Unknown codes yield errors.ErrURLNotFound.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	if !util.IsValidShortCode(code) {
		return "", apperrors.ErrURLNotFound
	}

	m, err := s.Repo.FindByCode(ctx, code)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", err
		}
		s.Logger.ErrorContext(ctx, "find url failed", "short_code", code, "error", err)
		return "", apperrors.Internal(err, "find url")
	}

	updated, err := s.Repo.IncrementClicks(ctx, code)
	if err != nil {
		s.Logger.ErrorContext(ctx, "increment clicks failed", "short_code", code, "error", err)
		return "", apperrors.Internal(err, "increment clicks")
	}

	s.Logger.DebugContext(ctx, "redirect", "short_code", code, "clicks", updated.Clicks)
	return m.OriginalURL, nil
}
