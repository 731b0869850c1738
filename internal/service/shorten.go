package service

import (
	"context"
	"strings"

	"linkshort/internal/model"
	"linkshort/internal/util"
	apperrors "linkshort/pkg/errors"
)

// CreateShort normalizes original, picks a code not present in the store and
// inserts the mapping.
//
// Code selection retries on collisions without bound unless MaxAttempts is
// set. A duplicate reported by Insert (another request took the code between
// the check and the insert) fails the call as an internal error, unless
// RetryOnConflict is set.
func (s *Service) CreateShort(ctx context.Context, original string) (*model.URLMapping, error) {
	if strings.TrimSpace(original) == "" {
		return nil, apperrors.ErrInvalidURL
	}
	normalized := util.NormalizeURL(original)

	attempts := 0
	for {
		code, err := s.freeCode(ctx, &attempts)
		if err != nil {
			return nil, err
		}

		m, err := s.Repo.Insert(ctx, normalized, code)
		if err == nil {
			s.Logger.InfoContext(ctx, "short url created", "short_code", m.ShortCode, "original_url", m.OriginalURL)
			return m, nil
		}

		if apperrors.IsConflict(err) {
			if s.RetryOnConflict {
				s.Logger.WarnContext(ctx, "short code taken on insert, retrying", "short_code", code)
				continue
			}
			s.Logger.ErrorContext(ctx, "short code taken on insert", "short_code", code)
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "store short url")
		}

		s.Logger.ErrorContext(ctx, "store short url failed", "error", err)
		return nil, apperrors.Internal(err, "store short url")
	}
}

// freeCode generates codes until one is absent from the store. attempts is
// shared across calls from the same CreateShort so MaxAttempts bounds the
// whole request.
func (s *Service) freeCode(ctx context.Context, attempts *int) (string, error) {
	for {
		if s.MaxAttempts > 0 && *attempts >= s.MaxAttempts {
			s.Logger.ErrorContext(ctx, "no free short code", "attempts", *attempts)
			return "", apperrors.ErrCodeSpaceExhausted
		}
		*attempts++

		code := s.generate(s.ShortLen)
		exists, err := s.Repo.ExistsByCode(ctx, code)
		if err != nil {
			s.Logger.ErrorContext(ctx, "check short code failed", "error", err)
			return "", apperrors.Internal(err, "check short code")
		}
		if !exists {
			return code, nil
		}
		s.Logger.WarnContext(ctx, "short code collision", "short_code", code, "attempt", *attempts)
	}
}
