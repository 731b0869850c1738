package repository

import (
	"context"

	"linkshort/internal/model"
)

// Store is the durable short code → URL table.
//
// Insert must enforce short code uniqueness atomically and return
// errors.ErrShortCodeExists on a duplicate. FindByCode and IncrementClicks
// return errors.ErrURLNotFound for unknown codes. Every other failure is an
// INTERNAL_ERROR.
type Store interface {
	Insert(ctx context.Context, originalURL, shortCode string) (*model.URLMapping, error)
	FindByCode(ctx context.Context, shortCode string) (*model.URLMapping, error)
	ExistsByCode(ctx context.Context, shortCode string) (bool, error)
	// ListAll returns every mapping ordered by id.
	ListAll(ctx context.Context) ([]model.URLMapping, error)
	// IncrementClicks adds one to clicks and returns the updated mapping.
	IncrementClicks(ctx context.Context, shortCode string) (*model.URLMapping, error)
	Ping(ctx context.Context) error
	Close() error
}
