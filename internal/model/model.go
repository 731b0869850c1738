package model

import "time"

// URLMapping is one persisted short code → original URL row.
// ShortCode and CreatedAt never change after creation; Clicks only grows.
type URLMapping struct {
	ID          int64     `db:"id" json:"id"`
	OriginalURL string    `db:"original_url" json:"original_url"`
	ShortCode   string    `db:"short_code" json:"short_code"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Clicks      int64     `db:"clicks" json:"clicks"`
}
