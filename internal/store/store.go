package store

import (
	"context"
	"time"

	"github.com/sells-group/door-pricing/internal/model"
)

// QuoteFilter specifies criteria for listing logged quotes.
type QuoteFilter struct {
	Category     string    `json:"category,omitempty"`
	Found        *bool     `json:"found,omitempty"`
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

const defaultQuoteLimit = 100

// Store defines the persistence interface for the pricing catalog.
type Store interface {
	// Catalog
	ListRecords(ctx context.Context, category string) ([]model.CatalogRecord, error)
	// UpsertRecords replaces a category: ids in records are written in order
	// and ids not in records are removed.
	UpsertRecords(ctx context.Context, category string, records []model.CatalogRecord) (int, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	// Quote log
	SaveQuote(ctx context.Context, q *model.QuoteLog) error
	ListQuotes(ctx context.Context, filter QuoteFilter) ([]model.QuoteLog, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
