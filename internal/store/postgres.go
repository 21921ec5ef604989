package store

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"github.com/sells-group/door-pricing/internal/attr"
	"github.com/sells-group/door-pricing/internal/db"
	"github.com/sells-group/door-pricing/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var catalogColumns = []string{"category", "id", "code", "attributes", "position", "updated_at"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS catalog_records (
	category   TEXT NOT NULL,
	id         TEXT NOT NULL,
	code       TEXT NOT NULL DEFAULT '',
	attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
	position   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (category, id)
);

CREATE TABLE IF NOT EXISTS quote_log (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	category   TEXT NOT NULL,
	selection  JSONB NOT NULL,
	found      BOOLEAN NOT NULL DEFAULT false,
	matched_id TEXT,
	total      NUMERIC(14, 2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_catalog_records_position ON catalog_records(category, position);
CREATE INDEX IF NOT EXISTS idx_catalog_records_model ON catalog_records((attributes->>'model'));
CREATE INDEX IF NOT EXISTS idx_quote_log_category ON quote_log(category);
CREATE INDEX IF NOT EXISTS idx_quote_log_created_at ON quote_log(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, category string) ([]model.CatalogRecord, error) {
	query, args, err := psql.Select("id", "code", "attributes").
		From("catalog_records").
		Where(sq.Eq{"category": category}).
		OrderBy("position", "id").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list records")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list records %s", category)
	}
	defer rows.Close()

	records := []model.CatalogRecord{}
	for rows.Next() {
		var rec model.CatalogRecord
		var attrsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Code, &attrsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec.Attributes = attr.FromJSON(attrsJSON)
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

// UpsertRecords replaces the category's records through a COPY into a temp
// table: records are merged by id and ids missing from records are deleted.
// Record order is kept as the catalog position.
func (s *PostgresStore) UpsertRecords(ctx context.Context, category string, records []model.CatalogRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateRecords(category, records); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert records")
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		attrsJSON, err := json.Marshal(rec.Attributes)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal attributes %s", rec.ID)
		}
		rows = append(rows, []any{category, rec.ID, rec.Code, attrsJSON, int32(i), now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "catalog_records",
		Columns:      catalogColumns,
		ConflictKeys: []string{"category", "id"},
		PruneScope:   map[string]any{"category": category},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert records")
	}
	return int(n), nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	query, args, err := psql.Select("category", "COUNT(*)").
		From("catalog_records").
		GroupBy("category").
		OrderBy("category").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list categories")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list categories")
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		var n int64
		if err := rows.Scan(&c.Name, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category")
		}
		c.Records = int(n)
		categories = append(categories, c)
	}
	return categories, eris.Wrap(rows.Err(), "postgres: list categories iterate")
}

func (s *PostgresStore) SaveQuote(ctx context.Context, q *model.QuoteLog) error {
	prepareQuoteLog(q)

	selJSON, err := json.Marshal(q.Selection)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal selection")
	}

	var matched *string
	if q.MatchedID != "" {
		matched = &q.MatchedID
	}

	query, args, err := psql.Insert("quote_log").
		Columns("id", "category", "selection", "found", "matched_id", "total", "created_at").
		Values(q.ID, q.Category, selJSON, q.Found, matched, q.Total.String(), q.CreatedAt).
		ToSql()
	if err != nil {
		return eris.Wrap(err, "postgres: build insert quote")
	}

	_, err = s.pool.Exec(ctx, query, args...)
	return eris.Wrap(err, "postgres: insert quote")
}

func (s *PostgresStore) ListQuotes(ctx context.Context, filter QuoteFilter) ([]model.QuoteLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQuoteLimit
	}

	b := psql.Select("id", "category", "selection", "found", "matched_id", "total::text", "created_at").
		From("quote_log").
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit))
	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Found != nil {
		b = b.Where(sq.Eq{"found": *filter.Found})
	}
	if !filter.CreatedAfter.IsZero() {
		b = b.Where(sq.Gt{"created_at": filter.CreatedAfter})
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list quotes")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list quotes")
	}
	defer rows.Close()

	quotes := []model.QuoteLog{}
	for rows.Next() {
		var q model.QuoteLog
		var selJSON []byte
		var matched *string
		var total string
		if err := rows.Scan(&q.ID, &q.Category, &selJSON, &q.Found, &matched, &total, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quote")
		}
		var matchedID string
		if matched != nil {
			matchedID = *matched
		}
		if err := decodeQuoteLog(&q, selJSON, matchedID, total); err != nil {
			return nil, eris.Wrap(err, "postgres: decode quote")
		}
		quotes = append(quotes, q)
	}
	return quotes, eris.Wrap(rows.Err(), "postgres: list quotes iterate")
}
