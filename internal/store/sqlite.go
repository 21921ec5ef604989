package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/door-pricing/internal/attr"
	"github.com/sells-group/door-pricing/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS catalog_records (
	category   TEXT NOT NULL,
	id         TEXT NOT NULL,
	code       TEXT NOT NULL DEFAULT '',
	attributes TEXT NOT NULL DEFAULT '{}',
	position   INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (category, id)
);

CREATE TABLE IF NOT EXISTS quote_log (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	selection  TEXT NOT NULL,
	found      INTEGER NOT NULL DEFAULT 0,
	matched_id TEXT,
	total      TEXT NOT NULL DEFAULT '0',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_catalog_records_position ON catalog_records(category, position);
CREATE INDEX IF NOT EXISTS idx_quote_log_category ON quote_log(category);
CREATE INDEX IF NOT EXISTS idx_quote_log_created_at ON quote_log(created_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListRecords(ctx context.Context, category string) ([]model.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, attributes FROM catalog_records WHERE category = ? ORDER BY position, id`,
		category,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list records %s", category)
	}
	defer rows.Close()

	records := []model.CatalogRecord{}
	for rows.Next() {
		var rec model.CatalogRecord
		var attrsJSON string
		if err := rows.Scan(&rec.ID, &rec.Code, &attrsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec.Attributes = attr.FromJSON([]byte(attrsJSON))
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

// UpsertRecords replaces the category's records: existing ids are updated,
// new ids inserted and ids missing from records deleted, in one transaction.
// Record order is kept as the catalog position so repeated reads return
// import order.
func (s *SQLiteStore) UpsertRecords(ctx context.Context, category string, records []model.CatalogRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateRecords(category, records); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert records")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO catalog_records (category, id, code, attributes, position, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (category, id) DO UPDATE SET
			code = excluded.code,
			attributes = excluded.attributes,
			position = excluded.position,
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, rec := range records {
		attrsJSON, err := json.Marshal(rec.Attributes)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal attributes %s", rec.ID)
		}
		if _, err := stmt.ExecContext(ctx, category, rec.ID, rec.Code, string(attrsJSON), i, now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert record %s", rec.ID)
		}
	}

	// Every row written above carries now; older rows were not in records.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_records WHERE category = ? AND updated_at <> ?`, category, now,
	); err != nil {
		return 0, eris.Wrap(err, "sqlite: prune records")
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return len(records), nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM catalog_records GROUP BY category ORDER BY category`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list categories")
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Records); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		categories = append(categories, c)
	}
	return categories, eris.Wrap(rows.Err(), "sqlite: list categories iterate")
}

func (s *SQLiteStore) SaveQuote(ctx context.Context, q *model.QuoteLog) error {
	prepareQuoteLog(q)

	selJSON, err := json.Marshal(q.Selection)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal selection")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quote_log (id, category, selection, found, matched_id, total, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Category, string(selJSON), q.Found, nullString(q.MatchedID), q.Total.String(), q.CreatedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert quote")
}

func (s *SQLiteStore) ListQuotes(ctx context.Context, filter QuoteFilter) ([]model.QuoteLog, error) {
	query := `SELECT id, category, selection, found, matched_id, total, created_at FROM quote_log WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Found != nil {
		query += ` AND found = ?`
		args = append(args, *filter.Found)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQuoteLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list quotes")
	}
	defer rows.Close()

	quotes := []model.QuoteLog{}
	for rows.Next() {
		var q model.QuoteLog
		var selJSON, total string
		var matched sql.NullString
		if err := rows.Scan(&q.ID, &q.Category, &selJSON, &q.Found, &matched, &total, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quote")
		}
		if err := decodeQuoteLog(&q, []byte(selJSON), matched.String, total); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode quote")
		}
		quotes = append(quotes, q)
	}
	return quotes, eris.Wrap(rows.Err(), "sqlite: list quotes iterate")
}

// helpers

func validateRecords(category string, records []model.CatalogRecord) error {
	if category == "" {
		return eris.New("category is required")
	}
	for i, rec := range records {
		if rec.ID == "" {
			return eris.Errorf("record %d in %s has no id", i, category)
		}
	}
	return nil
}

func prepareQuoteLog(q *model.QuoteLog) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
}

func decodeQuoteLog(q *model.QuoteLog, selJSON []byte, matched, total string) error {
	if err := json.Unmarshal(selJSON, &q.Selection); err != nil {
		return eris.Wrap(err, "unmarshal selection")
	}
	q.MatchedID = matched
	d, err := decimal.NewFromString(total)
	if err != nil {
		return eris.Wrapf(err, "parse total %q", total)
	}
	q.Total = d
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
