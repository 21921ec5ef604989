// Package quote wires the pricing engine to the catalog store. It loads the
// candidate pools for a category, runs the engine, logs accessory warnings
// and optionally records every quote.
package quote

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/door-pricing/internal/config"
	"github.com/sells-group/door-pricing/internal/engine"
	"github.com/sells-group/door-pricing/internal/model"
	"github.com/sells-group/door-pricing/internal/store"
)

const defaultConcurrency = 4

// Service answers quote, diagnose and option requests against a store.
type Service struct {
	store        store.Store
	catalog      config.CatalogConfig
	recordQuotes bool
	concurrency  int
	now          func() time.Time
}

// New creates a Service reading the pool categories and batch settings from
// cfg.
func New(st store.Store, cfg *config.Config) *Service {
	concurrency := cfg.Export.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		store:        st,
		catalog:      cfg.Catalog,
		recordQuotes: cfg.Store.RecordQuotes,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// DoorCategory resolves an empty category to the configured default.
func (s *Service) DoorCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return s.catalog.DoorCategory
}

// Categories lists the catalog categories held by the store.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	return cats, eris.Wrap(err, "quote: list categories")
}

// Pools loads the door pool for category and every configured accessory
// pool concurrently.
func (s *Service) Pools(ctx context.Context, category string) (engine.Pools, error) {
	var p engine.Pools

	g, gctx := errgroup.WithContext(ctx)
	load := func(dst *[]model.CatalogRecord, cat string) {
		if cat == "" {
			*dst = []model.CatalogRecord{}
			return
		}
		g.Go(func() error {
			recs, err := s.store.ListRecords(gctx, cat)
			if err != nil {
				return eris.Wrapf(err, "quote: load %s", cat)
			}
			*dst = recs
			return nil
		})
	}
	load(&p.Doors, s.DoorCategory(category))
	load(&p.HardwareKits, s.catalog.KitCategory)
	load(&p.Handles, s.catalog.HandleCategory)
	load(&p.Limiters, s.catalog.LimiterCategory)
	load(&p.Options, s.catalog.OptionCategory)

	if err := g.Wait(); err != nil {
		return engine.Pools{}, err
	}
	return p, nil
}

// Quote resolves and prices one selection.
func (s *Service) Quote(ctx context.Context, category string, in model.SelectionInput) (*model.Quote, error) {
	sel, err := model.ParseSelection(in)
	if err != nil {
		return nil, err
	}

	category = s.DoorCategory(category)
	pools, err := s.Pools(ctx, category)
	if err != nil {
		return nil, err
	}

	q, err := engine.Quote(pools, sel)
	if err != nil {
		return nil, err
	}
	s.observe(ctx, category, in, q)
	return q, nil
}

// Diagnose reports the candidate count around every pipeline stage.
func (s *Service) Diagnose(ctx context.Context, category string, in model.SelectionInput) ([]model.FilterStep, error) {
	sel, err := model.ParseSelection(in)
	if err != nil {
		return nil, err
	}

	category = s.DoorCategory(category)
	doors, err := s.store.ListRecords(ctx, category)
	if err != nil {
		return nil, eris.Wrapf(err, "quote: load %s", category)
	}

	steps := engine.Diagnose(doors, sel)
	if step, ok := engine.CollapsedAt(steps); ok {
		zap.L().Debug("quote: selection collapsed",
			zap.String("category", category),
			zap.String("model", sel.ModelCode),
			zap.String("stage", step.Stage),
			zap.Int("before", step.Before),
		)
	}
	return steps, nil
}

// Options returns the values still reachable for every dimension.
func (s *Service) Options(ctx context.Context, category string, in model.SelectionInput) (model.OptionSet, error) {
	sel, err := model.ParseSelection(in)
	if err != nil {
		return model.OptionSet{}, err
	}

	category = s.DoorCategory(category)
	doors, err := s.store.ListRecords(ctx, category)
	if err != nil {
		return model.OptionSet{}, eris.Wrapf(err, "quote: load %s", category)
	}
	return engine.Options(doors, sel)
}

// MatchLines quotes every order line. Results keep input order. A line whose
// selection is invalid carries the reason in LineResult.Error; a storage
// failure aborts the whole batch.
func (s *Service) MatchLines(ctx context.Context, lines []model.OrderLine) ([]model.LineResult, error) {
	results := make([]model.LineResult, len(lines))
	if len(lines) == 0 {
		return results, nil
	}

	categories := lo.Uniq(lo.Map(lines, func(l model.OrderLine, _ int) string {
		return s.DoorCategory(l.Category)
	}))
	pools := make(map[string]engine.Pools, len(categories))
	for _, cat := range categories {
		p, err := s.Pools(ctx, cat)
		if err != nil {
			return nil, err
		}
		pools[cat] = p
	}

	zap.L().Info("quote: matching order lines",
		zap.Int("lines", len(lines)),
		zap.Strings("categories", categories),
		zap.Int("concurrency", s.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var found, missed, failed atomic.Int64
	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			category := s.DoorCategory(line.Category)
			results[i].Line = line
			results[i].Line.Category = category

			sel, err := model.ParseSelection(line.Selection)
			if err != nil {
				failed.Add(1)
				results[i].Error = err.Error()
				zap.L().Warn("quote: invalid order line", zap.String("ref", line.Ref), zap.Error(err))
				return nil
			}
			q, err := engine.Quote(pools[category], sel)
			if err != nil {
				failed.Add(1)
				results[i].Error = err.Error()
				return nil
			}
			if q.Found {
				found.Add(1)
			} else {
				missed.Add(1)
			}
			results[i].Quote = q
			s.observe(gctx, category, line.Selection, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "quote: match lines")
	}

	zap.L().Info("quote: order lines matched",
		zap.Int64("found", found.Load()),
		zap.Int64("not_found", missed.Load()),
		zap.Int64("invalid", failed.Load()),
	)
	return results, nil
}

// observe logs accessory warnings and records the quote when enabled. A
// failure to record is logged, never returned.
func (s *Service) observe(ctx context.Context, category string, in model.SelectionInput, q *model.Quote) {
	for _, w := range q.Warnings {
		zap.L().Warn("quote: accessory unavailable",
			zap.String("category", category),
			zap.String("slot", w.Slot),
			zap.String("id", w.ID),
		)
	}
	if !s.recordQuotes {
		return
	}

	entry := &model.QuoteLog{
		Category:  category,
		Selection: in,
		Found:     q.Found,
		MatchedID: q.MatchedRecordID,
		Total:     q.Breakdown.Total,
	}
	if err := s.store.SaveQuote(ctx, entry); err != nil {
		zap.L().Error("quote: record quote", zap.String("category", category), zap.Error(err))
	}
}

// History lists recorded quotes, newest first.
func (s *Service) History(ctx context.Context, filter store.QuoteFilter) ([]model.QuoteLog, error) {
	quotes, err := s.store.ListQuotes(ctx, filter)
	return quotes, eris.Wrap(err, "quote: list history")
}
