package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/orgkeeper/internal/client/client"
	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resources"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/resourcetypes"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TypeCache holds the supported resource types of the current run.
type TypeCache struct {
	mu    sync.RWMutex
	types map[uuid.UUID]models.ResourceType
}

func NewTypeCache() *TypeCache {
	return &TypeCache{types: map[uuid.UUID]models.ResourceType{}}
}

// Replace swaps the whole cache content.
func (c *TypeCache) Replace(types []models.ResourceType) {
	m := make(map[uuid.UUID]models.ResourceType, len(types))
	for _, t := range types {
		m[t.ID] = t
	}
	c.mu.Lock()
	c.types = m
	c.mu.Unlock()
}

func (c *TypeCache) Get(id uuid.UUID) (models.ResourceType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[id]
	return t, ok
}

func (c *TypeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// IngestionConfig are the knobs of a resource sync.
type IngestionConfig struct {
	AllowConcurrentPageFetch bool
	MaxConcurrentPages       int
	MetadataEnabled          bool
}

// IngestionReport counts what one run did.
type IngestionReport struct {
	Pages   int
	Stored  int
	Skipped int
	Deleted int
}

// IngestionService pulls every resource page into the local store.
//
// Contract:
//   - Run: refresh the type catalog, mark stored resources, fetch and store
//     all pages, then delete whatever the listing no longer contains.
//   - A failed page fetch aborts the run and leaves the mark in place; the
//     next run re-marks, so nothing is lost.
//   - A cancelled run clears the mark, deletes nothing and returns
//     common.ErrCancelled.
//   - Invalid items are skipped one by one and never fail the run.
type IngestionService interface {
	Run(ctx context.Context, pageSize int) (IngestionReport, error)
}

type ingestionService struct {
	client client.Client
	codec  MetadataCodec
	exec   *dbx.Executor
	types  *TypeCache
	cfg    IngestionConfig
	log    logging.Logger
}

func NewIngestionService(client client.Client, codec MetadataCodec, exec *dbx.Executor, types *TypeCache, cfg IngestionConfig, log logging.Logger) IngestionService {
	if cfg.MaxConcurrentPages <= 0 {
		cfg.MaxConcurrentPages = 4
	}
	return &ingestionService{
		client: client,
		codec:  codec,
		exec:   exec,
		types:  types,
		cfg:    cfg,
		log:    log.With("module", "ingestion"),
	}
}

type pageStats struct {
	pages, stored, skipped atomic.Int64
}

func (s *ingestionService) Run(ctx context.Context, pageSize int) (IngestionReport, error) {
	if pageSize <= 0 {
		return IngestionReport{}, fmt.Errorf("invalid page size %d", pageSize)
	}

	if err := s.refreshTypes(ctx); err != nil {
		if ctx.Err() != nil {
			return IngestionReport{}, fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
		}
		return IngestionReport{}, err
	}

	err := s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := resources.NewSQLiteRepository(tx).MarkAwaitingUpdate(ctx)
		return err
	})
	if err != nil {
		return IngestionReport{}, s.fail(ctx, fmt.Errorf("mark resources: %w", err))
	}

	var stats pageStats
	if err := s.fetchAll(ctx, pageSize, &stats); err != nil {
		return stats.report(0), s.fail(ctx, err)
	}

	var deleted int64
	err = s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := resources.NewSQLiteRepository(tx)
		n, err := repo.DeleteAwaitingUpdate(ctx)
		if err != nil {
			return err
		}
		deleted = n
		if err := repo.ClearAwaitingUpdate(ctx); err != nil {
			return err
		}
		_, err = repo.PurgeUnusedTags(ctx)
		return err
	})
	if err != nil {
		return stats.report(0), s.fail(ctx, fmt.Errorf("cleanup: %w", err))
	}

	report := stats.report(int(deleted))
	s.log.Info(ctx, "resources synced",
		"pages", report.Pages, "stored", report.Stored, "skipped", report.Skipped, "deleted", report.Deleted)
	return report, nil
}

func (p *pageStats) report(deleted int) IngestionReport {
	return IngestionReport{
		Pages:   int(p.pages.Load()),
		Stored:  int(p.stored.Load()),
		Skipped: int(p.skipped.Load()),
		Deleted: deleted,
	}
}

// fail turns an aborted run into its final error. A cancelled run gets its
// mark cleared on a context that outlives the cancellation.
func (s *ingestionService) fail(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}

	clearCtx := context.WithoutCancel(ctx)
	cerr := s.exec.Do(clearCtx, func(ctx context.Context, tx dbx.DBTX) error {
		return resources.NewSQLiteRepository(tx).ClearAwaitingUpdate(ctx)
	})
	if cerr != nil {
		s.log.Error(clearCtx, "failed to clear awaiting update", "error", cerr)
	}
	return fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
}

func (s *ingestionService) refreshTypes(ctx context.Context) error {
	all, err := s.client.FetchResourceTypes(ctx)
	if err != nil {
		return fmt.Errorf("fetch resource types: %w", err)
	}

	supported := make([]models.ResourceType, 0, len(all))
	for _, t := range all {
		if !models.IsSupportedSlug(t.Slug, s.cfg.MetadataEnabled) {
			s.log.Debug(ctx, "resource type not supported", "slug", t.Slug)
			continue
		}
		t.Supported = true
		supported = append(supported, t)
	}

	err = s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return resourcetypes.NewSQLiteRepository(tx).ReplaceAll(ctx, supported)
	})
	if err != nil {
		return fmt.Errorf("store resource types: %w", err)
	}
	s.types.Replace(supported)
	return nil
}

func (s *ingestionService) fetchAll(ctx context.Context, pageSize int, stats *pageStats) error {
	first, err := s.client.FetchResources(ctx, 1, pageSize)
	if err != nil {
		return fmt.Errorf("fetch page 1: %w", err)
	}

	if !s.cfg.AllowConcurrentPageFetch || first.TotalPages <= 1 {
		if err := s.processPage(ctx, first, stats); err != nil {
			return err
		}
		for p := 2; p <= first.TotalPages; p++ {
			if err := s.fetchAndProcess(ctx, p, pageSize, stats); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentPages)
	g.Go(func() error { return s.processPage(gctx, first, stats) })
	for p := 2; p <= first.TotalPages; p++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error { return s.fetchAndProcess(gctx, p, pageSize, stats) })
	}
	return g.Wait()
}

func (s *ingestionService) fetchAndProcess(ctx context.Context, page, pageSize int, stats *pageStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.client.FetchResources(ctx, page, pageSize)
	if err != nil {
		return fmt.Errorf("fetch page %d: %w", page, err)
	}
	return s.processPage(ctx, res, stats)
}

// processPage filters and decodes one page and stores its accepted items in
// a single transaction.
func (s *ingestionService) processPage(ctx context.Context, page *models.Page[models.ResourceRecord], stats *pageStats) error {
	accepted := make([]models.Resource, 0, len(page.Items))
	skipped := 0

	for _, rec := range page.Items {
		rt, ok := s.types.Get(rec.ResourceTypeID)
		if !ok {
			s.log.Debug(ctx, "resource dropped", "id", rec.ID, "reason", common.ErrUnsupportedType)
			skipped++
			continue
		}

		md, err := s.codec.Decode(ctx, rec)
		if err != nil {
			s.log.Warn(ctx, "resource skipped", "id", rec.ID, "error", err)
			skipped++
			continue
		}

		if err := ValidateResourceSchema(rt.Definition.Resource, md); err != nil {
			s.log.Warn(ctx, "resource skipped", "id", rec.ID, "type", rt.Slug, "error", err)
			skipped++
			continue
		}

		accepted = append(accepted, models.ResourceFromRecord(rec, md))
	}

	if len(accepted) > 0 {
		err := s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			repo := resources.NewSQLiteRepository(tx)
			for _, res := range accepted {
				if err := repo.Upsert(ctx, res); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("store page %d: %w", page.Page, err)
		}
	}

	stats.pages.Add(1)
	stats.stored.Add(int64(len(accepted)))
	stats.skipped.Add(int64(skipped))
	s.log.Debug(ctx, "page stored", "page", page.Page, "stored", len(accepted), "skipped", skipped)
	return nil
}
