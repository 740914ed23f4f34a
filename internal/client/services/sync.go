package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"golang.org/x/sync/singleflight"
)

type SyncConfig struct {
	FoldersEnabled bool
	PageSize       int
}

// SyncService runs the full refresh: users, groups, folders, resources.
//
// Contract:
//   - Refresh: join the running refresh or start one. All callers receive
//     the same result. A caller whose ctx ends stops waiting but does not
//     stop the run; use Cancel for that.
//   - Cancel: cancel the running refresh, if any. A Refresh after Cancel
//     starts a new run even while the cancelled one is still unwinding.
//   - Subscribe: receive one SyncEvent per successful refresh.
//   - LastSync: completion time of the last successful refresh.
type SyncService interface {
	Refresh(ctx context.Context) error
	Cancel()
	Subscribe() (<-chan models.SyncEvent, func())
	LastSync(ctx context.Context) (time.Time, error)
}

type syncService struct {
	directory DirectoryService
	folders   FolderService
	ingestion IngestionService
	exec      *dbx.Executor
	cfg       SyncConfig
	log       logging.Logger
	now       func() time.Time

	flight singleflight.Group

	// mu guards the current run. gen names its singleflight key, so a
	// Refresh after Cancel never joins the cancelled run.
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current func() (any, error)

	subsMu sync.Mutex
	subs   map[int]chan models.SyncEvent
	nextID int
}

func NewSyncService(directory DirectoryService, folders FolderService, ingestion IngestionService, exec *dbx.Executor, cfg SyncConfig, log logging.Logger) SyncService {
	return &syncService{
		directory: directory,
		folders:   folders,
		ingestion: ingestion,
		exec:      exec,
		cfg:       cfg,
		log:       log.With("module", "sync"),
		now:       time.Now,
		subs:      map[int]chan models.SyncEvent{},
	}
}

func (s *syncService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.gen++
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		gen := s.gen
		s.cancel = cancel
		s.current = func() (any, error) { return nil, s.run(runCtx, gen) }
	}
	// s.cancel is cleared inside the run, so while it is set the key is
	// still in flight and this call joins it.
	ch := s.flight.DoChan(flightKey(s.gen), s.current)
	s.mu.Unlock()

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
	}
}

func (s *syncService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func flightKey(gen uint64) string {
	return fmt.Sprintf("refresh-%d", gen)
}

type syncStep struct {
	name string
	run  func(ctx context.Context) error
}

func (s *syncService) steps() []syncStep {
	steps := []syncStep{
		{"users", func(ctx context.Context) error {
			_, err := s.directory.RefreshUsers(ctx)
			return err
		}},
		{"groups", func(ctx context.Context) error {
			_, err := s.directory.RefreshGroups(ctx)
			return err
		}},
	}
	if s.cfg.FoldersEnabled {
		steps = append(steps, syncStep{"folders", func(ctx context.Context) error {
			res, err := s.folders.Refresh(ctx)
			if err == nil && res.Excluded > 0 {
				s.log.Warn(ctx, "folders excluded from sync", "count", res.Excluded)
			}
			return err
		}})
	}
	return append(steps, syncStep{"resources", func(ctx context.Context) error {
		_, err := s.ingestion.Run(ctx, s.cfg.PageSize)
		return err
	}})
}

func (s *syncService) run(ctx context.Context, gen uint64) error {
	defer func() {
		s.mu.Lock()
		if s.gen == gen && s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return s.stepFailed(ctx, "start", err)
	}

	started := s.now()
	for _, step := range s.steps() {
		if err := step.run(ctx); err != nil {
			return s.stepFailed(ctx, step.name, err)
		}
	}

	completed := s.now().UTC()
	err := s.exec.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SetTime(ctx, metadata.KeyLastSync, completed)
	})
	if err != nil {
		return s.stepFailed(ctx, "finish", err)
	}

	s.log.Info(ctx, "sync completed", "duration", completed.Sub(started.UTC()))
	s.publish(models.SyncEvent{CompletedAt: completed})
	return nil
}

func (s *syncService) stepFailed(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil || errors.Is(err, common.ErrCancelled) {
		if !errors.Is(err, common.ErrCancelled) {
			err = fmt.Errorf("%w: %w", common.ErrCancelled, err)
		}
		s.log.Info(ctx, "sync cancelled", "step", step)
		return fmt.Errorf("sync %s: %w", step, err)
	}
	s.log.Error(ctx, "sync failed", "step", step, "error", err)
	return fmt.Errorf("sync %s: %w", step, err)
}

func (s *syncService) Subscribe() (<-chan models.SyncEvent, func()) {
	ch := make(chan models.SyncEvent, 1)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

// publish never blocks. A subscriber that has not read the previous event
// gets it replaced by the newer one.
func (s *syncService) publish(ev models.SyncEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *syncService) LastSync(ctx context.Context) (time.Time, error) {
	return metadata.NewSQLiteRepository(s.exec.DB()).GetTime(ctx, metadata.KeyLastSync)
}
