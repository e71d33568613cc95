package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	authdomain "studio-admin-backend/internal/auth/domain"
	"studio-admin-backend/internal/project/domain"
	"studio-admin-backend/internal/project/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// observerTimeout bounds how long a single mutation fan-out may run
const observerTimeout = 10 * time.Second

// Refresher forces the live project list to resynchronize
type Refresher interface {
	Refresh() uint64
}

// MutationGateway writes single project records and then asks the live list to
// converge. It keeps no copy of what it wrote; the next snapshot is authoritative.
type MutationGateway struct {
	repo      repository.ProjectRepository
	refresher Refresher
	observers []MutationObserver
	logger    *zap.Logger
	now       func() time.Time
	pending   sync.WaitGroup
}

// NewMutationGateway creates a new MutationGateway
func NewMutationGateway(repo repository.ProjectRepository, refresher Refresher, logger *zap.Logger, observers ...MutationObserver) *MutationGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MutationGateway{
		repo:      repo,
		refresher: refresher,
		observers: observers,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the time source used for updatedAt
func (g *MutationGateway) SetClock(now func() time.Time) {
	g.now = now
}

// Delete removes a project. The list changes only once a refreshed snapshot arrives.
func (g *MutationGateway) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrEmptyID
	}

	if err := g.repo.Delete(ctx, id); err != nil {
		g.logger.Warn("delete project failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete project %s: %w", id, err)
	}

	g.refresher.Refresh()
	g.logger.Info("project deleted", zap.String("id", id))

	g.notify(ctx, domain.Mutation{
		Kind:      domain.MutationDelete,
		ProjectID: id,
		Actor:     actor(ctx),
		At:        g.now(),
	})
	return nil
}

// Update merge-updates a project, always stamping updatedAt
func (g *MutationGateway) Update(ctx context.Context, id string, patch domain.ProjectPatch) error {
	if id == "" {
		return domain.ErrEmptyID
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	at := g.now()
	if err := g.repo.Update(ctx, id, patch, at); err != nil {
		g.logger.Warn("update project failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("update project %s: %w", id, err)
	}

	g.refresher.Refresh()
	g.logger.Info("project updated", zap.String("id", id))

	g.notify(ctx, domain.Mutation{
		Kind:      domain.MutationUpdate,
		ProjectID: id,
		Patch:     &patch,
		Actor:     actor(ctx),
		At:        at,
	})
	return nil
}

// Wait blocks until every in-flight observer fan-out has finished
func (g *MutationGateway) Wait() {
	g.pending.Wait()
}

// notify fans the mutation out to observers in the background so the write
// returns as soon as the store confirms it. Observer failures are logged only.
func (g *MutationGateway) notify(ctx context.Context, m domain.Mutation) {
	if len(g.observers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), observerTimeout)
	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		defer cancel()

		var eg errgroup.Group
		for _, o := range g.observers {
			o := o
			eg.Go(func() error {
				if err := o.OnProjectMutation(ctx, m); err != nil {
					g.logger.Warn("mutation observer failed",
						zap.String("kind", string(m.Kind)), zap.String("id", m.ProjectID), zap.Error(err))
					return err
				}
				return nil
			})
		}
		_ = eg.Wait()
	}()
}

func actor(ctx context.Context) string {
	if user := authdomain.UserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}
