package screen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	apperrors "screen-dev-assistant/pkg/errors"
)

// Dashboard 看板统计
type Dashboard struct {
	TotalScreens      int64                         `json:"total_screens"`
	TotalRequirements int64                         `json:"total_requirements"`
	ByStatus          map[entity.ScreenStatus]int64 `json:"by_status"`
	CompletionRate    int                           `json:"completion_rate"`
}

// Dashboard 并发统计各状态数量，结果经缓存
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	return loadCached(ctx, s.cache, redis.DashboardKey(), s.dashboardTTL, func() (*Dashboard, error) {
		return s.computeDashboard(ctx)
	})
}

func (s *Service) computeDashboard(ctx context.Context) (*Dashboard, error) {
	counts := make([]int64, len(entity.ScreenStatuses))
	var total, reqTotal int64

	g, gctx := errgroup.WithContext(ctx)
	for i, status := range entity.ScreenStatuses {
		g.Go(func() error {
			n, err := s.screens.CountByStatus(gctx, status)
			counts[i] = n
			return err
		})
	}
	g.Go(func() error {
		n, err := s.screens.CountByStatus(gctx, "")
		total = n
		return err
	})
	g.Go(func() error {
		page, err := s.requirements.Search(gctx, "", repository.NewPagination(1, 1))
		if err != nil {
			return err
		}
		reqTotal = page.Total
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to compute dashboard")
	}

	d := &Dashboard{
		TotalScreens:      total,
		TotalRequirements: reqTotal,
		ByStatus:          make(map[entity.ScreenStatus]int64, len(counts)),
	}
	for i, status := range entity.ScreenStatuses {
		d.ByStatus[status] = counts[i]
	}
	if total > 0 {
		d.CompletionRate = int(d.ByStatus[entity.ScreenStatusCompleted] * 100 / total)
	}
	return d, nil
}
