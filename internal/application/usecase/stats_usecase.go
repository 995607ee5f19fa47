package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
)

// Ventanas de actividad calculadas sobre last_login.
const (
	WeekWindow  = 7 * 24 * time.Hour
	MonthWindow = 30 * 24 * time.Hour
)

var (
	statsRoles    = []entity.Role{entity.RoleCitizen, entity.RoleWorker, entity.RoleContractor, entity.RoleAdmin, entity.RoleSuperAdmin}
	statsStatuses = []entity.Status{entity.StatusActive, entity.StatusInactive, entity.StatusPending, entity.StatusApproved, entity.StatusRejected}
)

// StatsUseCase estadísticas para el panel de administración.
type StatsUseCase struct {
	repo repository.UserStatsRepository
	now  func() time.Time
}

// NewStatsUseCase construye el caso de uso.
func NewStatsUseCase(repo repository.UserStatsRepository) *StatsUseCase {
	return &StatsUseCase{repo: repo, now: time.Now}
}

// Summary totales, actividad de 7 y 30 días, y conteos por rol y por rol+estado.
func (uc *StatsUseCase) Summary(ctx context.Context) (*dto.StatsResponse, error) {
	now := uc.now()
	out := &dto.StatsResponse{
		ByRole:          make(map[string]int64, len(statsRoles)),
		ByRoleAndStatus: make(map[string]map[string]int64, len(statsRoles)),
	}
	var err error
	if out.TotalUsers, err = uc.repo.CountAll(ctx); err != nil {
		return nil, err
	}
	if out.ActiveLastWeek, err = uc.repo.CountLastLoginBetween(ctx, now.Add(-WeekWindow), now); err != nil {
		return nil, err
	}
	if out.ActiveLastMonth, err = uc.repo.CountLastLoginBetween(ctx, now.Add(-MonthWindow), now); err != nil {
		return nil, err
	}
	for _, r := range statsRoles {
		n, err := uc.repo.CountByRole(ctx, r)
		if err != nil {
			return nil, err
		}
		out.ByRole[string(r)] = n
		byStatus := make(map[string]int64, len(statsStatuses))
		for _, s := range statsStatuses {
			c, err := uc.repo.CountByRoleAndStatus(ctx, r, s)
			if err != nil {
				return nil, err
			}
			byStatus[string(s)] = c
		}
		out.ByRoleAndStatus[string(r)] = byStatus
	}
	return out, nil
}

// ActiveBetween usuarios con último acceso dentro de [from, to].
func (uc *StatsUseCase) ActiveBetween(ctx context.Context, from, to time.Time) (*dto.ActiveRangeResponse, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: el rango termina antes de empezar", domain.ErrInvalidRequest)
	}
	n, err := uc.repo.CountLastLoginBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.ActiveRangeResponse{From: from, To: to, Count: n}, nil
}
