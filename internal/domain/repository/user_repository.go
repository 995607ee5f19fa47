package repository

import (
	"context"
	"time"

	"github.com/vkj/geofix-api/internal/domain/entity"
)

// UserFilter criterios opcionales para listar usuarios.
type UserFilter struct {
	Role   *entity.Role
	Status *entity.Status
	Limit  int // 0: sin límite
	Offset int
}

// UserRepository define el puerto de persistencia para User (DIP).
// Las búsquedas devuelven (nil, nil) cuando no hay coincidencia.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByMobile(ctx context.Context, mobile string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f UserFilter) ([]*entity.User, error)
}

// UserStatsRepository consultas agregadas de solo lectura sobre usuarios.
type UserStatsRepository interface {
	CountAll(ctx context.Context) (int64, error)
	CountLastLoginBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountByRole(ctx context.Context, role entity.Role) (int64, error)
	CountByRoleAndStatus(ctx context.Context, role entity.Role, status entity.Status) (int64, error)
}
