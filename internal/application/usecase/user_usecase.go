package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
)

// UserUseCase operaciones administrativas sobre usuarios.
type UserUseCase struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo, now: time.Now}
}

// List lista usuarios filtrando por rol y estado opcionales.
func (uc *UserUseCase) List(ctx context.Context, in dto.UserListRequest) (*dto.UserListResponse, error) {
	in.DefaultPage()
	f := repository.UserFilter{Limit: in.Limit, Offset: in.Offset}
	if in.Role != "" {
		r, err := entity.ParseRole(in.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		f.Role = &r
	}
	if in.Status != "" {
		s, err := entity.ParseStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		f.Status = &s
	}
	users, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, *auth.ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Pending usuarios en espera de aprobación.
func (uc *UserUseCase) Pending(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error) {
	return uc.List(ctx, dto.UserListRequest{PageRequest: page, Status: string(entity.StatusPending)})
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// UpdateStatus fija el estado de la cuenta.
func (uc *UserUseCase) UpdateStatus(ctx context.Context, id int64, status string) (*dto.UserResponse, error) {
	s, err := entity.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return uc.mutate(ctx, id, func(u *entity.User) { u.Status = s })
}

// Approve, Reject, Activate y Deactivate son atajos de UpdateStatus.
func (uc *UserUseCase) Approve(ctx context.Context, id int64) (*dto.UserResponse, error) {
	return uc.UpdateStatus(ctx, id, string(entity.StatusApproved))
}

func (uc *UserUseCase) Reject(ctx context.Context, id int64) (*dto.UserResponse, error) {
	return uc.UpdateStatus(ctx, id, string(entity.StatusRejected))
}

func (uc *UserUseCase) Activate(ctx context.Context, id int64) (*dto.UserResponse, error) {
	return uc.UpdateStatus(ctx, id, string(entity.StatusActive))
}

func (uc *UserUseCase) Deactivate(ctx context.Context, id int64) (*dto.UserResponse, error) {
	return uc.UpdateStatus(ctx, id, string(entity.StatusInactive))
}

// UpdateRoles reemplaza el conjunto de roles; no puede quedar vacío.
func (uc *UserUseCase) UpdateRoles(ctx context.Context, id int64, roles []string) (*dto.UserResponse, error) {
	set, err := entity.ParseRoleSet(roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos un rol", domain.ErrInvalidRequest)
	}
	return uc.mutate(ctx, id, func(u *entity.User) { u.Roles = set })
}

// Delete borra definitivamente al usuario.
func (uc *UserUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *UserUseCase) mutate(ctx context.Context, id int64, apply func(*entity.User)) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(user)
	user.UpdatedAt = uc.now().UTC().Truncate(time.Microsecond)
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

func (uc *UserUseCase) get(ctx context.Context, id int64) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
