// Package memory guarda usuarios en el proceso. Se usa con DB_DRIVER=memory y en los tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
)

var (
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.UserStatsRepository = (*UserRepo)(nil)
)

// UserRepo repositorio en memoria con las mismas reglas de unicidad que la tabla users.
type UserRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*entity.User
}

// NewUserRepository crea un repositorio vacío.
func NewUserRepository() *UserRepo {
	return &UserRepo{byID: make(map[int64]*entity.User)}
}

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUnique(user, 0); err != nil {
		return err
	}
	r.nextID++
	user.ID = r.nextID
	r.byID[user.ID] = clone(user)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetByMobile(_ context.Context, mobile string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Mobile != nil && *u.Mobile == mobile {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

func (r *UserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if err := r.checkUnique(user, user.ID); err != nil {
		return err
	}
	r.byID[user.ID] = clone(user)
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

// List aplica los filtros y ordena por fecha de creación descendente, igual que PostgreSQL.
func (r *UserRepo) List(_ context.Context, f repository.UserFilter) ([]*entity.User, error) {
	r.mu.RLock()
	var list []*entity.User
	for _, u := range r.byID {
		if f.Role != nil && !u.Roles.Has(*f.Role) {
			continue
		}
		if f.Status != nil && u.Status != *f.Status {
			continue
		}
		list = append(list, clone(u))
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if f.Offset >= len(list) {
		return nil, nil
	}
	list = list[f.Offset:]
	if f.Limit > 0 && f.Limit < len(list) {
		list = list[:f.Limit]
	}
	return list, nil
}

func (r *UserRepo) CountAll(_ context.Context) (int64, error) {
	return r.countWhere(func(*entity.User) bool { return true }), nil
}

func (r *UserRepo) CountLastLoginBetween(_ context.Context, from, to time.Time) (int64, error) {
	return r.countWhere(func(u *entity.User) bool {
		return u.LastLogin != nil && !u.LastLogin.Before(from) && !u.LastLogin.After(to)
	}), nil
}

func (r *UserRepo) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	return r.countWhere(func(u *entity.User) bool { return u.Roles.Has(role) }), nil
}

func (r *UserRepo) CountByRoleAndStatus(_ context.Context, role entity.Role, status entity.Status) (int64, error) {
	return r.countWhere(func(u *entity.User) bool { return u.Roles.Has(role) && u.Status == status }), nil
}

func (r *UserRepo) countWhere(match func(*entity.User) bool) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.byID {
		if match(u) {
			n++
		}
	}
	return n
}

// checkUnique exige mu tomado. skipID excluye al propio usuario en Update.
func (r *UserRepo) checkUnique(user *entity.User, skipID int64) error {
	for id, u := range r.byID {
		if id == skipID {
			continue
		}
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
		if user.Mobile != nil && u.Mobile != nil && *u.Mobile == *user.Mobile {
			return domain.ErrMobileAlreadyExists
		}
	}
	return nil
}

func clone(u *entity.User) *entity.User {
	c := *u
	c.Roles = entity.NewRoleSet()
	for r := range u.Roles {
		c.Roles[r] = struct{}{}
	}
	c.Mobile = cloneStr(u.Mobile)
	c.OTP = cloneStr(u.OTP)
	c.PhotoURL = cloneStr(u.PhotoURL)
	c.AadharFrontURL = cloneStr(u.AadharFrontURL)
	c.AadharBackURL = cloneStr(u.AadharBackURL)
	c.OTPExpiresAt = cloneTime(u.OTPExpiresAt)
	c.LastLogin = cloneTime(u.LastLogin)
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
