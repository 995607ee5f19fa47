package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
)

var (
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.UserStatsRepository = (*UserRepo)(nil)
)

const userColumns = `id, name, email, mobile, address, password_hash, roles, status,
	otp, otp_expires_at, photo_url, aadhar_front_url, aadhar_back_url,
	created_at, updated_at, last_login`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create persiste un nuevo usuario y asigna el ID generado.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (name, email, mobile, address, password_hash, roles, status,
			otp, otp_expires_at, photo_url, aadhar_front_url, aadhar_back_url,
			created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		user.Name, user.Email, user.Mobile, user.Address, user.PasswordHash, user.Roles.Strings(), string(user.Status),
		user.OTP, user.OTPExpiresAt, user.PhotoURL, user.AadharFrontURL, user.AadharBackURL,
		user.CreatedAt, user.UpdatedAt, user.LastLogin,
	).Scan(&user.ID)
	if err != nil {
		return mapWriteError("insert user", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.findOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail obtiene un usuario por email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByMobile obtiene un usuario por móvil.
func (r *UserRepo) GetByMobile(ctx context.Context, mobile string) (*entity.User, error) {
	return r.findOne(ctx, "get user by mobile", `SELECT `+userColumns+` FROM users WHERE mobile = $1`, mobile)
}

// ExistsByEmail indica si ya hay un usuario con ese email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists user by email: %w", err)
	}
	return exists, nil
}

// Update reescribe todos los campos mutables del usuario.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, mobile = $4, address = $5, password_hash = $6,
			roles = $7, status = $8, otp = $9, otp_expires_at = $10, photo_url = $11,
			aadhar_front_url = $12, aadhar_back_url = $13, updated_at = $14, last_login = $15
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.Mobile, user.Address, user.PasswordHash,
		user.Roles.Strings(), string(user.Status), user.OTP, user.OTPExpiresAt, user.PhotoURL,
		user.AadharFrontURL, user.AadharBackURL, user.UpdatedAt, user.LastLogin,
	)
	if err != nil {
		return mapWriteError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete elimina un usuario por ID.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List lista usuarios con filtros opcionales de rol y estado.
func (r *UserRepo) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, error) {
	var (
		conds []string
		args  []any
	)
	if f.Role != nil {
		args = append(args, string(*f.Role))
		conds = append(conds, fmt.Sprintf("$%d = ANY(roles)", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// CountAll total de usuarios registrados.
func (r *UserRepo) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, "count users", `SELECT COUNT(*) FROM users`)
}

// CountLastLoginBetween usuarios cuyo último acceso cae en [from, to].
func (r *UserRepo) CountLastLoginBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.count(ctx, "count users by last login",
		`SELECT COUNT(*) FROM users WHERE last_login >= $1 AND last_login <= $2`, from, to)
}

// CountByRole usuarios que poseen el rol.
func (r *UserRepo) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	return r.count(ctx, "count users by role",
		`SELECT COUNT(*) FROM users WHERE $1 = ANY(roles)`, string(role))
}

// CountByRoleAndStatus usuarios con el rol y el estado dados.
func (r *UserRepo) CountByRoleAndStatus(ctx context.Context, role entity.Role, status entity.Status) (int64, error) {
	return r.count(ctx, "count users by role and status",
		`SELECT COUNT(*) FROM users WHERE $1 = ANY(roles) AND status = $2`, string(role), string(status))
}

func (r *UserRepo) count(ctx context.Context, op, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (r *UserRepo) findOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u      entity.User
		roles  []string
		status string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Mobile, &u.Address, &u.PasswordHash, &roles, &status,
		&u.OTP, &u.OTPExpiresAt, &u.PhotoURL, &u.AadharFrontURL, &u.AadharBackURL,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	u.Roles, err = entity.ParseRoleSet(roles)
	if err != nil {
		return nil, fmt.Errorf("roles inválidos en DB: %w", err)
	}
	u.Status = entity.Status(status)
	return &u, nil
}

func mapWriteError(op string, err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case "users_mobile_key":
			return domain.ErrMobileAlreadyExists
		default:
			return domain.ErrEmailAlreadyExists
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
