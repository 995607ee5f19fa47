package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
	"github.com/vkj/geofix-api/pkg/jwt"
	"github.com/vkj/geofix-api/pkg/logger"
)

// Option configura AuthUseCase.
type Option func(*AuthUseCase)

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(uc *AuthUseCase) { uc.now = now }
}

// WithDenylist activa la revocación de tokens en logout.
func WithDenylist(d TokenDenylist) Option {
	return func(uc *AuthUseCase) { uc.denylist = d }
}

// AuthUseCase registro, login, perfil y cierre de sesión.
type AuthUseCase struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	codec    *jwt.Codec
	docs     DocumentStore
	denylist TokenDenylist
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(users repository.UserRepository, hasher PasswordHasher, codec *jwt.Codec, docs DocumentStore, log *logger.Logger, opts ...Option) *AuthUseCase {
	uc := &AuthUseCase{
		users:  users,
		hasher: hasher,
		codec:  codec,
		docs:   docs,
		log:    log.Component("auth"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Login resuelve al usuario por email (preferido) o móvil, verifica la contraseña y emite el token.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := entity.NormalizeEmail(in.Email)
	mobile := strings.TrimSpace(in.Mobile)

	var (
		user *entity.User
		err  error
	)
	switch {
	case email != "":
		user, err = uc.users.GetByEmail(ctx, email)
	case mobile != "":
		user, err = uc.users.GetByMobile(ctx, mobile)
	default:
		return nil, fmt.Errorf("%w: se requiere email o móvil", domain.ErrInvalidRequest)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	ok, err := uc.hasher.Compare(user.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if user.Status != entity.StatusActive {
		return nil, domain.ErrAccountNotActive
	}

	now := uc.timestamp()
	if user.LastLogin != nil && !now.After(*user.LastLogin) {
		now = user.LastLogin.Add(time.Microsecond)
	}
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}

	roles := user.Roles.Strings()
	token, err := uc.codec.Issue(user.Email, roles)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	uc.log.Info().Int64("user_id", user.ID).Msg("login correcto")
	return &dto.LoginResponse{Token: token, UserID: user.ID, Roles: roles}, nil
}

// Signup registra un usuario. El rol administrador exige foto y ambas caras del Aadhar,
// y la comprobación ocurre antes de escribir nada.
func (uc *AuthUseCase) Signup(ctx context.Context, in dto.SignupRequest, uploads []Upload) (*dto.UserResponse, error) {
	role := entity.RoleCitizen
	if strings.TrimSpace(in.Role) != "" {
		r, err := entity.ParseRole(in.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		role = r
	}
	if role == entity.RoleAdmin && !hasDocuments(uploads, entity.DocPhoto, entity.DocAadharFront, entity.DocAadharBack) {
		return nil, domain.ErrMissingDocuments
	}

	email := entity.NormalizeEmail(in.Email)
	exists, err := uc.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := uc.timestamp()
	user := &entity.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Mobile:       optional(in.Mobile),
		Address:      strings.TrimSpace(in.Address),
		PasswordHash: hash,
		Roles:        entity.NewRoleSet(role),
		Status:       entity.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLogin:    &now,
	}

	saved, err := uc.saveDocuments(ctx, user, uploads)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Create(ctx, user); err != nil {
		uc.discard(ctx, saved)
		return nil, err
	}
	uc.log.Info().Int64("user_id", user.ID).Str("role", string(role)).Msg("usuario registrado")
	return ToUserResponse(user), nil
}

// GetProfile devuelve el usuario autenticado.
func (uc *AuthUseCase) GetProfile(ctx context.Context, email string) (*dto.UserResponse, error) {
	user, err := uc.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// UpdateProfile aplica el parche parcial y reemplaza los documentos recibidos.
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, email string, patch dto.UpdateProfileRequest, uploads []Upload) (*dto.UserResponse, error) {
	user, err := uc.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Mobile != nil {
		user.Mobile = optional(*patch.Mobile)
	}
	if patch.Address != nil {
		user.Address = strings.TrimSpace(*patch.Address)
	}

	previous := documentRefs(user)
	saved, err := uc.saveDocuments(ctx, user, uploads)
	if err != nil {
		return nil, err
	}
	user.UpdatedAt = uc.timestamp()
	if err := uc.users.Update(ctx, user); err != nil {
		uc.discard(ctx, saved)
		return nil, err
	}
	var replaced []string
	for _, up := range uploads {
		if old, ok := previous[up.DocType]; ok {
			replaced = append(replaced, old)
		}
	}
	uc.discard(ctx, replaced)
	return ToUserResponse(user), nil
}

// ChangePassword exige la contraseña actual.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, email string, in dto.ChangePasswordRequest) error {
	user, err := uc.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	ok, err := uc.hasher.Compare(user.PasswordHash, in.OldPassword)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = uc.timestamp()
	return uc.users.Update(ctx, user)
}

// Logout revoca el token si hay lista de revocación configurada; si no, es solo un acuse.
func (uc *AuthUseCase) Logout(ctx context.Context, claims *jwt.Claims) error {
	if uc.denylist == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(uc.now())
	if err := uc.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	uc.log.Debug().Str("jti", claims.ID).Msg("token revocado")
	return nil
}

// SeedSuperAdmin crea el superadministrador si el email no existe. Devuelve true si lo creó.
func (uc *AuthUseCase) SeedSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	if password == "" {
		return false, fmt.Errorf("%w: contraseña de superadmin vacía", domain.ErrInvalidRequest)
	}
	email = entity.NormalizeEmail(email)
	exists, err := uc.users.ExistsByEmail(ctx, email)
	if err != nil || exists {
		return false, err
	}
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	now := uc.timestamp()
	user := &entity.User{
		Name:         "Super Admin",
		Email:        email,
		PasswordHash: hash,
		Roles:        entity.NewRoleSet(entity.RoleSuperAdmin),
		Status:       entity.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLogin:    &now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	uc.log.Info().Str("email", email).Msg("superadmin creado")
	return true, nil
}

func (uc *AuthUseCase) findByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := uc.users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// saveDocuments guarda cada archivo y asigna su referencia. Si uno falla, borra los ya escritos.
func (uc *AuthUseCase) saveDocuments(ctx context.Context, user *entity.User, uploads []Upload) ([]string, error) {
	saved := make([]string, 0, len(uploads))
	for _, up := range uploads {
		ref, err := uc.docs.Save(ctx, up.DocType, up.Filename, up.Content)
		if err != nil {
			uc.discard(ctx, saved)
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		saved = append(saved, ref)
		user.SetDocument(up.DocType, ref)
	}
	return saved, nil
}

func (uc *AuthUseCase) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := uc.docs.Delete(ctx, ref); err != nil {
			uc.log.Warn().Err(err).Str("ref", ref).Msg("no se pudo borrar el documento")
		}
	}
}

// timestamp trunca a microsegundos, la precisión de timestamptz.
func (uc *AuthUseCase) timestamp() time.Time {
	return uc.now().UTC().Truncate(time.Microsecond)
}

func hasDocuments(uploads []Upload, types ...string) bool {
	present := make(map[string]bool, len(uploads))
	for _, up := range uploads {
		present[up.DocType] = true
	}
	for _, t := range types {
		if !present[t] {
			return false
		}
	}
	return true
}

func documentRefs(u *entity.User) map[string]string {
	refs := make(map[string]string, 3)
	if u.PhotoURL != nil {
		refs[entity.DocPhoto] = *u.PhotoURL
	}
	if u.AadharFrontURL != nil {
		refs[entity.DocAadharFront] = *u.AadharFrontURL
	}
	if u.AadharBackURL != nil {
		refs[entity.DocAadharBack] = *u.AadharBackURL
	}
	return refs
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ToUserResponse convierte la entidad en la salida pública (sin password ni OTP).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Mobile:         u.Mobile,
		Address:        u.Address,
		Roles:          u.Roles.Strings(),
		Status:         string(u.Status),
		PhotoURL:       u.PhotoURL,
		AadharFrontURL: u.AadharFrontURL,
		AadharBackURL:  u.AadharBackURL,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		LastLogin:      u.LastLogin,
	}
}
