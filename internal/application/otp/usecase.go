// Package otp emite y verifica códigos de un solo uso para restablecer contraseñas.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
	"github.com/vkj/geofix-api/pkg/logger"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// DefaultTTL vida de un código.
const DefaultTTL = 10 * time.Minute

// Notifier entrega el código al usuario.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string, expiresAt time.Time) error
}

// Option configura UseCase.
type Option func(*UseCase)

// WithClock reemplaza time.Now (tests de vencimiento).
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) { uc.now = now }
}

// WithTTL cambia la vida del código.
func WithTTL(ttl time.Duration) Option {
	return func(uc *UseCase) { uc.ttl = ttl }
}

// UseCase ciclo NINGUNO -> EMITIDO -> (VERIFICADO | VENCIDO) -> NINGUNO.
type UseCase struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
	ttl      time.Duration
}

// NewUseCase construye el gestor de OTP.
func NewUseCase(users repository.UserRepository, hasher auth.PasswordHasher, notifier Notifier, log *logger.Logger, opts ...Option) *UseCase {
	uc := &UseCase{
		users:    users,
		hasher:   hasher,
		notifier: notifier,
		log:      log.Component("otp"),
		now:      time.Now,
		ttl:      DefaultTTL,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Generate emite un código nuevo (pisando el anterior) y lo envía. Un fallo de envío solo se registra.
func (uc *UseCase) Generate(ctx context.Context, email string) (*entity.User, error) {
	user, err := uc.find(ctx, email)
	if err != nil {
		return nil, err
	}
	code, err := newCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := uc.now().UTC().Add(uc.ttl).Truncate(time.Microsecond)
	user.SetOTP(code, expiresAt)
	user.UpdatedAt = uc.now().UTC().Truncate(time.Microsecond)
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if uc.notifier != nil {
		if err := uc.notifier.SendOTP(ctx, user.Email, code, expiresAt); err != nil {
			uc.log.Error().Err(err).Int64("user_id", user.ID).Msg("no se pudo enviar el OTP")
		}
	}
	return user, nil
}

// Verify es true solo si hay código vigente y coincide. En ese caso lo consume.
func (uc *UseCase) Verify(ctx context.Context, email, candidate string) (bool, error) {
	user, err := uc.find(ctx, email)
	if err != nil {
		return false, err
	}
	if user.OTP == nil || user.OTPExpiresAt == nil {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(candidate)) != 1 {
		return false, nil
	}
	if !uc.now().Before(*user.OTPExpiresAt) {
		return false, nil
	}
	user.ClearOTP()
	user.UpdatedAt = uc.now().UTC().Truncate(time.Microsecond)
	if err := uc.users.Update(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword consume el código y guarda la nueva contraseña.
func (uc *UseCase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ok, err := uc.Verify(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	user, err := uc.find(ctx, email)
	if err != nil {
		return err
	}
	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = uc.now().UTC().Truncate(time.Microsecond)
	if err := uc.users.Update(ctx, user); err != nil {
		return err
	}
	uc.log.Info().Int64("user_id", user.ID).Msg("contraseña restablecida con OTP")
	return nil
}

func (uc *UseCase) find(ctx context.Context, email string) (*entity.User, error) {
	user, err := uc.users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// newCode devuelve un entero uniforme en [100000, 999999].
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
