package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errores de verificación de token.
var (
	ErrInvalidSignature = errors.New("jwt: firma inválida")
	ErrMalformed        = errors.New("jwt: token mal formado")
	ErrExpired          = errors.New("jwt: token expirado")
)

// Claims incluye los claims estándar JWT más la lista de roles.
// Subject es el email del usuario.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Codec emite y verifica tokens firmados con HS512.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configura un Codec.
type Option func(*Codec)

// WithClock reemplaza el reloj (tests de vencimiento).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec construye el codec. El secreto no puede estar vacío.
func NewCodec(secret string, ttl time.Duration, issuer string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	c := &Codec{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// TTL devuelve la vida configurada de los tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue genera un token firmado con subject, roles, iat=ahora y exp=ahora+TTL.
func (c *Codec) Issue(subject string, roles []string) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(c.secret)
}

// Verify comprueba estructura y firma. No evalúa el vencimiento: para eso está IsExpired.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: falta exp", ErrMalformed)
	}
	return claims, nil
}

// IsExpired es true cuando el instante actual alcanzó o superó el vencimiento.
func (c *Codec) IsExpired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

// Check combina Verify e IsExpired y devuelve ErrExpired por separado.
func (c *Codec) Check(tokenString string) (*Claims, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if c.IsExpired(claims) {
		return nil, ErrExpired
	}
	return claims, nil
}

// Validate es true si la firma es correcta y el token no expiró. Nunca devuelve error.
func (c *Codec) Validate(tokenString string) bool {
	_, err := c.Check(tokenString)
	return err == nil
}

// ValidateFor además exige que el subject coincida con la identidad esperada.
func (c *Codec) ValidateFor(tokenString, subject string) bool {
	claims, err := c.Check(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == subject
}
