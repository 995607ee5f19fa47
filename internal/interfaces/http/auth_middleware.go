package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/pkg/jwt"
	"github.com/vkj/geofix-api/pkg/logger"
)

// Locals keys cargadas por AuthMiddleware.
const (
	LocalEmail  = "email"
	LocalRoles  = "roles"
	LocalClaims = "claims"
)

// AuthMiddleware valida el Bearer Token y carga email, roles y claims en c.Locals.
// Firma inválida, token mal formado y token vencido responden igual (401); la causa solo va al log.
func AuthMiddleware(codec *jwt.Codec, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, errResp := bearerToken(c)
		if errResp != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(errResp)
		}
		claims, err := codec.Check(tokenString)
		if err != nil {
			log.Debug().Err(err).Bool("expired", errors.Is(err, jwt.ErrExpired)).Str("path", c.Path()).Msg("token rechazado")
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth carga los claims si hay un token válido y nunca corta la cadena.
func OptionalAuth(codec *jwt.Codec) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, errResp := bearerToken(c); errResp == nil {
			if claims, err := codec.Check(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, *dto.ErrorResponse) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", &dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"}
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", &dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"}
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", &dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"}
	}
	return tokenString, nil
}

func setClaims(c *fiber.Ctx, claims *jwt.Claims) {
	// Roles desconocidos en un token firmado se ignoran en vez de invalidarlo.
	roles := entity.NewRoleSet()
	for _, name := range claims.Roles {
		if r, err := entity.ParseRole(name); err == nil {
			roles[r] = struct{}{}
		}
	}
	c.Locals(LocalEmail, claims.Subject)
	c.Locals(LocalRoles, roles)
	c.Locals(LocalClaims, claims)
}

// RequireRole deja pasar si el usuario tiene al menos uno de los roles. Usar DESPUÉS de AuthMiddleware.
func RequireRole(allowed ...entity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles := GetRoles(c)
		if len(roles) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no contiene roles"})
		}
		if !roles.HasAny(allowed...) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permisos para este recurso"})
		}
		return c.Next()
	}
}

// GetEmail devuelve el subject del token (después del middleware de auth).
func GetEmail(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalEmail).(string)
	return s
}

// GetRoles devuelve los roles del token.
func GetRoles(c *fiber.Ctx) entity.RoleSet {
	r, _ := c.Locals(LocalRoles).(entity.RoleSet)
	return r
}

// GetClaims devuelve los claims completos o nil.
func GetClaims(c *fiber.Ctx) *jwt.Claims {
	cl, _ := c.Locals(LocalClaims).(*jwt.Claims)
	return cl
}
