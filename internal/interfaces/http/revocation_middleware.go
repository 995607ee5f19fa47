package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/pkg/logger"
)

// revocationChecker contrato mínimo para consultar la lista de tokens revocados.
type revocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RejectRevoked corta los tokens cerrados con logout. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 Unauthorized → token revocado.
//   - 503 Service Unavailable → la lista no responde.
func RejectRevoked(checker revocationChecker, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "token no encontrado en el contexto",
			})
		}

		revoked, err := checker.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			log.Error().Err(err).Msg("consulta de tokens revocados")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "REVOCATION_CHECK_FAILED",
				Message: "no se pudo verificar la sesión, intente más tarde",
			})
		}

		if revoked {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "TOKEN_REVOKED",
				Message: "la sesión fue cerrada",
			})
		}

		return c.Next()
	}
}
