package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/application/otp"
	"github.com/vkj/geofix-api/internal/application/usecase"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/pkg/config"
	"github.com/vkj/geofix-api/pkg/jwt"
	"github.com/vkj/geofix-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	OTPUC     *otp.UseCase
	UserUC    *usecase.UserUseCase
	StatsUC   *usecase.StatsUseCase
	Codec     *jwt.Codec
	Denylist  revocationChecker // nil: sin revocación
	RateLimit config.RateLimitConfig
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	authn := AuthMiddleware(deps.Codec, deps.Log)
	revoked := func(c *fiber.Ctx) error { return c.Next() }
	if deps.Denylist != nil {
		revoked = RejectRevoked(deps.Denylist, deps.Log)
	}
	limited := RateLimitMiddleware(deps.RateLimit.RPS, deps.RateLimit.Burst, deps.Log)

	// Auth (público)
	authGroup := app.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", limited, authHandler.Login)
	authGroup.Post("/logout", OptionalAuth(deps.Codec), authHandler.Logout)

	// OTP (público, limitado por IP)
	otpHandler := NewOTPHandler(deps.OTPUC)
	otpGroup := authGroup.Group("/otp", limited)
	otpGroup.Post("/request", otpHandler.Request)
	otpGroup.Post("/verify", otpHandler.Verify)
	otpGroup.Post("/reset-password", otpHandler.ResetPassword)

	// Perfil (requiere Bearer Token)
	authGroup.Get("/profile", authn, revoked, authHandler.Profile)
	authGroup.Put("/update-profile", authn, revoked, authHandler.UpdateProfile)
	authGroup.Post("/change-password", authn, revoked, authHandler.ChangePassword)

	// Administración (admin o superadmin)
	admin := app.Group("/admin", authn, revoked, RequireRole(entity.RoleAdmin, entity.RoleSuperAdmin))
	userHandler := NewUserHandler(deps.UserUC)
	users := admin.Group("/users")
	users.Get("/", userHandler.List)
	users.Get("/pending", userHandler.Pending)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id/status", userHandler.UpdateStatus)
	users.Put("/:id/approve", userHandler.Approve)
	users.Put("/:id/reject", userHandler.Reject)
	users.Put("/:id/activate", userHandler.Activate)
	users.Put("/:id/deactivate", userHandler.Deactivate)

	superOnly := RequireRole(entity.RoleSuperAdmin)
	users.Put("/:id/roles", superOnly, userHandler.UpdateRoles)
	users.Delete("/:id", superOnly, userHandler.Delete)

	statsHandler := NewStatsHandler(deps.StatsUC)
	admin.Get("/stats", statsHandler.Summary)
	admin.Get("/stats/active", statsHandler.ActiveBetween)
}

