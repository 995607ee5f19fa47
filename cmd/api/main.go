package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/application/otp"
	"github.com/vkj/geofix-api/internal/application/usecase"
	"github.com/vkj/geofix-api/internal/domain/repository"
	"github.com/vkj/geofix-api/internal/infrastructure/memory"
	"github.com/vkj/geofix-api/internal/infrastructure/notify"
	"github.com/vkj/geofix-api/internal/infrastructure/postgres"
	infraredis "github.com/vkj/geofix-api/internal/infrastructure/redis"
	"github.com/vkj/geofix-api/internal/infrastructure/storage"
	httpRouter "github.com/vkj/geofix-api/internal/interfaces/http"
	"github.com/vkj/geofix-api/pkg/config"
	"github.com/vkj/geofix-api/pkg/jwt"
	"github.com/vkj/geofix-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Str("uploads", cfg.Uploads.Backend).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		users repository.UserRepository
		stats repository.UserStatsRepository
	)
	switch cfg.DB.Driver {
	case "memory":
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		repo := memory.NewUserRepository()
		users, stats = repo, repo
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		repo := postgres.NewUserRepository(pool)
		users, stats = repo, repo
	}

	var docs auth.DocumentStore
	switch cfg.Uploads.Backend {
	case "s3":
		docs, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Uploads.S3Bucket,
			Region:    cfg.Uploads.S3Region,
			Endpoint:  cfg.Uploads.S3Endpoint,
			AccessKey: cfg.Uploads.S3AccessKey,
			SecretKey: cfg.Uploads.S3SecretKey,
		})
	default:
		docs, err = storage.NewLocalStore(cfg.Uploads.Dir)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de documentos")
	}

	codec, err := jwt.NewCodec(cfg.JWT.Secret, cfg.JWT.TTL(), cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("codec JWT")
	}

	hasher := auth.NewBcryptHasher(0)
	authOpts := []auth.Option{}
	routerDeps := httpRouter.RouterDeps{
		Codec:     codec,
		RateLimit: cfg.RateLimit,
		Log:       log,
	}
	if cfg.Redis.Addr != "" {
		client, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		denylist := infraredis.NewDenylist(client)
		authOpts = append(authOpts, auth.WithDenylist(denylist))
		routerDeps.Denylist = denylist
	}

	var notifier otp.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTP)
	}

	authUC := auth.NewAuthUseCase(users, hasher, codec, docs, log, authOpts...)
	routerDeps.AuthUC = authUC
	routerDeps.OTPUC = otp.NewUseCase(users, hasher, notifier, log, otp.WithTTL(cfg.OTP.TTL()))
	routerDeps.UserUC = usecase.NewUserUseCase(users)
	routerDeps.StatsUC = usecase.NewStatsUseCase(stats)

	if cfg.SuperAdmin.Password != "" {
		if _, err := authUC.SeedSuperAdmin(ctx, cfg.SuperAdmin.Email, cfg.SuperAdmin.Password); err != nil {
			log.Error().Err(err).Msg("seed de superadmin")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.ReplaceAll(cfg.HTTP.CORSOrigins, " ", ""),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "GeoFix API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", httpRouter.MetricsHandler())
	if local, ok := docs.(*storage.LocalStore); ok {
		app.Static("/uploads", local.Dir())
	}

	httpRouter.Router(app, routerDeps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
