// seed_admin crea el superadministrador por defecto si todavía no existe.
//
// Uso: go run ./cmd/seed_admin [email] [password]
// Sin argumentos usa SUPERADMIN_EMAIL y SUPERADMIN_PASSWORD. Aplica las migraciones antes de sembrar.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/infrastructure/postgres"
	"github.com/vkj/geofix-api/pkg/config"
	"github.com/vkj/geofix-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	email, password := cfg.SuperAdmin.Email, cfg.SuperAdmin.Password
	if len(os.Args) > 1 {
		email = os.Args[1]
	}
	if len(os.Args) > 2 {
		password = os.Args[2]
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "Falta la contraseña: pásala como argumento o en SUPERADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Migraciones: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.NewBcryptHasher(0), nil, nil, log)
	created, err := uc.SeedSuperAdmin(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear superadmin: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("Superadmin %s creado\n", email)
		return
	}
	fmt.Printf("Superadmin %s ya existía, sin cambios\n", email)
}
