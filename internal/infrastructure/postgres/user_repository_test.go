//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/domain/repository"
	"github.com/vkj/geofix-api/internal/infrastructure/postgres"
	"github.com/vkj/geofix-api/pkg/config"
)

// setupPool levanta PostgreSQL en un contenedor y aplica las migraciones.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("geofix"),
		tcpostgres.WithUsername("geofix"),
		tcpostgres.WithPassword("geofix"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err, "no se pudo iniciar el contenedor")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func newUser(email string, mobile *string, role entity.Role, now time.Time) *entity.User {
	return &entity.User{
		Name:         "Prueba",
		Email:        email,
		Mobile:       mobile,
		PasswordHash: "$2a$04$hash",
		Roles:        entity.NewRoleSet(role),
		Status:       entity.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLogin:    &now,
	}
}

func strPtr(s string) *string { return &s }

func TestUserRepo_Integracion(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewUserRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := newUser("ana@geofix.in", strPtr("9876543210"), entity.RoleCitizen, now)
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	t.Run("busquedas", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ana@geofix.in")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)
		assert.True(t, got.Roles.Has(entity.RoleCitizen))
		assert.True(t, got.CreatedAt.Equal(now))

		got, err = repo.GetByMobile(ctx, "9876543210")
		require.NoError(t, err)
		require.NotNil(t, got)

		got, err = repo.GetByID(ctx, u.ID+1000)
		require.NoError(t, err)
		assert.Nil(t, got)

		exists, err := repo.ExistsByEmail(ctx, "ana@geofix.in")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unicidad", func(t *testing.T) {
		err := repo.Create(ctx, newUser("ana@geofix.in", nil, entity.RoleCitizen, now))
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

		err = repo.Create(ctx, newUser("otra@geofix.in", strPtr("9876543210"), entity.RoleCitizen, now))
		assert.ErrorIs(t, err, domain.ErrMobileAlreadyExists)

		// móvil nulo no choca con otros nulos
		require.NoError(t, repo.Create(ctx, newUser("sin-movil-1@geofix.in", nil, entity.RoleWorker, now)))
		require.NoError(t, repo.Create(ctx, newUser("sin-movil-2@geofix.in", nil, entity.RoleWorker, now)))
	})

	t.Run("update con OTP", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		got.SetOTP("123456", now.Add(10*time.Minute))
		got.Status = entity.StatusPending
		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, again.OTP)
		assert.Equal(t, "123456", *again.OTP)
		assert.Equal(t, entity.StatusPending, again.Status)

		missing := *again
		missing.ID = u.ID + 1000
		assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrUserNotFound)
	})

	t.Run("listado y conteos", func(t *testing.T) {
		worker := entity.RoleWorker
		list, err := repo.List(ctx, repository.UserFilter{Role: &worker, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		pending := entity.StatusPending
		list, err = repo.List(ctx, repository.UserFilter{Status: &pending})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, u.ID, list[0].ID)

		total, err := repo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		n, err := repo.CountByRole(ctx, entity.RoleWorker)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.CountByRoleAndStatus(ctx, entity.RoleCitizen, entity.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.CountLastLoginBetween(ctx, now.Add(-time.Minute), now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, u.ID))
		assert.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrUserNotFound)
	})
}
