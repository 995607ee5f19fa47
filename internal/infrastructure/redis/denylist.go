// Package redis implementa la lista de tokens revocados sobre Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "geofix:revoked:"

// Denylist guarda el jti de cada token cerrado hasta su vencimiento natural.
type Denylist struct {
	client goredis.Cmdable
}

// NewClient abre el cliente y comprueba la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// NewDenylist crea la lista sobre un cliente ya conectado.
func NewDenylist(client goredis.Cmdable) *Denylist {
	return &Denylist{client: client}
}

// Revoke marca el jti como revocado durante ttl. Un ttl no positivo no hace nada: el token ya venció.
func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, keyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked consulta si el jti fue revocado.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	err := d.client.Get(ctx, keyPrefix+jti).Err()
	switch {
	case errors.Is(err, goredis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return true, nil
}
