package auth

import (
	"context"
	"io"
	"time"
)

// DocumentStore puerto de almacenamiento de documentos subidos.
// Save devuelve la referencia (ruta o URL) que se guarda en el usuario.
type DocumentStore interface {
	Save(ctx context.Context, docType, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// TokenDenylist revoca tokens antes de su vencimiento. Opcional: nil deja el logout sin estado.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Upload documento recibido en un formulario multipart.
type Upload struct {
	DocType  string
	Filename string
	Content  io.Reader
}
