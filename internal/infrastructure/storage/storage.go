// Package storage guarda los documentos subidos (foto y Aadhar) en disco local o S3.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// objectName arma "<tipo>_<uuid><ext>" conservando la extensión original en minúsculas.
func objectName(docType, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return docType + "_" + uuid.NewString() + ext
}
