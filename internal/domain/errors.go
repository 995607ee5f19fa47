package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidRequest      = errors.New("solicitud inválida")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrInvalidCredentials  = errors.New("credenciales inválidas")
	ErrAccountNotActive    = errors.New("la cuenta no está activa")
	ErrEmailAlreadyExists  = errors.New("el email ya está registrado")
	ErrMobileAlreadyExists = errors.New("el móvil ya está registrado")
	ErrMissingDocuments    = errors.New("el registro de administrador requiere foto y ambas caras del Aadhar")
	ErrStorage             = errors.New("error al guardar archivos")
	ErrForbidden           = errors.New("acceso denegado")
)
