package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrUnknownCapability = errors.New("permiso desconocido")
)

// ValidationError dato de entrada que no cumple una regla (campo requerido, formato).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// DuplicateError un valor único (email, teléfono) ya está registrado.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s ya registrado: %s", e.Field, e.Value)
}

// Is permite errors.Is(err, ErrDuplicate).
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// FileFormatError el archivo subido no es legible o no es de un tipo soportado.
type FileFormatError struct {
	Message string
	Err     error
}

func (e *FileFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// BackendError fallo del backend alojado (Postgres, Auth). Message es genérico y apto para el usuario;
// el detalle técnico va en Err y sólo se registra en logs.
type BackendError struct {
	Op      string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NetworkError respuesta no exitosa de un servicio remoto. Body se conserva tal cual.
type NetworkError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 && e.Err != nil {
		return fmt.Sprintf("network: %v", e.Err)
	}
	return fmt.Sprintf("network: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }
