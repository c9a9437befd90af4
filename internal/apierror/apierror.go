// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Success bool   `json:"success"`
	Mensaje string `json:"mensaje"`
}

func New(msg string) *APIError {
	return &APIError{Success: false, Mensaje: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Success bool              `json:"success"`
	Mensaje string            `json:"mensaje"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Success: false, Mensaje: "Error de validacion", Fields: fields}
}

// ── Sentinel error kinds ─────────────────────────────────────────────────────
// Services return these (possibly wrapped) so handlers can map them to HTTP
// status codes without string matching.

var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrConflict     = errors.New("conflicto de datos")
	ErrUnauthorized = errors.New("autenticacion requerida")
	ErrForbidden    = errors.New("operacion no permitida")
	ErrInvalidState = errors.New("estado invalido")
	ErrBadSignature = errors.New("firma invalida")
)

// StockError reports an insufficient-stock rejection with the quantity still
// available, so the client can adjust the cart line.
type StockError struct {
	Item       string
	Disponible int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: quedan %d unidades", e.Item, e.Disponible)
}

func NewStock(item string, disponible int) *StockError {
	return &StockError{Item: item, Disponible: disponible}
}
