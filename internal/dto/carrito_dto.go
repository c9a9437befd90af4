package dto

import "github.com/shopspring/decimal"

// ─── Requests ────────────────────────────────────────────────────────────────

// AgregarItemRequest adds a product or sticker line to the caller's cart.
// Exactly one of referencia / calcomania_id must be present; tamano is
// required for stickers and forbidden for products.
type AgregarItemRequest struct {
	Referencia   *string `json:"referencia"    validate:"omitempty,min=1"`
	CalcomaniaID *string `json:"calcomania_id" validate:"omitempty,uuid"`
	Tamano       *string `json:"tamano"        validate:"omitempty,oneof=pequeno mediano grande"`
	Cantidad     int     `json:"cantidad"      validate:"required,min=1"`
}

// CambiarCantidadRequest sets the absolute quantity of a line; 0 removes it.
type CambiarCantidadRequest struct {
	Cantidad int `json:"cantidad" validate:"min=0"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// ItemCarritoResponse is one priced cart line.
type ItemCarritoResponse struct {
	ID             string          `json:"id"`
	Tipo           string          `json:"tipo"`
	Referencia     *string         `json:"referencia,omitempty"`
	CalcomaniaID   *string         `json:"calcomania_id,omitempty"`
	Nombre         string          `json:"nombre"`
	Tamano         *string         `json:"tamano,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnidad   decimal.Decimal `json:"precio_unidad"`
	PrecioRebajado decimal.Decimal `json:"precio_rebajado"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CarritoResponse struct {
	Items          []ItemCarritoResponse `json:"items"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DescuentoTotal decimal.Decimal       `json:"descuento_total"`
}
