package dto

import "github.com/shopspring/decimal"

type CrearProveedorRequest struct {
	NIT      string  `json:"nit"      validate:"required,min=5,max=20"`
	Nombre   string  `json:"nombre"   validate:"required,min=2"`
	Correo   *string `json:"correo"   validate:"omitempty,email"`
	Telefono *string `json:"telefono" validate:"omitempty,min=7"`
}

type ActualizarProveedorRequest struct {
	Nombre   string  `json:"nombre"   validate:"omitempty,min=2"`
	Correo   *string `json:"correo"   validate:"omitempty,email"`
	Telefono *string `json:"telefono" validate:"omitempty,min=7"`
}

type ProveedorResponse struct {
	NIT      string  `json:"nit"`
	Nombre   string  `json:"nombre"`
	Correo   *string `json:"correo,omitempty"`
	Telefono *string `json:"telefono,omitempty"`
	Activo   bool    `json:"activo"`
}

// ─── Supplier invoices ───────────────────────────────────────────────────────

type ItemFacturaProveedorRequest struct {
	Referencia   string          `json:"referencia"    validate:"required,min=1"`
	Cantidad     int             `json:"cantidad"      validate:"required,min=1"`
	PrecioCompra decimal.Decimal `json:"precio_compra" validate:"required,gt=0"`
}

// RegistrarFacturaProveedorRequest records a supplier purchase; the listed
// quantities are added to product stock in the same transaction.
type RegistrarFacturaProveedorRequest struct {
	ProveedorNIT string                        `json:"proveedor_nit" validate:"required,min=5"`
	Items        []ItemFacturaProveedorRequest `json:"items"         validate:"required,min=1,dive"`
}

type FacturaProveedorResponse struct {
	ID           string          `json:"id"`
	ProveedorNIT string          `json:"proveedor_nit"`
	Fecha        string          `json:"fecha"`
	Total        decimal.Decimal `json:"total"`
	Items        int             `json:"items"`
}
