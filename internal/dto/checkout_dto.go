package dto

import "github.com/shopspring/decimal"

// ─── Requests ────────────────────────────────────────────────────────────────

// ItemInvitadoRequest is one guest-cart line supplied by an unauthenticated
// caller at the address step (guests have no server-side cart).
type ItemInvitadoRequest struct {
	Referencia   *string `json:"referencia"    validate:"omitempty,min=1"`
	CalcomaniaID *string `json:"calcomania_id" validate:"omitempty,uuid"`
	Tamano       *string `json:"tamano"        validate:"omitempty,oneof=pequeno mediano grande"`
	Cantidad     int     `json:"cantidad"      validate:"required,min=1"`
}

// DireccionRequest starts a checkout: resolves the purchasing identity and
// creates the draft factura.
type DireccionRequest struct {
	Nombre        string  `json:"nombre"         validate:"required,min=2"`
	Cedula        string  `json:"cedula"         validate:"required,min=5"`
	Telefono      string  `json:"telefono"       validate:"required,min=7"`
	Correo        string  `json:"correo"         validate:"required,email"`
	Direccion     string  `json:"direccion"      validate:"required,min=5"`
	InfoAdicional *string `json:"info_adicional"`
	// Carrito is only read for guest checkouts
	Carrito []ItemInvitadoRequest `json:"carrito" validate:"omitempty,dive"`
}

// FinalizarRequest commits the checkout session created at the address step.
type FinalizarRequest struct {
	SesionToken string  `json:"sesion_token" validate:"required,uuid"`
	MetodoPago  *string `json:"metodo_pago"  validate:"omitempty,oneof=efectivo tarjeta transferencia pasarela"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type DireccionResponse struct {
	SesionToken     string `json:"sesion_token"`
	FacturaID       string `json:"factura_id"`
	NuevoRegistro   bool   `json:"nuevo_registro"`
}

// ResumenResponse is the read-only priced review of the cart.
type ResumenResponse struct {
	Items          []ItemCarritoResponse `json:"items"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DescuentoTotal decimal.Decimal       `json:"descuento_total"`
	CostoEnvio     decimal.Decimal       `json:"costo_envio"`
	Total          decimal.Decimal       `json:"total"`
}

type FinalizarResponse struct {
	FacturaID string          `json:"factura_id"`
	Total     decimal.Decimal `json:"total"`
	Estado    string          `json:"estado"`
}

type FacturaEstadoResponse struct {
	FacturaID         string          `json:"factura_id"`
	Estado            string          `json:"estado"`
	EstadoTransaccion *string         `json:"estado_transaccion,omitempty"`
	Total             decimal.Decimal `json:"total"`
	Actualizada       string          `json:"actualizada"`
}

type BarridoResponse struct {
	Eliminadas int `json:"eliminadas"`
}
