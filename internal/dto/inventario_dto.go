package dto

import "github.com/shopspring/decimal"

type InventarioResponse struct {
	ID             string          `json:"id"`
	Fecha          string          `json:"fecha"`
	Responsable    string          `json:"responsable"`
	TotalProductos int             `json:"total_productos"`
	TotalUnidades  int             `json:"total_unidades"`
	ValorTotal     decimal.Decimal `json:"valor_total"`
}

type DetalleInventarioResponse struct {
	Tipo         string          `json:"tipo"`
	Referencia   *string         `json:"referencia,omitempty"`
	CalcomaniaID *string         `json:"calcomania_id,omitempty"`
	Nombre       string          `json:"nombre"`
	Cantidad     int             `json:"cantidad"`
	PrecioUnidad decimal.Decimal `json:"precio_unidad"`
	ValorLinea   decimal.Decimal `json:"valor_linea"`
}

type InventarioDetalleResponse struct {
	InventarioResponse
	Detalles []DetalleInventarioResponse `json:"detalles"`
}
