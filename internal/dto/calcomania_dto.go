package dto

import "github.com/shopspring/decimal"

type CrearCalcomaniaRequest struct {
	Nombre          string           `json:"nombre"           validate:"required,min=2"`
	ImagenURL       *string          `json:"imagen_url"       validate:"omitempty,url"`
	PrecioUnidad    decimal.Decimal  `json:"precio_unidad"    validate:"required,gt=0"`
	PrecioDescuento *decimal.Decimal `json:"precio_descuento" validate:"omitempty,gt=0"`
	StockPequeno    int              `json:"stock_pequeno"    validate:"min=0"`
	StockMediano    int              `json:"stock_mediano"    validate:"min=0"`
	StockGrande     int              `json:"stock_grande"     validate:"min=0"`
}

type ActualizarCalcomaniaRequest struct {
	Nombre          string           `json:"nombre"           validate:"omitempty,min=2"`
	ImagenURL       *string          `json:"imagen_url"       validate:"omitempty,url"`
	PrecioUnidad    *decimal.Decimal `json:"precio_unidad"    validate:"omitempty,gt=0"`
	PrecioDescuento *decimal.Decimal `json:"precio_descuento" validate:"omitempty,gt=0"`
	StockPequeno    *int             `json:"stock_pequeno"    validate:"omitempty,min=0"`
	StockMediano    *int             `json:"stock_mediano"    validate:"omitempty,min=0"`
	StockGrande     *int             `json:"stock_grande"     validate:"omitempty,min=0"`
}

type CalcomaniaResponse struct {
	ID              string           `json:"id"`
	Nombre          string           `json:"nombre"`
	ImagenURL       *string          `json:"imagen_url,omitempty"`
	PrecioUnidad    decimal.Decimal  `json:"precio_unidad"`
	PrecioDescuento *decimal.Decimal `json:"precio_descuento,omitempty"`
	StockPequeno    int              `json:"stock_pequeno"`
	StockMediano    int              `json:"stock_mediano"`
	StockGrande     int              `json:"stock_grande"`
	Propietario     string           `json:"propietario"`
	Activo          bool             `json:"activo"`
}
