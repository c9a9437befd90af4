package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ProductoFilter is bound from the query string of GET /v1/productos.
type ProductoFilter struct {
	Nombre       string `form:"nombre"`
	Categoria    string `form:"categoria"`
	Subcategoria string `form:"subcategoria"`
	Activo       string `form:"activo"` // "false" = inactivos, "all" = todos, default activos
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ─── Requests ────────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Referencia          string           `json:"referencia"           validate:"required,min=1,max=50"`
	Nombre              string           `json:"nombre"               validate:"required,min=2"`
	Descripcion         *string          `json:"descripcion"`
	Talla               *string          `json:"talla"`
	Stock               int              `json:"stock"                validate:"min=0"`
	PrecioUnidad        decimal.Decimal  `json:"precio_unidad"        validate:"required,gt=0"`
	PorcentajeDescuento *decimal.Decimal `json:"porcentaje_descuento" validate:"omitempty,min=0,max=100"`
	CategoriaID         string           `json:"categoria_id"         validate:"required,uuid"`
	SubcategoriaID      *string          `json:"subcategoria_id"      validate:"omitempty,uuid"`
	Imagenes            []string         `json:"imagenes"             validate:"omitempty,dive,url"`
}

type ActualizarProductoRequest struct {
	Nombre              string           `json:"nombre"               validate:"omitempty,min=2"`
	Descripcion         *string          `json:"descripcion"`
	Talla               *string          `json:"talla"`
	Stock               *int             `json:"stock"                validate:"omitempty,min=0"`
	PrecioUnidad        *decimal.Decimal `json:"precio_unidad"        validate:"omitempty,gt=0"`
	PorcentajeDescuento *decimal.Decimal `json:"porcentaje_descuento" validate:"omitempty,min=0,max=100"`
	CategoriaID         *string          `json:"categoria_id"         validate:"omitempty,uuid"`
	SubcategoriaID      *string          `json:"subcategoria_id"      validate:"omitempty,uuid"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type ProductoResponse struct {
	Referencia           string           `json:"referencia"`
	Nombre               string           `json:"nombre"`
	Descripcion          *string          `json:"descripcion,omitempty"`
	Talla                *string          `json:"talla,omitempty"`
	Stock                int              `json:"stock"`
	PrecioUnidad         decimal.Decimal  `json:"precio_unidad"`
	PorcentajeDescuento  *decimal.Decimal `json:"porcentaje_descuento,omitempty"`
	PrecioDescuento      *decimal.Decimal `json:"precio_descuento,omitempty"`
	Categoria            string           `json:"categoria"`
	Subcategoria         *string          `json:"subcategoria,omitempty"`
	CalificacionPromedio decimal.Decimal  `json:"calificacion_promedio"`
	Imagenes             []string         `json:"imagenes"`
	Activo               bool             `json:"activo"`
}
