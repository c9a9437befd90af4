package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog item keyed by its commercial reference.
// PrecioDescuento, when set, must be lower than PrecioUnidad; stock never
// goes below zero — decrements run through guarded conditional updates.
type Producto struct {
	Referencia           string  `gorm:"primaryKey;type:varchar(50)"`
	Nombre               string  `gorm:"index;not null"`
	Descripcion          *string
	Talla                *string          `gorm:"type:varchar(20)"`
	Stock                int              `gorm:"not null;default:0"`
	PrecioUnidad         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PorcentajeDescuento  *decimal.Decimal `gorm:"type:decimal(5,2)"`
	PrecioDescuento      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CategoriaID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	SubcategoriaID       *uuid.UUID       `gorm:"type:uuid;index"`
	CalificacionPromedio decimal.Decimal  `gorm:"type:decimal(3,2);not null;default:0"`
	Activo               bool             `gorm:"not null;default:true"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Categoria    *Categoria       `gorm:"foreignKey:CategoriaID"`
	Subcategoria *Subcategoria    `gorm:"foreignKey:SubcategoriaID"`
	Imagenes     []ImagenProducto `gorm:"foreignKey:ProductoReferencia"`
}

func (Producto) TableName() string { return "productos" }

// PrecioVigente returns the discounted price when one is set and lower than
// the list price, otherwise the list price.
func (p *Producto) PrecioVigente() decimal.Decimal {
	if p.PrecioDescuento != nil && p.PrecioDescuento.LessThan(p.PrecioUnidad) {
		return *p.PrecioDescuento
	}
	return p.PrecioUnidad
}

// ImagenProducto stores one hosted image URL for a product.
type ImagenProducto struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoReferencia string    `gorm:"type:varchar(50);not null;index"`
	URL                string    `gorm:"not null"`
	CreatedAt          time.Time
}

func (ImagenProducto) TableName() string { return "imagenes_producto" }
