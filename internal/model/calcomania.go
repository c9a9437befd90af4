package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sticker sizes. Medium and large scale the base price by the multipliers
// configured in config (pequeno is always ×1).
const (
	TamanoPequeno = "pequeno"
	TamanoMediano = "mediano"
	TamanoGrande  = "grande"
)

// TamanoValido reports whether t names a known sticker size.
func TamanoValido(t string) bool {
	return t == TamanoPequeno || t == TamanoMediano || t == TamanoGrande
}

// Calcomania is a sticker with three independent per-size stock counters.
// UsuarioID is the creator: staff-owned stickers enforce stock limits on
// cart quantity, customer-designed ones only the flat per-line ceiling.
type Calcomania struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre          string           `gorm:"not null"`
	ImagenURL       *string
	PrecioUnidad    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PrecioDescuento *decimal.Decimal `gorm:"type:decimal(12,2)"`
	StockPequeno    int              `gorm:"not null;default:0"`
	StockMediano    int              `gorm:"not null;default:0"`
	StockGrande     int              `gorm:"not null;default:0"`
	UsuarioID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Activo          bool             `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (Calcomania) TableName() string { return "calcomanias" }

// StockPorTamano returns the counter for the given size.
func (c *Calcomania) StockPorTamano(tamano string) int {
	switch tamano {
	case TamanoMediano:
		return c.StockMediano
	case TamanoGrande:
		return c.StockGrande
	default:
		return c.StockPequeno
	}
}

// PrecioVigente returns the discounted base price when set and lower than
// the list price, otherwise the list price. Size scaling happens in the
// pricing service, not here.
func (c *Calcomania) PrecioVigente() decimal.Decimal {
	if c.PrecioDescuento != nil && c.PrecioDescuento.LessThan(c.PrecioUnidad) {
		return *c.PrecioDescuento
	}
	return c.PrecioUnidad
}
