package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inventario is a point-in-time valuation of all sellable stock.
// Rows are append-only: never mutated after creation.
type Inventario struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Fecha          time.Time       `gorm:"not null;index"`
	Responsable    string          `gorm:"not null"` // "Sistema" or a user name
	TotalProductos int             `gorm:"not null"` // distinct catalog items
	TotalUnidades  int             `gorm:"not null"`
	ValorTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt      time.Time

	Detalles []DetalleInventario `gorm:"foreignKey:InventarioID"`
}

func (Inventario) TableName() string { return "inventarios" }

// DetalleInventario captures one catalog item's quantity and the unit price
// used for valuation at snapshot time.
type DetalleInventario struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InventarioID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo               string          `gorm:"type:varchar(15);not null"` // producto | calcomania
	ProductoReferencia *string         `gorm:"type:varchar(50)"`
	CalcomaniaID       *uuid.UUID      `gorm:"type:uuid"`
	Nombre             string          `gorm:"not null"`
	Cantidad           int             `gorm:"not null"`
	PrecioUnidad       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt          time.Time
}

func (DetalleInventario) TableName() string { return "detalle_inventarios" }
