package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Proveedor represents a supplier with commercial data.
type Proveedor struct {
	NIT       string  `gorm:"primaryKey;type:varchar(20);column:nit"`
	Nombre    string  `gorm:"not null"`
	Correo    *string
	Telefono  *string `gorm:"type:varchar(20)"`
	Activo    bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Facturas []FacturaProveedor `gorm:"foreignKey:ProveedorNIT"`
}

func (Proveedor) TableName() string { return "proveedores" }

// FacturaProveedor is a supplier purchase invoice. Registering one
// increases product stock inside the same transaction.
type FacturaProveedor struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProveedorNIT string          `gorm:"type:varchar(20);not null;index;column:proveedor_nit"`
	Fecha        time.Time       `gorm:"not null"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time

	Proveedor *Proveedor                 `gorm:"foreignKey:ProveedorNIT"`
	Detalles  []DetalleFacturaProveedor  `gorm:"foreignKey:FacturaProveedorID"`
}

func (FacturaProveedor) TableName() string { return "facturas_proveedor" }

// DetalleFacturaProveedor is one purchased-from-supplier line.
type DetalleFacturaProveedor struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaProveedorID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoReferencia string          `gorm:"type:varchar(50);not null"`
	Cantidad           int             `gorm:"not null"`
	PrecioCompra       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt          time.Time

	Producto *Producto `gorm:"foreignKey:ProductoReferencia"`
}

func (DetalleFacturaProveedor) TableName() string { return "detalle_facturas_proveedor" }
