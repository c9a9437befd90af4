package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order states. Pendiente is the draft created at the address step; the
// gateway webhook (or a direct in-store sale) moves it to a terminal state.
// The original system used both "Pagada" and "Completada" for the paid
// state in different modules — here a single Completada state exists and it
// is the precondition the completion routine guards on.
const (
	EstadoPendiente  = "Pendiente"
	EstadoCompletada = "Completada"
	EstadoRechazada  = "Rechazada"
	EstadoCancelada  = "Cancelada"
	EstadoErrorPago  = "ErrorPago"
)

// EstadoTerminal reports whether estado admits no further transitions.
// Webhook deliveries for a terminal factura are acknowledged and ignored.
// ErrorPago is terminal: it records a collected payment that needs staff
// resolution, so nothing automated may move or remove it.
func EstadoTerminal(estado string) bool {
	switch estado {
	case EstadoCompletada, EstadoRechazada, EstadoCancelada, EstadoErrorPago:
		return true
	}
	return false
}

// Factura is the aggregate root of a purchase. Created zero-valued at the
// start of checkout; totals and estado are written when stock commits.
type Factura struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Fecha          time.Time       `gorm:"not null;index"`
	Direccion      *string
	InfoAdicional  *string
	MetodoPago     *string         `gorm:"type:varchar(30)"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DescuentoTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CostoEnvio     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstadoPedido   string          `gorm:"type:varchar(20);not null;default:'Pendiente';index"`
	// Gateway fields, written by the webhook handler
	TransaccionID    *string `gorm:"type:varchar(100);index"`
	EstadoTransaccion *string `gorm:"type:varchar(30)"`
	MetodoTransaccion *string `gorm:"type:varchar(30)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Usuario             *Usuario                    `gorm:"foreignKey:UsuarioID"`
	DetallesProducto    []DetalleFacturaProducto    `gorm:"foreignKey:FacturaID"`
	DetallesCalcomania  []DetalleFacturaCalcomania  `gorm:"foreignKey:FacturaID"`
}

func (Factura) TableName() string { return "facturas" }

// DetalleFacturaProducto is an immutable snapshot of one purchased product.
// PrecioUnidad is the price actually charged — later catalog changes never
// touch it.
type DetalleFacturaProducto struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoReferencia string          `gorm:"type:varchar(50);not null"`
	Cantidad           int             `gorm:"not null"`
	PrecioUnidad       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt          time.Time

	Producto *Producto `gorm:"foreignKey:ProductoReferencia"`
}

func (DetalleFacturaProducto) TableName() string { return "detalle_factura_productos" }

// DetalleFacturaCalcomania snapshots one purchased sticker line, including
// the size sold.
type DetalleFacturaCalcomania struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CalcomaniaID uuid.UUID       `gorm:"type:uuid;not null"`
	Tamano       string          `gorm:"type:varchar(10);not null"`
	Cantidad     int             `gorm:"not null"`
	PrecioUnidad decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time

	Calcomania *Calcomania `gorm:"foreignKey:CalcomaniaID"`
}

func (DetalleFacturaCalcomania) TableName() string { return "detalle_factura_calcomanias" }
