package model

import (
	"time"

	"github.com/google/uuid"
)

// Cart line discriminator values.
const (
	ItemProducto   = "producto"
	ItemCalcomania = "calcomania"
)

// ItemCarrito is one cart line owned by exactly one user. Exactly one of
// ProductoReferencia / CalcomaniaID is set, selected by Tipo — use the
// NuevoItem* constructors so the invariant holds structurally.
type ItemCarrito struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_carrito_linea"`
	Tipo               string     `gorm:"type:varchar(15);not null"`
	ProductoReferencia *string    `gorm:"type:varchar(50);uniqueIndex:idx_carrito_linea"`
	CalcomaniaID       *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_carrito_linea"`
	Tamano             *string    `gorm:"type:varchar(10);uniqueIndex:idx_carrito_linea"`
	Cantidad           int        `gorm:"not null"`
	AgregadoEn         time.Time  `gorm:"not null;default:now()"`

	Producto   *Producto   `gorm:"foreignKey:ProductoReferencia"`
	Calcomania *Calcomania `gorm:"foreignKey:CalcomaniaID"`
}

func (ItemCarrito) TableName() string { return "carrito_compras" }

// NuevoItemProducto builds a product cart line.
func NuevoItemProducto(usuarioID uuid.UUID, referencia string, cantidad int) *ItemCarrito {
	return &ItemCarrito{
		UsuarioID:          usuarioID,
		Tipo:               ItemProducto,
		ProductoReferencia: &referencia,
		Cantidad:           cantidad,
		AgregadoEn:         time.Now(),
	}
}

// NuevoItemCalcomania builds a sticker cart line for the given size.
func NuevoItemCalcomania(usuarioID, calcomaniaID uuid.UUID, tamano string, cantidad int) *ItemCarrito {
	return &ItemCarrito{
		UsuarioID:    usuarioID,
		Tipo:         ItemCalcomania,
		CalcomaniaID: &calcomaniaID,
		Tamano:       &tamano,
		Cantidad:     cantidad,
		AgregadoEn:   time.Now(),
	}
}
