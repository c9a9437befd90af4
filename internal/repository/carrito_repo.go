package repository

import (
	"context"

	"apolo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CarritoRepository persists cart lines. Every lookup and mutation filters
// by the owning user id, so a caller can never reach another user's lines
// even by guessing a line id.
type CarritoRepository interface {
	Create(ctx context.Context, item *model.ItemCarrito) error
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.ItemCarrito, error)
	FindLinea(ctx context.Context, usuarioID uuid.UUID, tipo string, referencia *string, calcomaniaID *uuid.UUID, tamano *string) (*model.ItemCarrito, error)
	FindByID(ctx context.Context, usuarioID, itemID uuid.UUID) (*model.ItemCarrito, error)
	UpdateCantidad(ctx context.Context, usuarioID, itemID uuid.UUID, cantidad int) error
	Delete(ctx context.Context, usuarioID, itemID uuid.UUID) error
	VaciarTx(tx *gorm.DB, usuarioID uuid.UUID) error

	DB() *gorm.DB
}

type carritoRepo struct{ db *gorm.DB }

func NewCarritoRepository(db *gorm.DB) CarritoRepository { return &carritoRepo{db: db} }

func (r *carritoRepo) Create(ctx context.Context, item *model.ItemCarrito) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *carritoRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.ItemCarrito, error) {
	var items []model.ItemCarrito
	err := r.db.WithContext(ctx).
		Preload("Producto").Preload("Calcomania.Usuario.Roles").
		Where("usuario_id = ?", usuarioID).
		Order("agregado_en ASC").Find(&items).Error
	return items, err
}

// FindLinea locates the line for (user, item, size) so add-to-cart can merge
// quantities instead of duplicating rows.
func (r *carritoRepo) FindLinea(ctx context.Context, usuarioID uuid.UUID, tipo string, referencia *string, calcomaniaID *uuid.UUID, tamano *string) (*model.ItemCarrito, error) {
	var item model.ItemCarrito
	q := r.db.WithContext(ctx).Where("usuario_id = ? AND tipo = ?", usuarioID, tipo)
	if tipo == model.ItemProducto {
		q = q.Where("producto_referencia = ?", referencia)
	} else {
		q = q.Where("calcomania_id = ? AND tamano = ?", calcomaniaID, tamano)
	}
	err := q.First(&item).Error
	return &item, err
}

func (r *carritoRepo) FindByID(ctx context.Context, usuarioID, itemID uuid.UUID) (*model.ItemCarrito, error) {
	var item model.ItemCarrito
	err := r.db.WithContext(ctx).
		Preload("Producto").Preload("Calcomania.Usuario.Roles").
		Where("id = ? AND usuario_id = ?", itemID, usuarioID).First(&item).Error
	return &item, err
}

func (r *carritoRepo) UpdateCantidad(ctx context.Context, usuarioID, itemID uuid.UUID, cantidad int) error {
	return r.db.WithContext(ctx).Model(&model.ItemCarrito{}).
		Where("id = ? AND usuario_id = ?", itemID, usuarioID).
		Update("cantidad", cantidad).Error
}

func (r *carritoRepo) Delete(ctx context.Context, usuarioID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND usuario_id = ?", itemID, usuarioID).
		Delete(&model.ItemCarrito{}).Error
}

// VaciarTx removes every line of a user inside the checkout transaction.
func (r *carritoRepo) VaciarTx(tx *gorm.DB, usuarioID uuid.UUID) error {
	return tx.Where("usuario_id = ?", usuarioID).Delete(&model.ItemCarrito{}).Error
}

func (r *carritoRepo) DB() *gorm.DB { return r.db }
