package repository

import (
	"context"

	"apolo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioRepository persists append-only stock snapshots.
type InventarioRepository interface {
	// CreateSnapshot writes the snapshot header plus every detail row in one
	// transaction.
	CreateSnapshot(ctx context.Context, inv *model.Inventario, detalles []model.DetalleInventario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Inventario, error)
	List(ctx context.Context) ([]model.Inventario, error)

	DB() *gorm.DB
}

type inventarioRepo struct{ db *gorm.DB }

func NewInventarioRepository(db *gorm.DB) InventarioRepository { return &inventarioRepo{db: db} }

func (r *inventarioRepo) CreateSnapshot(ctx context.Context, inv *model.Inventario, detalles []model.DetalleInventario) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		for i := range detalles {
			detalles[i].InventarioID = inv.ID
			if err := tx.Create(&detalles[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *inventarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Inventario, error) {
	var inv model.Inventario
	err := r.db.WithContext(ctx).Preload("Detalles").First(&inv, id).Error
	return &inv, err
}

func (r *inventarioRepo) List(ctx context.Context) ([]model.Inventario, error) {
	var inventarios []model.Inventario
	err := r.db.WithContext(ctx).Order("fecha DESC").Find(&inventarios).Error
	return inventarios, err
}

func (r *inventarioRepo) DB() *gorm.DB { return r.db }
