package repository

import (
	"context"

	"apolo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProveedorRepository interface {
	Create(ctx context.Context, p *model.Proveedor) error
	FindByNIT(ctx context.Context, nit string) (*model.Proveedor, error)
	List(ctx context.Context) ([]model.Proveedor, error)
	Update(ctx context.Context, p *model.Proveedor) error
	Delete(ctx context.Context, nit string) error

	CreateFacturaTx(tx *gorm.DB, f *model.FacturaProveedor) error
	FindFacturaByID(ctx context.Context, id uuid.UUID) (*model.FacturaProveedor, error)
	ListFacturas(ctx context.Context, nit string) ([]model.FacturaProveedor, error)

	DB() *gorm.DB
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) Create(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *proveedorRepo) FindByNIT(ctx context.Context, nit string) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).Where("nit = ?", nit).First(&p).Error
	return &p, err
}

func (r *proveedorRepo) List(ctx context.Context) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	err := r.db.WithContext(ctx).Where("activo = true").Order("nombre ASC").Find(&proveedores).Error
	return proveedores, err
}

func (r *proveedorRepo) Update(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete is a hard delete — explicit admin action per the data model.
func (r *proveedorRepo) Delete(ctx context.Context, nit string) error {
	return r.db.WithContext(ctx).Where("nit = ?", nit).Delete(&model.Proveedor{}).Error
}

func (r *proveedorRepo) CreateFacturaTx(tx *gorm.DB, f *model.FacturaProveedor) error {
	return tx.Create(f).Error
}

func (r *proveedorRepo) FindFacturaByID(ctx context.Context, id uuid.UUID) (*model.FacturaProveedor, error) {
	var f model.FacturaProveedor
	err := r.db.WithContext(ctx).Preload("Detalles.Producto").First(&f, id).Error
	return &f, err
}

func (r *proveedorRepo) ListFacturas(ctx context.Context, nit string) ([]model.FacturaProveedor, error) {
	var facturas []model.FacturaProveedor
	q := r.db.WithContext(ctx).Preload("Detalles")
	if nit != "" {
		q = q.Where("proveedor_nit = ?", nit)
	}
	err := q.Order("fecha DESC").Find(&facturas).Error
	return facturas, err
}

func (r *proveedorRepo) DB() *gorm.DB { return r.db }
