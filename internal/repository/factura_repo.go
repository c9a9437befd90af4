package repository

import (
	"context"
	"time"

	"apolo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FacturaRepository covers order drafts, detail snapshots, gateway updates
// and the expiry sweep.
type FacturaRepository interface {
	CreateDraft(ctx context.Context, f *model.Factura) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Factura, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Factura, error)

	UpdateTx(tx *gorm.DB, f *model.Factura) error
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
	CreateDetalleProductoTx(tx *gorm.DB, d *model.DetalleFacturaProducto) error
	CreateDetalleCalcomaniaTx(tx *gorm.DB, d *model.DetalleFacturaCalcomania) error

	// BarrerExpiradas deletes Pendiente drafts older than limite, one
	// transaction per sweep. Terminal facturas (ErrorPago included) are
	// never touched. Returns how many drafts were reclaimed.
	BarrerExpiradas(ctx context.Context, limite time.Time) (int64, error)

	DB() *gorm.DB
}

type facturaRepo struct{ db *gorm.DB }

func NewFacturaRepository(db *gorm.DB) FacturaRepository { return &facturaRepo{db: db} }

func (r *facturaRepo) CreateDraft(ctx context.Context, f *model.Factura) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *facturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := r.db.WithContext(ctx).
		Preload("Usuario").
		Preload("DetallesProducto.Producto").
		Preload("DetallesCalcomania.Calcomania").
		First(&f, id).Error
	return &f, err
}

// FindByIDTx re-reads the factura inside a transaction so the completion
// routine checks the estado it is about to transition under the same
// isolation as its writes.
func (r *facturaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := tx.First(&f, id).Error
	return &f, err
}

func (r *facturaRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Factura, error) {
	var facturas []model.Factura
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).Order("fecha DESC").Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) UpdateTx(tx *gorm.DB, f *model.Factura) error {
	return tx.Save(f).Error
}

func (r *facturaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	return r.db.WithContext(ctx).Model(&model.Factura{}).
		Where("id = ?", id).Update("estado_pedido", estado).Error
}

func (r *facturaRepo) CreateDetalleProductoTx(tx *gorm.DB, d *model.DetalleFacturaProducto) error {
	return tx.Create(d).Error
}

func (r *facturaRepo) CreateDetalleCalcomaniaTx(tx *gorm.DB, d *model.DetalleFacturaCalcomania) error {
	return tx.Create(d).Error
}

func (r *facturaRepo) BarrerExpiradas(ctx context.Context, limite time.Time) (int64, error) {
	var eliminadas int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&model.Factura{}).
			Where("estado_pedido = ? AND fecha < ?", model.EstadoPendiente, limite).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		// Only Pendiente drafts match the filter; terminal facturas
		// (ErrorPago included) are never swept. Drafts carry no detail rows
		// yet, so the detail deletes only keep the FK order correct.
		if err := tx.Where("factura_id IN ?", ids).
			Delete(&model.DetalleFacturaProducto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("factura_id IN ?", ids).
			Delete(&model.DetalleFacturaCalcomania{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Factura{})
		eliminadas = res.RowsAffected
		return res.Error
	})
	return eliminadas, err
}

func (r *facturaRepo) DB() *gorm.DB { return r.db }
