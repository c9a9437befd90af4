package repository

import (
	"context"
	"errors"

	"apolo/internal/dto"
	"apolo/internal/model"

	"gorm.io/gorm"
)

// ErrStockInsuficiente marks a guarded stock decrement that matched no row.
// Callers translate it into a client-facing stock error with the remaining
// quantity.
var ErrStockInsuficiente = errors.New("stock insuficiente")

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByReferencia(ctx context.Context, referencia string) (*model.Producto, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListConStock(ctx context.Context) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, referencia string) error
	Reactivar(ctx context.Context, referencia string) error
	ReemplazarImagenes(ctx context.Context, referencia string, urls []string) error

	// Used inside transactions — callers must pass the tx instance.
	// DescontarStockTx performs a guarded conditional decrement: zero rows
	// affected means the stock check failed and the whole transaction must
	// roll back.
	DescontarStockTx(tx *gorm.DB, referencia string, cantidad int) error
	AumentarStockTx(tx *gorm.DB, referencia string, cantidad int) error
	FindByReferenciaTx(tx *gorm.DB, referencia string) (*model.Producto, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByReferencia(ctx context.Context, referencia string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Preload("Categoria").Preload("Subcategoria").Preload("Imagenes").
		Where("referencia = ?", referencia).First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByNombre(ctx context.Context, nombre string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("nombre ILIKE ? AND activo = true", "%"+nombre+"%").First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("productos.activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("productos.activo = true")
	}

	if filter.Nombre != "" {
		q = q.Where("productos.nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Categoria != "" {
		q = q.Joins("JOIN categorias ON categorias.id = productos.categoria_id").
			Where("categorias.nombre = ?", filter.Categoria)
	}
	if filter.Subcategoria != "" {
		q = q.Joins("JOIN subcategorias ON subcategorias.id = productos.subcategoria_id").
			Where("subcategorias.nombre = ?", filter.Subcategoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Categoria").Preload("Subcategoria").Preload("Imagenes").
		Order("productos.nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

// ListConStock returns every active product with stock > 0, for snapshots.
func (r *productoRepo) ListConStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = true AND stock > 0").Order("referencia ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, referencia string) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("referencia = ?", referencia).Update("activo", false).Error
}

func (r *productoRepo) Reactivar(ctx context.Context, referencia string) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("referencia = ?", referencia).Update("activo", true).Error
}

func (r *productoRepo) ReemplazarImagenes(ctx context.Context, referencia string, urls []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("producto_referencia = ?", referencia).
			Delete(&model.ImagenProducto{}).Error; err != nil {
			return err
		}
		for _, u := range urls {
			img := model.ImagenProducto{ProductoReferencia: referencia, URL: u}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DescontarStockTx is the single place product stock ever decreases. The
// WHERE stock >= ? guard closes the check-then-decrement race: two
// concurrent commits cannot both pass against the same pre-decrement value.
func (r *productoRepo) DescontarStockTx(tx *gorm.DB, referencia string, cantidad int) error {
	res := tx.Model(&model.Producto{}).
		Where("referencia = ? AND activo = true AND stock >= ?", referencia, cantidad).
		Update("stock", gorm.Expr("stock - ?", cantidad))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockInsuficiente
	}
	return nil
}

func (r *productoRepo) AumentarStockTx(tx *gorm.DB, referencia string, cantidad int) error {
	return tx.Model(&model.Producto{}).
		Where("referencia = ?", referencia).
		Update("stock", gorm.Expr("stock + ?", cantidad)).Error
}

func (r *productoRepo) FindByReferenciaTx(tx *gorm.DB, referencia string) (*model.Producto, error) {
	var p model.Producto
	err := tx.Where("referencia = ?", referencia).First(&p).Error
	return &p, err
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
