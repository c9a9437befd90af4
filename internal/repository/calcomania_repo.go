package repository

import (
	"context"
	"fmt"

	"apolo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalcomaniaRepository defines data access for stickers, including the
// per-size guarded stock decrements used by the checkout pipeline.
type CalcomaniaRepository interface {
	Create(ctx context.Context, c *model.Calcomania) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Calcomania, error)
	List(ctx context.Context, soloActivas bool) ([]model.Calcomania, error)
	ListConStock(ctx context.Context) ([]model.Calcomania, error)
	Update(ctx context.Context, c *model.Calcomania) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	DescontarStockTx(tx *gorm.DB, id uuid.UUID, tamano string, cantidad int) error
	AumentarStockTx(tx *gorm.DB, id uuid.UUID, tamano string, cantidad int) error

	DB() *gorm.DB
}

type calcomaniaRepo struct{ db *gorm.DB }

func NewCalcomaniaRepository(db *gorm.DB) CalcomaniaRepository { return &calcomaniaRepo{db: db} }

func (r *calcomaniaRepo) Create(ctx context.Context, c *model.Calcomania) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *calcomaniaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Calcomania, error) {
	var c model.Calcomania
	err := r.db.WithContext(ctx).Preload("Usuario.Roles").First(&c, id).Error
	return &c, err
}

func (r *calcomaniaRepo) List(ctx context.Context, soloActivas bool) ([]model.Calcomania, error) {
	var calcomanias []model.Calcomania
	q := r.db.WithContext(ctx).Preload("Usuario")
	if soloActivas {
		q = q.Where("activo = true")
	}
	err := q.Order("nombre ASC").Find(&calcomanias).Error
	return calcomanias, err
}

// ListConStock returns active stickers with units in any size bucket.
func (r *calcomaniaRepo) ListConStock(ctx context.Context) ([]model.Calcomania, error) {
	var calcomanias []model.Calcomania
	err := r.db.WithContext(ctx).
		Where("activo = true AND (stock_pequeno > 0 OR stock_mediano > 0 OR stock_grande > 0)").
		Order("nombre ASC").Find(&calcomanias).Error
	return calcomanias, err
}

func (r *calcomaniaRepo) Update(ctx context.Context, c *model.Calcomania) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *calcomaniaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Calcomania{}).
		Where("id = ?", id).Update("activo", false).Error
}

// columnaStock maps a size to its stock column. Sizes are validated at the
// DTO boundary; an unknown value here is a programming error.
func columnaStock(tamano string) (string, error) {
	switch tamano {
	case model.TamanoPequeno:
		return "stock_pequeno", nil
	case model.TamanoMediano:
		return "stock_mediano", nil
	case model.TamanoGrande:
		return "stock_grande", nil
	}
	return "", fmt.Errorf("tamano desconocido: %q", tamano)
}

// DescontarStockTx decrements one size bucket behind the same conditional
// guard products use: zero rows affected = insufficient stock.
func (r *calcomaniaRepo) DescontarStockTx(tx *gorm.DB, id uuid.UUID, tamano string, cantidad int) error {
	col, err := columnaStock(tamano)
	if err != nil {
		return err
	}
	res := tx.Model(&model.Calcomania{}).
		Where(fmt.Sprintf("id = ? AND activo = true AND %s >= ?", col), id, cantidad).
		Update(col, gorm.Expr(col+" - ?", cantidad))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockInsuficiente
	}
	return nil
}

func (r *calcomaniaRepo) AumentarStockTx(tx *gorm.DB, id uuid.UUID, tamano string, cantidad int) error {
	col, err := columnaStock(tamano)
	if err != nil {
		return err
	}
	return tx.Model(&model.Calcomania{}).
		Where("id = ?", id).
		Update(col, gorm.Expr(col+" + ?", cantidad)).Error
}

func (r *calcomaniaRepo) DB() *gorm.DB { return r.db }
