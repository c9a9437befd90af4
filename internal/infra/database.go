package infra

import (
	"fmt"

	"apolo/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches
// that GORM cannot express (CHECK constraints on stock columns).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies AutoMigrate plus schema patches. Also used by the
// integration test setup.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Rol{},
		&model.Usuario{},
		&model.Categoria{},
		&model.Subcategoria{},
		&model.Producto{},
		&model.ImagenProducto{},
		&model.Calcomania{},
		&model.ItemCarrito{},
		&model.Factura{},
		&model.DetalleFacturaProducto{},
		&model.DetalleFacturaCalcomania{},
		&model.Proveedor{},
		&model.FacturaProveedor{},
		&model.DetalleFacturaProveedor{},
		&model.Inventario{},
		&model.DetalleInventario{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements beyond AutoMigrate's
// reach. The CHECK constraints are a second line of defense behind the
// guarded conditional updates in the repositories: even a future code path
// that forgets the guard cannot drive stock negative.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock_no_negativo') THEN
		    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock_no_negativo CHECK (stock >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_calcomanias_stock_no_negativo') THEN
		    ALTER TABLE calcomanias ADD CONSTRAINT chk_calcomanias_stock_no_negativo
		      CHECK (stock_pequeno >= 0 AND stock_mediano >= 0 AND stock_grande >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_carrito_cantidad_positiva') THEN
		    ALTER TABLE carrito_compras ADD CONSTRAINT chk_carrito_cantidad_positiva CHECK (cantidad >= 1);
		  END IF;
		END $$`,
		// Partial index for the expiry sweep query (stale Pendiente drafts by fecha)
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_facturas_pendientes_fecha') THEN
		    CREATE INDEX idx_facturas_pendientes_fecha
		        ON facturas (fecha)
		        WHERE estado_pedido = 'Pendiente';
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
