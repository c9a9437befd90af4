package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/model"
	"apolo/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResponsableSistema marks snapshots taken by the daily timer.
const ResponsableSistema = "Sistema"

// InventarioService records point-in-time valuations of all sellable stock.
// Snapshots are append-only and independent of the order pipeline; sticker
// quantities are summed across the three size buckets.
type InventarioService interface {
	GenerarSnapshot(ctx context.Context, responsable string) (*dto.InventarioResponse, error)
	GenerarSnapshotSistema(ctx context.Context) error
	Obtener(ctx context.Context, id uuid.UUID) (*dto.InventarioDetalleResponse, error)
	Listar(ctx context.Context) ([]dto.InventarioResponse, error)
}

type inventarioService struct {
	repo           repository.InventarioRepository
	productoRepo   repository.ProductoRepository
	calcomaniaRepo repository.CalcomaniaRepository
}

func NewInventarioService(
	repo repository.InventarioRepository,
	productoRepo repository.ProductoRepository,
	calcomaniaRepo repository.CalcomaniaRepository,
) InventarioService {
	return &inventarioService{repo: repo, productoRepo: productoRepo, calcomaniaRepo: calcomaniaRepo}
}

// GenerarSnapshot reads every active product and sticker with stock and
// stores header + detail rows. Valuation uses the price currently charged
// (discounted when applicable), not the list price.
func (s *inventarioService) GenerarSnapshot(ctx context.Context, responsable string) (*dto.InventarioResponse, error) {
	productos, err := s.productoRepo.ListConStock(ctx)
	if err != nil {
		return nil, err
	}
	calcomanias, err := s.calcomaniaRepo.ListConStock(ctx)
	if err != nil {
		return nil, err
	}

	detalles := make([]model.DetalleInventario, 0, len(productos)+len(calcomanias))
	totalUnidades := 0
	valorTotal := decimal.Zero

	for i := range productos {
		p := &productos[i]
		precio := p.PrecioVigente()
		ref := p.Referencia
		detalles = append(detalles, model.DetalleInventario{
			Tipo:               model.ItemProducto,
			ProductoReferencia: &ref,
			Nombre:             p.Nombre,
			Cantidad:           p.Stock,
			PrecioUnidad:       precio,
		})
		totalUnidades += p.Stock
		valorTotal = valorTotal.Add(precio.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	for i := range calcomanias {
		c := &calcomanias[i]
		unidades := c.StockPequeno + c.StockMediano + c.StockGrande
		precio := c.PrecioVigente()
		id := c.ID
		detalles = append(detalles, model.DetalleInventario{
			Tipo:         model.ItemCalcomania,
			CalcomaniaID: &id,
			Nombre:       c.Nombre,
			Cantidad:     unidades,
			PrecioUnidad: precio,
		})
		totalUnidades += unidades
		valorTotal = valorTotal.Add(precio.Mul(decimal.NewFromInt(int64(unidades))))
	}

	inv := &model.Inventario{
		Fecha:          time.Now(),
		Responsable:    responsable,
		TotalProductos: len(detalles),
		TotalUnidades:  totalUnidades,
		ValorTotal:     valorTotal.Round(2),
	}
	if err := s.repo.CreateSnapshot(ctx, inv, detalles); err != nil {
		return nil, err
	}
	resp := inventarioToResponse(inv)
	return &resp, nil
}

// GenerarSnapshotSistema is the daily-timer entry point.
func (s *inventarioService) GenerarSnapshotSistema(ctx context.Context) error {
	_, err := s.GenerarSnapshot(ctx, ResponsableSistema)
	return err
}

func (s *inventarioService) Obtener(ctx context.Context, id uuid.UUID) (*dto.InventarioDetalleResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventario", apierror.ErrNotFound)
		}
		return nil, err
	}

	resp := &dto.InventarioDetalleResponse{
		InventarioResponse: inventarioToResponse(inv),
		Detalles:           make([]dto.DetalleInventarioResponse, 0, len(inv.Detalles)),
	}
	for _, d := range inv.Detalles {
		linea := dto.DetalleInventarioResponse{
			Tipo:         d.Tipo,
			Referencia:   d.ProductoReferencia,
			Nombre:       d.Nombre,
			Cantidad:     d.Cantidad,
			PrecioUnidad: d.PrecioUnidad,
			ValorLinea:   d.PrecioUnidad.Mul(decimal.NewFromInt(int64(d.Cantidad))).Round(2),
		}
		if d.CalcomaniaID != nil {
			id := d.CalcomaniaID.String()
			linea.CalcomaniaID = &id
		}
		resp.Detalles = append(resp.Detalles, linea)
	}
	return resp, nil
}

func (s *inventarioService) Listar(ctx context.Context) ([]dto.InventarioResponse, error) {
	inventarios, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InventarioResponse, len(inventarios))
	for i := range inventarios {
		resp[i] = inventarioToResponse(&inventarios[i])
	}
	return resp, nil
}

func inventarioToResponse(inv *model.Inventario) dto.InventarioResponse {
	return dto.InventarioResponse{
		ID:             inv.ID.String(),
		Fecha:          inv.Fecha.UTC().Format(time.RFC3339),
		Responsable:    inv.Responsable,
		TotalProductos: inv.TotalProductos,
		TotalUnidades:  inv.TotalUnidades,
		ValorTotal:     inv.ValorTotal,
	}
}
