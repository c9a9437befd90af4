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

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProveedorService manages suppliers and their purchase invoices.
// Registering an invoice increments product stock inside the same
// transaction that stores it, so receiving goods is atomic.
type ProveedorService interface {
	Crear(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	Obtener(ctx context.Context, nit string) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context) ([]dto.ProveedorResponse, error)
	Actualizar(ctx context.Context, nit string, req dto.ActualizarProveedorRequest) (*dto.ProveedorResponse, error)
	Eliminar(ctx context.Context, nit string) error

	RegistrarFactura(ctx context.Context, req dto.RegistrarFacturaProveedorRequest) (*dto.FacturaProveedorResponse, error)
	ListarFacturas(ctx context.Context, nit string) ([]dto.FacturaProveedorResponse, error)
}

type proveedorService struct {
	repo         repository.ProveedorRepository
	productoRepo repository.ProductoRepository
}

func NewProveedorService(repo repository.ProveedorRepository, productoRepo repository.ProductoRepository) ProveedorService {
	return &proveedorService{repo: repo, productoRepo: productoRepo}
}

func (s *proveedorService) Crear(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	if _, err := s.repo.FindByNIT(ctx, req.NIT); err == nil {
		return nil, fmt.Errorf("%w: el NIT %s ya esta registrado", apierror.ErrConflict, req.NIT)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p := &model.Proveedor{
		NIT:      req.NIT,
		Nombre:   req.Nombre,
		Correo:   req.Correo,
		Telefono: req.Telefono,
		Activo:   true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Obtener(ctx context.Context, nit string) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByNIT(ctx, nit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proveedor %s", apierror.ErrNotFound, nit)
		}
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Listar(ctx context.Context) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProveedorResponse, len(proveedores))
	for i := range proveedores {
		resp[i] = proveedorToResponse(&proveedores[i])
	}
	return resp, nil
}

func (s *proveedorService) Actualizar(ctx context.Context, nit string, req dto.ActualizarProveedorRequest) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByNIT(ctx, nit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proveedor %s", apierror.ErrNotFound, nit)
		}
		return nil, err
	}
	if req.Nombre != "" {
		p.Nombre = req.Nombre
	}
	if req.Correo != nil {
		p.Correo = req.Correo
	}
	if req.Telefono != nil {
		p.Telefono = req.Telefono
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Eliminar(ctx context.Context, nit string) error {
	if _, err := s.repo.FindByNIT(ctx, nit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: proveedor %s", apierror.ErrNotFound, nit)
		}
		return err
	}
	return s.repo.Delete(ctx, nit)
}

// RegistrarFactura stores the supplier invoice and credits every listed
// quantity to product stock in one transaction. Unknown references abort the
// whole registration.
func (s *proveedorService) RegistrarFactura(ctx context.Context, req dto.RegistrarFacturaProveedorRequest) (*dto.FacturaProveedorResponse, error) {
	if _, err := s.repo.FindByNIT(ctx, req.ProveedorNIT); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proveedor %s", apierror.ErrNotFound, req.ProveedorNIT)
		}
		return nil, err
	}

	total := decimal.Zero
	factura := &model.FacturaProveedor{
		ProveedorNIT: req.ProveedorNIT,
		Fecha:        time.Now(),
		Detalles:     make([]model.DetalleFacturaProveedor, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		total = total.Add(item.PrecioCompra.Mul(decimal.NewFromInt(int64(item.Cantidad))))
		factura.Detalles = append(factura.Detalles, model.DetalleFacturaProveedor{
			ProductoReferencia: item.Referencia,
			Cantidad:           item.Cantidad,
			PrecioCompra:       item.PrecioCompra,
		})
	}
	factura.Total = total

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, item := range req.Items {
			if _, err := s.productoRepo.FindByReferenciaTx(tx, item.Referencia); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: producto %s", apierror.ErrNotFound, item.Referencia)
				}
				return err
			}
			if err := s.productoRepo.AumentarStockTx(tx, item.Referencia, item.Cantidad); err != nil {
				return err
			}
		}
		return s.repo.CreateFacturaTx(tx, factura)
	})
	if err != nil {
		return nil, err
	}

	return &dto.FacturaProveedorResponse{
		ID:           factura.ID.String(),
		ProveedorNIT: factura.ProveedorNIT,
		Fecha:        factura.Fecha.UTC().Format(time.RFC3339),
		Total:        factura.Total,
		Items:        len(factura.Detalles),
	}, nil
}

func (s *proveedorService) ListarFacturas(ctx context.Context, nit string) ([]dto.FacturaProveedorResponse, error) {
	facturas, err := s.repo.ListFacturas(ctx, nit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.FacturaProveedorResponse, len(facturas))
	for i := range facturas {
		f := &facturas[i]
		resp[i] = dto.FacturaProveedorResponse{
			ID:           f.ID.String(),
			ProveedorNIT: f.ProveedorNIT,
			Fecha:        f.Fecha.UTC().Format(time.RFC3339),
			Total:        f.Total,
			Items:        len(f.Detalles),
		}
	}
	return resp, nil
}

func proveedorToResponse(p *model.Proveedor) dto.ProveedorResponse {
	return dto.ProveedorResponse{
		NIT:      p.NIT,
		Nombre:   p.Nombre,
		Correo:   p.Correo,
		Telefono: p.Telefono,
		Activo:   p.Activo,
	}
}
