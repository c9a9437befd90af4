package service

import (
	"context"
	"errors"
	"fmt"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/model"
	"apolo/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, referencia string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, referencia string, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, referencia string) error
	Reactivar(ctx context.Context, referencia string) error
}

type productoService struct {
	repo          repository.ProductoRepository
	categoriaRepo repository.CategoriaRepository
}

func NewProductoService(repo repository.ProductoRepository, categoriaRepo repository.CategoriaRepository) ProductoService {
	return &productoService{repo: repo, categoriaRepo: categoriaRepo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if _, err := s.repo.FindByReferencia(ctx, req.Referencia); err == nil {
		return nil, fmt.Errorf("%w: la referencia %s ya existe", apierror.ErrConflict, req.Referencia)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	categoriaID, err := uuid.Parse(req.CategoriaID)
	if err != nil {
		return nil, fmt.Errorf("%w: categoria_id invalido", apierror.ErrInvalidState)
	}
	if _, err := s.categoriaRepo.FindByID(ctx, categoriaID); err != nil {
		return nil, fmt.Errorf("%w: categoria", apierror.ErrNotFound)
	}

	p := &model.Producto{
		Referencia:          req.Referencia,
		Nombre:              req.Nombre,
		Descripcion:         req.Descripcion,
		Talla:               req.Talla,
		Stock:               req.Stock,
		PrecioUnidad:        req.PrecioUnidad,
		PorcentajeDescuento: req.PorcentajeDescuento,
		CategoriaID:         categoriaID,
		Activo:              true,
	}
	if req.SubcategoriaID != nil {
		subID, err := uuid.Parse(*req.SubcategoriaID)
		if err != nil {
			return nil, fmt.Errorf("%w: subcategoria_id invalido", apierror.ErrInvalidState)
		}
		p.SubcategoriaID = &subID
	}
	p.PrecioDescuento = precioConDescuento(p.PrecioUnidad, p.PorcentajeDescuento)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if len(req.Imagenes) > 0 {
		if err := s.repo.ReemplazarImagenes(ctx, p.Referencia, req.Imagenes); err != nil {
			return nil, err
		}
	}
	return s.Obtener(ctx, p.Referencia)
}

func (s *productoService) Obtener(ctx context.Context, referencia string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByReferencia(ctx, referencia)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: producto %s", apierror.ErrNotFound, referencia)
		}
		return nil, err
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductoListResponse{
		Data:  make([]dto.ProductoResponse, len(productos)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range productos {
		resp.Data[i] = productoToResponse(&productos[i])
	}
	return resp, nil
}

func (s *productoService) Actualizar(ctx context.Context, referencia string, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByReferencia(ctx, referencia)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: producto %s", apierror.ErrNotFound, referencia)
		}
		return nil, err
	}

	if req.Nombre != "" {
		p.Nombre = req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Talla != nil {
		p.Talla = req.Talla
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.PrecioUnidad != nil {
		p.PrecioUnidad = *req.PrecioUnidad
	}
	if req.PorcentajeDescuento != nil {
		p.PorcentajeDescuento = req.PorcentajeDescuento
	}
	if req.CategoriaID != nil {
		categoriaID, err := uuid.Parse(*req.CategoriaID)
		if err != nil {
			return nil, fmt.Errorf("%w: categoria_id invalido", apierror.ErrInvalidState)
		}
		if _, err := s.categoriaRepo.FindByID(ctx, categoriaID); err != nil {
			return nil, fmt.Errorf("%w: categoria", apierror.ErrNotFound)
		}
		p.CategoriaID = categoriaID
	}
	if req.SubcategoriaID != nil {
		subID, err := uuid.Parse(*req.SubcategoriaID)
		if err != nil {
			return nil, fmt.Errorf("%w: subcategoria_id invalido", apierror.ErrInvalidState)
		}
		p.SubcategoriaID = &subID
	}
	p.PrecioDescuento = precioConDescuento(p.PrecioUnidad, p.PorcentajeDescuento)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.Obtener(ctx, referencia)
}

func (s *productoService) Desactivar(ctx context.Context, referencia string) error {
	return s.repo.SoftDelete(ctx, referencia)
}

func (s *productoService) Reactivar(ctx context.Context, referencia string) error {
	return s.repo.Reactivar(ctx, referencia)
}

// precioConDescuento derives the stored discount price from the percentage,
// rounded to 2 decimals; nil when no discount applies.
func precioConDescuento(precio decimal.Decimal, porcentaje *decimal.Decimal) *decimal.Decimal {
	if porcentaje == nil || porcentaje.IsZero() {
		return nil
	}
	factor := decimal.NewFromInt(1).Sub(porcentaje.Div(decimalCien))
	rebajado := precio.Mul(factor).Round(2)
	return &rebajado
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	resp := dto.ProductoResponse{
		Referencia:           p.Referencia,
		Nombre:               p.Nombre,
		Descripcion:          p.Descripcion,
		Talla:                p.Talla,
		Stock:                p.Stock,
		PrecioUnidad:         p.PrecioUnidad,
		PorcentajeDescuento:  p.PorcentajeDescuento,
		PrecioDescuento:      p.PrecioDescuento,
		CalificacionPromedio: p.CalificacionPromedio,
		Imagenes:             make([]string, 0, len(p.Imagenes)),
		Activo:               p.Activo,
	}
	if p.Categoria != nil {
		resp.Categoria = p.Categoria.Nombre
	}
	if p.Subcategoria != nil {
		resp.Subcategoria = &p.Subcategoria.Nombre
	}
	for _, img := range p.Imagenes {
		resp.Imagenes = append(resp.Imagenes, img.URL)
	}
	return resp
}
