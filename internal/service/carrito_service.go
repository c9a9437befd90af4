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
	"gorm.io/gorm"
)

// CantidadMaxima caps any single cart line regardless of stock.
const CantidadMaxima = 50

// CarritoService manages a user's cart lines. Stock is revalidated against
// the merged total on every add, but the check here is only advisory — the
// authoritative guard runs inside the checkout transaction.
type CarritoService interface {
	Agregar(ctx context.Context, usuarioID uuid.UUID, req dto.AgregarItemRequest) (*dto.ItemCarritoResponse, error)
	Listar(ctx context.Context, usuarioID uuid.UUID) (*dto.CarritoResponse, error)
	CambiarCantidad(ctx context.Context, usuarioID, itemID uuid.UUID, cantidad int) (*dto.ItemCarritoResponse, error)
	Eliminar(ctx context.Context, usuarioID, itemID uuid.UUID) error
	Vaciar(ctx context.Context, usuarioID uuid.UUID) error
}

type carritoService struct {
	carritoRepo    repository.CarritoRepository
	productoRepo   repository.ProductoRepository
	calcomaniaRepo repository.CalcomaniaRepository
	precios        PreciosService
}

func NewCarritoService(
	carritoRepo repository.CarritoRepository,
	productoRepo repository.ProductoRepository,
	calcomaniaRepo repository.CalcomaniaRepository,
	precios PreciosService,
) CarritoService {
	return &carritoService{
		carritoRepo:    carritoRepo,
		productoRepo:   productoRepo,
		calcomaniaRepo: calcomaniaRepo,
		precios:        precios,
	}
}

// Agregar adds a line or merges quantity into the existing line for the same
// (item, size). The stock check always runs against the merged total, so a
// caller cannot exceed stock by adding in small increments.
func (s *carritoService) Agregar(ctx context.Context, usuarioID uuid.UUID, req dto.AgregarItemRequest) (*dto.ItemCarritoResponse, error) {
	if (req.Referencia == nil) == (req.CalcomaniaID == nil) {
		return nil, fmt.Errorf("%w: se requiere exactamente uno de referencia o calcomania_id", apierror.ErrInvalidState)
	}

	if req.Referencia != nil {
		return s.agregarProducto(ctx, usuarioID, *req.Referencia, req.Cantidad)
	}

	if req.Tamano == nil {
		return nil, fmt.Errorf("%w: tamano requerido para calcomanias", apierror.ErrInvalidState)
	}
	calcID, err := uuid.Parse(*req.CalcomaniaID)
	if err != nil {
		return nil, fmt.Errorf("%w: calcomania_id invalido", apierror.ErrInvalidState)
	}
	return s.agregarCalcomania(ctx, usuarioID, calcID, *req.Tamano, req.Cantidad)
}

func (s *carritoService) agregarProducto(ctx context.Context, usuarioID uuid.UUID, referencia string, cantidad int) (*dto.ItemCarritoResponse, error) {
	producto, err := s.productoRepo.FindByReferencia(ctx, referencia)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: producto %s", apierror.ErrNotFound, referencia)
		}
		return nil, err
	}
	if !producto.Activo {
		return nil, fmt.Errorf("%w: producto %s", apierror.ErrNotFound, referencia)
	}

	linea, err := s.carritoRepo.FindLinea(ctx, usuarioID, model.ItemProducto, &referencia, nil, nil)
	total := cantidad
	existente := err == nil
	if existente {
		total += linea.Cantidad
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if total > CantidadMaxima {
		return nil, fmt.Errorf("%w: maximo %d unidades por item", apierror.ErrInvalidState, CantidadMaxima)
	}
	if total > producto.Stock {
		return nil, apierror.NewStock(producto.Nombre, producto.Stock)
	}

	if existente {
		if err := s.carritoRepo.UpdateCantidad(ctx, usuarioID, linea.ID, total); err != nil {
			return nil, err
		}
		linea.Cantidad = total
	} else {
		linea = model.NuevoItemProducto(usuarioID, referencia, cantidad)
		if err := s.carritoRepo.Create(ctx, linea); err != nil {
			return nil, err
		}
	}

	linea.Producto = producto
	preciada, err := s.precios.PreciarItem(linea)
	if err != nil {
		return nil, err
	}
	resp := lineaToResponse(preciada)
	return &resp, nil
}

func (s *carritoService) agregarCalcomania(ctx context.Context, usuarioID, calcID uuid.UUID, tamano string, cantidad int) (*dto.ItemCarritoResponse, error) {
	calcomania, err := s.calcomaniaRepo.FindByID(ctx, calcID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: calcomania", apierror.ErrNotFound)
		}
		return nil, err
	}
	if !calcomania.Activo {
		return nil, fmt.Errorf("%w: calcomania", apierror.ErrNotFound)
	}
	if !model.TamanoValido(tamano) {
		return nil, fmt.Errorf("%w: tamano %q desconocido", apierror.ErrInvalidState, tamano)
	}

	linea, err := s.carritoRepo.FindLinea(ctx, usuarioID, model.ItemCalcomania, nil, &calcID, &tamano)
	total := cantidad
	existente := err == nil
	if existente {
		total += linea.Cantidad
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if total > CantidadMaxima {
		return nil, fmt.Errorf("%w: maximo %d unidades por item", apierror.ErrInvalidState, CantidadMaxima)
	}
	// Staff-owned stickers sell from physical stock; customer designs are
	// printed on demand, so only the flat ceiling applies to them.
	if esDeStaff(calcomania) && total > calcomania.StockPorTamano(tamano) {
		return nil, apierror.NewStock(calcomania.Nombre, calcomania.StockPorTamano(tamano))
	}

	if existente {
		if err := s.carritoRepo.UpdateCantidad(ctx, usuarioID, linea.ID, total); err != nil {
			return nil, err
		}
		linea.Cantidad = total
	} else {
		linea = model.NuevoItemCalcomania(usuarioID, calcID, tamano, cantidad)
		if err := s.carritoRepo.Create(ctx, linea); err != nil {
			return nil, err
		}
	}

	linea.Calcomania = calcomania
	preciada, err := s.precios.PreciarItem(linea)
	if err != nil {
		return nil, err
	}
	resp := lineaToResponse(preciada)
	return &resp, nil
}

// esDeStaff reports whether the sticker was created by a vendedor or gerente.
func esDeStaff(c *model.Calcomania) bool {
	if c.Usuario == nil {
		return false
	}
	return c.Usuario.TieneRol(model.RolVendedor) || c.Usuario.TieneRol(model.RolGerente)
}

func (s *carritoService) Listar(ctx context.Context, usuarioID uuid.UUID) (*dto.CarritoResponse, error) {
	items, err := s.carritoRepo.ListByUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	lineas, subtotal, descuento, err := s.precios.PreciarCarrito(items)
	if err != nil {
		return nil, err
	}
	resp := &dto.CarritoResponse{
		Items:          make([]dto.ItemCarritoResponse, 0, len(lineas)),
		Subtotal:       subtotal,
		DescuentoTotal: descuento,
	}
	for i := range lineas {
		resp.Items = append(resp.Items, lineaToResponse(&lineas[i]))
	}
	return resp, nil
}

// CambiarCantidad sets the absolute quantity of a line; 0 removes it. The
// same stock and ceiling rules as Agregar apply against the new value.
func (s *carritoService) CambiarCantidad(ctx context.Context, usuarioID, itemID uuid.UUID, cantidad int) (*dto.ItemCarritoResponse, error) {
	linea, err := s.carritoRepo.FindByID(ctx, usuarioID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item de carrito", apierror.ErrNotFound)
		}
		return nil, err
	}

	if cantidad == 0 {
		if err := s.carritoRepo.Delete(ctx, usuarioID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if cantidad > CantidadMaxima {
		return nil, fmt.Errorf("%w: maximo %d unidades por item", apierror.ErrInvalidState, CantidadMaxima)
	}

	switch linea.Tipo {
	case model.ItemProducto:
		if linea.Producto == nil {
			return nil, fmt.Errorf("%w: producto", apierror.ErrNotFound)
		}
		if cantidad > linea.Producto.Stock {
			return nil, apierror.NewStock(linea.Producto.Nombre, linea.Producto.Stock)
		}
	case model.ItemCalcomania:
		if linea.Calcomania == nil {
			return nil, fmt.Errorf("%w: calcomania", apierror.ErrNotFound)
		}
		if esDeStaff(linea.Calcomania) && linea.Tamano != nil &&
			cantidad > linea.Calcomania.StockPorTamano(*linea.Tamano) {
			return nil, apierror.NewStock(linea.Calcomania.Nombre, linea.Calcomania.StockPorTamano(*linea.Tamano))
		}
	}

	if err := s.carritoRepo.UpdateCantidad(ctx, usuarioID, itemID, cantidad); err != nil {
		return nil, err
	}
	linea.Cantidad = cantidad

	preciada, err := s.precios.PreciarItem(linea)
	if err != nil {
		return nil, err
	}
	resp := lineaToResponse(preciada)
	return &resp, nil
}

func (s *carritoService) Eliminar(ctx context.Context, usuarioID, itemID uuid.UUID) error {
	if _, err := s.carritoRepo.FindByID(ctx, usuarioID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: item de carrito", apierror.ErrNotFound)
		}
		return err
	}
	return s.carritoRepo.Delete(ctx, usuarioID, itemID)
}

func (s *carritoService) Vaciar(ctx context.Context, usuarioID uuid.UUID) error {
	db := s.carritoRepo.DB()
	if db != nil {
		db = db.WithContext(ctx)
	}
	return s.carritoRepo.VaciarTx(db, usuarioID)
}
