package service

import (
	"fmt"

	"apolo/internal/apierror"
	"apolo/internal/config"
	"apolo/internal/dto"
	"apolo/internal/model"

	"github.com/shopspring/decimal"
)

// LineaPreciada is one cart line with every price the pipeline needs:
// the original unit price, the unit price actually charged, and the line
// subtotal rounded to 2 decimals before any summation.
type LineaPreciada struct {
	Item           *model.ItemCarrito
	Nombre         string
	PrecioUnidad   decimal.Decimal // list price, size-scaled for stickers
	PrecioRebajado decimal.Decimal // charged price; equals PrecioUnidad without discount
	Subtotal       decimal.Decimal
	Descuento      decimal.Decimal
}

// PreciosService is the single pricing authority. Every call site — cart
// listing, checkout summary, finalize, webhook completion — goes through it
// so the sticker multiplier table can never diverge again.
type PreciosService interface {
	PreciarItem(item *model.ItemCarrito) (*LineaPreciada, error)
	PreciarCarrito(items []model.ItemCarrito) ([]LineaPreciada, decimal.Decimal, decimal.Decimal, error)
	CostoEnvio() decimal.Decimal
	MultiplicadorPorTamano(tamano string) (decimal.Decimal, error)
}

type preciosService struct {
	costoEnvio decimal.Decimal
	multMediano decimal.Decimal
	multGrande  decimal.Decimal
}

func NewPreciosService(cfg *config.Config) PreciosService {
	return &preciosService{
		costoEnvio:  cfg.CostoEnvio,
		multMediano: cfg.MultiplicadorMediano,
		multGrande:  cfg.MultiplicadorGrande,
	}
}

func (s *preciosService) CostoEnvio() decimal.Decimal { return s.costoEnvio }

// MultiplicadorPorTamano returns the size factor applied to a sticker's base
// price: pequeno ×1, mediano and grande from config (2.25 / 4.00 defaults).
func (s *preciosService) MultiplicadorPorTamano(tamano string) (decimal.Decimal, error) {
	switch tamano {
	case model.TamanoPequeno:
		return decimal.NewFromInt(1), nil
	case model.TamanoMediano:
		return s.multMediano, nil
	case model.TamanoGrande:
		return s.multGrande, nil
	}
	return decimal.Zero, fmt.Errorf("%w: tamano %q desconocido", apierror.ErrInvalidState, tamano)
}

// PreciarItem computes the charged prices for one line. The item must carry
// its preloaded Producto or Calcomania; a missing catalog row is not-found.
func (s *preciosService) PreciarItem(item *model.ItemCarrito) (*LineaPreciada, error) {
	linea := &LineaPreciada{Item: item}

	switch item.Tipo {
	case model.ItemProducto:
		p := item.Producto
		if p == nil {
			return nil, fmt.Errorf("%w: producto", apierror.ErrNotFound)
		}
		linea.Nombre = p.Nombre
		linea.PrecioUnidad = p.PrecioUnidad
		linea.PrecioRebajado = p.PrecioVigente()

	case model.ItemCalcomania:
		c := item.Calcomania
		if c == nil {
			return nil, fmt.Errorf("%w: calcomania", apierror.ErrNotFound)
		}
		if item.Tamano == nil {
			return nil, fmt.Errorf("%w: tamano requerido para calcomanias", apierror.ErrInvalidState)
		}
		mult, err := s.MultiplicadorPorTamano(*item.Tamano)
		if err != nil {
			return nil, err
		}
		linea.Nombre = c.Nombre
		linea.PrecioUnidad = c.PrecioUnidad.Mul(mult).Round(2)
		linea.PrecioRebajado = c.PrecioVigente().Mul(mult).Round(2)

	default:
		return nil, fmt.Errorf("%w: tipo de item %q", apierror.ErrInvalidState, item.Tipo)
	}

	qty := decimal.NewFromInt(int64(item.Cantidad))
	linea.Subtotal = linea.PrecioRebajado.Mul(qty).Round(2)
	linea.Descuento = linea.PrecioUnidad.Sub(linea.PrecioRebajado).Mul(qty).Round(2)
	return linea, nil
}

// PreciarCarrito prices every line and returns (lineas, subtotal,
// descuentoTotal). Rounding happens per line, before summation, so totals
// never drift from what each line shows.
func (s *preciosService) PreciarCarrito(items []model.ItemCarrito) ([]LineaPreciada, decimal.Decimal, decimal.Decimal, error) {
	lineas := make([]LineaPreciada, 0, len(items))
	subtotal := decimal.Zero
	descuento := decimal.Zero
	for i := range items {
		linea, err := s.PreciarItem(&items[i])
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		subtotal = subtotal.Add(linea.Subtotal)
		descuento = descuento.Add(linea.Descuento)
		lineas = append(lineas, *linea)
	}
	return lineas, subtotal, descuento, nil
}

// lineaToResponse converts a priced line into its API shape.
func lineaToResponse(l *LineaPreciada) dto.ItemCarritoResponse {
	resp := dto.ItemCarritoResponse{
		ID:             l.Item.ID.String(),
		Tipo:           l.Item.Tipo,
		Nombre:         l.Nombre,
		Tamano:         l.Item.Tamano,
		Cantidad:       l.Item.Cantidad,
		PrecioUnidad:   l.PrecioUnidad,
		PrecioRebajado: l.PrecioRebajado,
		Subtotal:       l.Subtotal,
	}
	if l.Item.ProductoReferencia != nil {
		resp.Referencia = l.Item.ProductoReferencia
	}
	if l.Item.CalcomaniaID != nil {
		id := l.Item.CalcomaniaID.String()
		resp.CalcomaniaID = &id
	}
	return resp
}
