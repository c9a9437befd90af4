package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/infra"
	"apolo/internal/model"
	"apolo/internal/repository"
	"apolo/internal/worker"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TransaccionInfo carries the gateway fields written onto a factura when a
// webhook (or a direct sale) settles it.
type TransaccionInfo struct {
	ID     string
	Estado string
	Metodo string
}

// CheckoutService implements the three-step purchase pipeline: address →
// summary → finalize, plus the completion entry points the payment webhook
// uses. All stock movement happens inside one transaction per factura.
type CheckoutService interface {
	RegistrarDireccion(ctx context.Context, usuarioID *uuid.UUID, req dto.DireccionRequest) (*dto.DireccionResponse, error)
	Resumen(ctx context.Context, token string) (*dto.ResumenResponse, error)
	Finalizar(ctx context.Context, req dto.FinalizarRequest) (*dto.FinalizarResponse, error)

	// CompletarPorPasarela commits stock and details for an approved gateway
	// payment. Safe to call more than once: a factura already in a terminal
	// state is left untouched.
	CompletarPorPasarela(ctx context.Context, facturaID uuid.UUID, info TransaccionInfo) error
	// MarcarEstado moves a factura to a non-approved outcome (Rechazada,
	// Cancelada, ErrorPago), skipping facturas already terminal.
	MarcarEstado(ctx context.Context, facturaID uuid.UUID, estado string, info TransaccionInfo) error

	EstadoFactura(ctx context.Context, facturaID uuid.UUID) (*dto.FacturaEstadoResponse, error)
	BarrerExpiradas(ctx context.Context) (int64, error)
}

type checkoutService struct {
	usuarioRepo    repository.UsuarioRepository
	carritoRepo    repository.CarritoRepository
	facturaRepo    repository.FacturaRepository
	productoRepo   repository.ProductoRepository
	calcomaniaRepo repository.CalcomaniaRepository
	carrito        CarritoService
	precios        PreciosService
	store          *infra.CheckoutStore
	dispatcher     *worker.Dispatcher
	expiracion     time.Duration
}

func NewCheckoutService(
	usuarioRepo repository.UsuarioRepository,
	carritoRepo repository.CarritoRepository,
	facturaRepo repository.FacturaRepository,
	productoRepo repository.ProductoRepository,
	calcomaniaRepo repository.CalcomaniaRepository,
	carrito CarritoService,
	precios PreciosService,
	store *infra.CheckoutStore,
	dispatcher *worker.Dispatcher,
	expiracion time.Duration,
) CheckoutService {
	return &checkoutService{
		usuarioRepo:    usuarioRepo,
		carritoRepo:    carritoRepo,
		facturaRepo:    facturaRepo,
		productoRepo:   productoRepo,
		calcomaniaRepo: calcomaniaRepo,
		carrito:        carrito,
		precios:        precios,
		store:          store,
		dispatcher:     dispatcher,
		expiracion:     expiracion,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Paso 1: direccion ────────────────────────────────────────────────────────

// RegistrarDireccion resolves the purchasing identity, creates the draft
// factura and opens the checkout session.
//
// Authenticated callers must present their own correo — a mismatch is
// forbidden, not a silent identity switch. Guests are matched to an existing
// account by correo or get a fresh cliente account with a random password;
// their client-side cart is merged into the server-side one so the rest of
// the pipeline reads a single source.
func (s *checkoutService) RegistrarDireccion(ctx context.Context, usuarioID *uuid.UUID, req dto.DireccionRequest) (*dto.DireccionResponse, error) {
	var usuario *model.Usuario
	nuevoRegistro := false

	if usuarioID != nil {
		u, err := s.usuarioRepo.FindByID(ctx, *usuarioID)
		if err != nil {
			return nil, fmt.Errorf("%w: usuario", apierror.ErrNotFound)
		}
		if !strings.EqualFold(u.Correo, req.Correo) {
			return nil, fmt.Errorf("%w: el correo no corresponde al usuario autenticado", apierror.ErrForbidden)
		}
		items, err := s.carritoRepo.ListByUsuario(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: el carrito esta vacio", apierror.ErrInvalidState)
		}
		usuario = u
	} else {
		if len(req.Carrito) == 0 {
			return nil, fmt.Errorf("%w: se requiere el carrito de la compra", apierror.ErrInvalidState)
		}
		u, err := s.resolverInvitado(ctx, req)
		if err != nil {
			return nil, err
		}
		usuario, nuevoRegistro = u.usuario, u.nuevo
		if err := s.importarCarritoInvitado(ctx, usuario.ID, req.Carrito); err != nil {
			return nil, err
		}
	}

	// Keep the newest contact data the buyer typed at checkout
	usuario.Nombre = req.Nombre
	usuario.Cedula = &req.Cedula
	usuario.Telefono = &req.Telefono
	if err := s.usuarioRepo.Update(ctx, usuario); err != nil {
		return nil, err
	}

	factura := &model.Factura{
		UsuarioID:     usuario.ID,
		Fecha:         time.Now(),
		Direccion:     &req.Direccion,
		InfoAdicional: req.InfoAdicional,
		EstadoPedido:  model.EstadoPendiente,
	}
	if err := s.facturaRepo.CreateDraft(ctx, factura); err != nil {
		return nil, err
	}

	token, err := s.store.Crear(ctx, infra.SesionCompra{
		FacturaID:     factura.ID,
		UsuarioID:     usuario.ID,
		NuevoRegistro: nuevoRegistro,
	})
	if err != nil {
		return nil, err
	}

	return &dto.DireccionResponse{
		SesionToken:   token,
		FacturaID:     factura.ID.String(),
		NuevoRegistro: nuevoRegistro,
	}, nil
}

type invitadoResuelto struct {
	usuario *model.Usuario
	nuevo   bool
}

func (s *checkoutService) resolverInvitado(ctx context.Context, req dto.DireccionRequest) (*invitadoResuelto, error) {
	if u, err := s.usuarioRepo.FindByCorreo(ctx, req.Correo); err == nil {
		return &invitadoResuelto{usuario: u}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Guest accounts are real accounts: a random password keeps the row
	// normal, and the buyer can claim it later via password recovery.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)
	u := &model.Usuario{
		Nombre:       req.Nombre,
		Correo:       strings.ToLower(req.Correo),
		PasswordHash: &hashStr,
		Activo:       true,
	}
	if err := s.usuarioRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	if rol, err := s.usuarioRepo.FindRol(ctx, model.RolCliente); err == nil {
		_ = s.usuarioRepo.AsignarRol(ctx, u.ID, rol)
	}
	return &invitadoResuelto{usuario: u, nuevo: true}, nil
}

// importarCarritoInvitado merges the client-side cart into the resolved
// user's server-side cart line by line, reusing the same validation the
// regular add endpoint applies.
func (s *checkoutService) importarCarritoInvitado(ctx context.Context, usuarioID uuid.UUID, lineas []dto.ItemInvitadoRequest) error {
	for _, l := range lineas {
		req := dto.AgregarItemRequest{
			Referencia:   l.Referencia,
			CalcomaniaID: l.CalcomaniaID,
			Tamano:       l.Tamano,
			Cantidad:     l.Cantidad,
		}
		if _, err := s.carrito.Agregar(ctx, usuarioID, req); err != nil {
			return err
		}
	}
	return nil
}

// ── Paso 2: resumen ──────────────────────────────────────────────────────────

func (s *checkoutService) Resumen(ctx context.Context, token string) (*dto.ResumenResponse, error) {
	sesion, err := s.obtenerSesion(ctx, token)
	if err != nil {
		return nil, err
	}
	items, err := s.carritoRepo.ListByUsuario(ctx, sesion.UsuarioID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: el carrito esta vacio", apierror.ErrInvalidState)
	}
	lineas, subtotal, descuento, err := s.precios.PreciarCarrito(items)
	if err != nil {
		return nil, err
	}

	envio := s.precios.CostoEnvio()
	resp := &dto.ResumenResponse{
		Items:          make([]dto.ItemCarritoResponse, 0, len(lineas)),
		Subtotal:       subtotal,
		DescuentoTotal: descuento,
		CostoEnvio:     envio,
		Total:          subtotal.Add(envio),
	}
	for i := range lineas {
		resp.Items = append(resp.Items, lineaToResponse(&lineas[i]))
	}
	return resp, nil
}

// ── Paso 3: finalizar ────────────────────────────────────────────────────────

// Finalizar closes the checkout session. Gateway payments only freeze the
// totals onto the Pendiente factura — stock commits when the webhook reports
// the payment approved. Direct methods (efectivo, tarjeta, transferencia)
// commit stock, snapshot details and clear the cart right here.
func (s *checkoutService) Finalizar(ctx context.Context, req dto.FinalizarRequest) (*dto.FinalizarResponse, error) {
	sesion, err := s.obtenerSesion(ctx, req.SesionToken)
	if err != nil {
		return nil, err
	}

	factura, err := s.facturaRepo.FindByID(ctx, sesion.FacturaID)
	if err != nil {
		return nil, fmt.Errorf("%w: factura", apierror.ErrNotFound)
	}
	if model.EstadoTerminal(factura.EstadoPedido) {
		return nil, fmt.Errorf("%w: la factura ya fue %s", apierror.ErrInvalidState, factura.EstadoPedido)
	}

	items, err := s.carritoRepo.ListByUsuario(ctx, sesion.UsuarioID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: el carrito esta vacio", apierror.ErrInvalidState)
	}
	lineas, subtotal, descuento, err := s.precios.PreciarCarrito(items)
	if err != nil {
		return nil, err
	}

	envio := s.precios.CostoEnvio()
	factura.Subtotal = subtotal
	factura.DescuentoTotal = descuento
	factura.CostoEnvio = envio
	factura.Total = subtotal.Add(envio)

	metodo := "pasarela"
	if req.MetodoPago != nil {
		metodo = *req.MetodoPago
	}
	factura.MetodoPago = &metodo

	if metodo == "pasarela" {
		// The session stays open (it expires on its own) so the frontend can
		// re-read the summary while the gateway redirect is in flight.
		if err := runTx(ctx, s.facturaRepo.DB(), func(tx *gorm.DB) error {
			return s.facturaRepo.UpdateTx(tx, factura)
		}); err != nil {
			return nil, err
		}
		return &dto.FinalizarResponse{
			FacturaID: factura.ID.String(),
			Total:     factura.Total,
			Estado:    model.EstadoPendiente,
		}, nil
	}

	if err := s.commitFactura(ctx, factura, lineas, nil); err != nil {
		return nil, err
	}

	_ = s.store.Eliminar(ctx, req.SesionToken)
	s.encolarEmail(ctx, factura.ID, sesion.UsuarioID)

	return &dto.FinalizarResponse{
		FacturaID: factura.ID.String(),
		Total:     factura.Total,
		Estado:    model.EstadoCompletada,
	}, nil
}

// commitFactura runs the atomic completion: estado recheck, guarded stock
// decrements, detail snapshots, totals, estado Completada and cart clear —
// all inside one transaction. info carries gateway transaction fields when
// the commit comes from a webhook.
func (s *checkoutService) commitFactura(ctx context.Context, factura *model.Factura, lineas []LineaPreciada, info *TransaccionInfo) error {
	return runTx(ctx, s.facturaRepo.DB(), func(tx *gorm.DB) error {
		actual, err := s.facturaRepo.FindByIDTx(tx, factura.ID)
		if err != nil {
			return err
		}
		if model.EstadoTerminal(actual.EstadoPedido) {
			// Duplicate delivery raced us past the outer check; nothing to do.
			return nil
		}

		for i := range lineas {
			if err := s.descontarLinea(tx, &lineas[i]); err != nil {
				return err
			}
			if err := s.crearDetalle(tx, factura.ID, &lineas[i]); err != nil {
				return err
			}
		}

		actual.Subtotal = factura.Subtotal
		actual.DescuentoTotal = factura.DescuentoTotal
		actual.CostoEnvio = factura.CostoEnvio
		actual.Total = factura.Total
		actual.MetodoPago = factura.MetodoPago
		actual.EstadoPedido = model.EstadoCompletada
		if info != nil {
			actual.TransaccionID = &info.ID
			actual.EstadoTransaccion = &info.Estado
			actual.MetodoTransaccion = &info.Metodo
		}
		if err := s.facturaRepo.UpdateTx(tx, actual); err != nil {
			return err
		}
		return s.carritoRepo.VaciarTx(tx, factura.UsuarioID)
	})
}

// descontarLinea applies the guarded decrement for one line, translating an
// insufficient-stock failure into a client-facing error with the remaining
// quantity. Customer-designed stickers are printed on demand and skip the
// decrement entirely.
func (s *checkoutService) descontarLinea(tx *gorm.DB, linea *LineaPreciada) error {
	item := linea.Item
	switch item.Tipo {
	case model.ItemProducto:
		err := s.productoRepo.DescontarStockTx(tx, *item.ProductoReferencia, item.Cantidad)
		if errors.Is(err, repository.ErrStockInsuficiente) {
			disponible := 0
			if p, ferr := s.productoRepo.FindByReferenciaTx(tx, *item.ProductoReferencia); ferr == nil {
				disponible = p.Stock
			}
			return apierror.NewStock(linea.Nombre, disponible)
		}
		return err
	case model.ItemCalcomania:
		if item.Calcomania != nil && !esDeStaff(item.Calcomania) {
			return nil
		}
		err := s.calcomaniaRepo.DescontarStockTx(tx, *item.CalcomaniaID, *item.Tamano, item.Cantidad)
		if errors.Is(err, repository.ErrStockInsuficiente) {
			disponible := 0
			if item.Calcomania != nil {
				disponible = item.Calcomania.StockPorTamano(*item.Tamano)
			}
			return apierror.NewStock(linea.Nombre, disponible)
		}
		return err
	}
	return fmt.Errorf("tipo de item desconocido: %q", item.Tipo)
}

func (s *checkoutService) crearDetalle(tx *gorm.DB, facturaID uuid.UUID, linea *LineaPreciada) error {
	item := linea.Item
	if item.Tipo == model.ItemProducto {
		return s.facturaRepo.CreateDetalleProductoTx(tx, &model.DetalleFacturaProducto{
			FacturaID:          facturaID,
			ProductoReferencia: *item.ProductoReferencia,
			Cantidad:           item.Cantidad,
			PrecioUnidad:       linea.PrecioRebajado,
		})
	}
	return s.facturaRepo.CreateDetalleCalcomaniaTx(tx, &model.DetalleFacturaCalcomania{
		FacturaID:    facturaID,
		CalcomaniaID: *item.CalcomaniaID,
		Tamano:       *item.Tamano,
		Cantidad:     item.Cantidad,
		PrecioUnidad: linea.PrecioRebajado,
	})
}

// ── Webhook entry points ─────────────────────────────────────────────────────

func (s *checkoutService) CompletarPorPasarela(ctx context.Context, facturaID uuid.UUID, info TransaccionInfo) error {
	factura, err := s.facturaRepo.FindByID(ctx, facturaID)
	if err != nil {
		return fmt.Errorf("%w: factura", apierror.ErrNotFound)
	}
	if model.EstadoTerminal(factura.EstadoPedido) {
		return nil
	}

	items, err := s.carritoRepo.ListByUsuario(ctx, factura.UsuarioID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		// The cart vanished between redirect and webhook (another device
		// emptied it). A committed duplicate never reaches here: the
		// terminal check above already acknowledged it. The money moved but
		// there is nothing to ship, so park the factura for staff review.
		return s.MarcarEstado(ctx, facturaID, model.EstadoErrorPago, info)
	}
	lineas, subtotal, descuento, err := s.precios.PreciarCarrito(items)
	if err != nil {
		return err
	}
	envio := s.precios.CostoEnvio()
	factura.Subtotal = subtotal
	factura.DescuentoTotal = descuento
	factura.CostoEnvio = envio
	factura.Total = subtotal.Add(envio)

	err = s.commitFactura(ctx, factura, lineas, &info)

	var stockErr *apierror.StockError
	if errors.As(err, &stockErr) {
		// Payment approved but stock ran out before the commit: the factura
		// parks in ErrorPago for staff, never silently Completada.
		return s.MarcarEstado(ctx, facturaID, model.EstadoErrorPago, info)
	}
	if err != nil {
		return err
	}

	s.encolarEmail(ctx, facturaID, factura.UsuarioID)
	return nil
}

func (s *checkoutService) MarcarEstado(ctx context.Context, facturaID uuid.UUID, estado string, info TransaccionInfo) error {
	return runTx(ctx, s.facturaRepo.DB(), func(tx *gorm.DB) error {
		factura, err := s.facturaRepo.FindByIDTx(tx, facturaID)
		if err != nil {
			return fmt.Errorf("%w: factura", apierror.ErrNotFound)
		}
		if model.EstadoTerminal(factura.EstadoPedido) {
			return nil
		}
		factura.EstadoPedido = estado
		factura.TransaccionID = &info.ID
		factura.EstadoTransaccion = &info.Estado
		factura.MetodoTransaccion = &info.Metodo
		return s.facturaRepo.UpdateTx(tx, factura)
	})
}

// ── Consultas y barrido ──────────────────────────────────────────────────────

func (s *checkoutService) EstadoFactura(ctx context.Context, facturaID uuid.UUID) (*dto.FacturaEstadoResponse, error) {
	factura, err := s.facturaRepo.FindByID(ctx, facturaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: factura", apierror.ErrNotFound)
		}
		return nil, err
	}
	return &dto.FacturaEstadoResponse{
		FacturaID:         factura.ID.String(),
		Estado:            factura.EstadoPedido,
		EstadoTransaccion: factura.EstadoTransaccion,
		Total:             factura.Total,
		Actualizada:       factura.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *checkoutService) BarrerExpiradas(ctx context.Context) (int64, error) {
	return s.facturaRepo.BarrerExpiradas(ctx, time.Now().Add(-s.expiracion))
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *checkoutService) obtenerSesion(ctx context.Context, token string) (*infra.SesionCompra, error) {
	sesion, err := s.store.Obtener(ctx, token)
	if err != nil {
		if errors.Is(err, infra.ErrSesionNoEncontrada) {
			return nil, fmt.Errorf("%w: sesion de compra", apierror.ErrNotFound)
		}
		return nil, err
	}
	return sesion, nil
}

// encolarEmail queues the invoice email best-effort: the factura is already
// committed, a queueing failure must not undo the sale.
func (s *checkoutService) encolarEmail(ctx context.Context, facturaID, usuarioID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	usuario, err := s.usuarioRepo.FindByID(ctx, usuarioID)
	if err != nil {
		return
	}
	_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		FacturaID: facturaID.String(),
		ToEmail:   usuario.Correo,
	})
}
