package tests

import (
	"context"
	"strings"
	"testing"
	"time"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/infra"
	"apolo/internal/model"
	"apolo/internal/repository"
	"apolo/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory UsuarioRepository stub ─────────────────────────────────────────

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
	roles    map[string]*model.Rol
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{
		usuarios: make(map[uuid.UUID]*model.Usuario),
		roles:    make(map[string]*model.Rol),
	}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) FindByCorreo(_ context.Context, correo string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if strings.EqualFold(u.Correo, correo) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) List(_ context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	var result []model.Usuario
	for _, u := range r.usuarios {
		if !incluirInactivos && !u.Activo {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = false
	return nil
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = true
	return nil
}

func (r *stubUsuarioRepo) FindRol(_ context.Context, nombre string) (*model.Rol, error) {
	if rol, ok := r.roles[nombre]; ok {
		return rol, nil
	}
	rol := &model.Rol{ID: uuid.New(), Nombre: nombre}
	r.roles[nombre] = rol
	return rol, nil
}

func (r *stubUsuarioRepo) AsignarRol(_ context.Context, usuarioID uuid.UUID, rol *model.Rol) error {
	u, ok := r.usuarios[usuarioID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Roles = append(u.Roles, *rol)
	return nil
}

func (r *stubUsuarioRepo) ReemplazarRoles(_ context.Context, u *model.Usuario, roles []model.Rol) error {
	u.Roles = roles
	return nil
}

func (r *stubUsuarioRepo) DB() *gorm.DB { return nil }

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── In-memory FacturaRepository stub ─────────────────────────────────────────

type stubFacturaRepo struct {
	facturas           map[uuid.UUID]*model.Factura
	detallesProducto   []model.DetalleFacturaProducto
	detallesCalcomania []model.DetalleFacturaCalcomania
}

func newStubFacturaRepo() *stubFacturaRepo {
	return &stubFacturaRepo{facturas: make(map[uuid.UUID]*model.Factura)}
}

func (r *stubFacturaRepo) CreateDraft(_ context.Context, f *model.Factura) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.facturas[f.ID] = f
	return nil
}

func (r *stubFacturaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Factura, error) {
	f, ok := r.facturas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *f
	return &copia, nil
}

func (r *stubFacturaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Factura, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubFacturaRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Factura, error) {
	var result []model.Factura
	for _, f := range r.facturas {
		if f.UsuarioID == usuarioID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (r *stubFacturaRepo) UpdateTx(_ *gorm.DB, f *model.Factura) error {
	if _, ok := r.facturas[f.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copia := *f
	copia.UpdatedAt = time.Now()
	r.facturas[f.ID] = &copia
	return nil
}

func (r *stubFacturaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	f, ok := r.facturas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.EstadoPedido = estado
	return nil
}

func (r *stubFacturaRepo) CreateDetalleProductoTx(_ *gorm.DB, d *model.DetalleFacturaProducto) error {
	r.detallesProducto = append(r.detallesProducto, *d)
	return nil
}

func (r *stubFacturaRepo) CreateDetalleCalcomaniaTx(_ *gorm.DB, d *model.DetalleFacturaCalcomania) error {
	r.detallesCalcomania = append(r.detallesCalcomania, *d)
	return nil
}

func (r *stubFacturaRepo) BarrerExpiradas(_ context.Context, limite time.Time) (int64, error) {
	var eliminadas int64
	for id, f := range r.facturas {
		if !model.EstadoTerminal(f.EstadoPedido) && f.Fecha.Before(limite) {
			delete(r.facturas, id)
			eliminadas++
		}
	}
	return eliminadas, nil
}

func (r *stubFacturaRepo) DB() *gorm.DB { return nil }

var _ repository.FacturaRepository = (*stubFacturaRepo)(nil)

// ── CheckoutService factory for tests ────────────────────────────────────────

type checkoutFixture struct {
	svc            service.CheckoutService
	usuarioRepo    *stubUsuarioRepo
	carritoRepo    *stubCarritoRepo
	facturaRepo    *stubFacturaRepo
	productoRepo   *stubProductoRepo
	calcomaniaRepo *stubCalcomaniaRepo
}

func buildCheckoutSvc() *checkoutFixture {
	cfg := newTestConfig()
	usuarioRepo := newStubUsuarioRepo()
	productoRepo := newStubProductoRepo()
	calcomaniaRepo := newStubCalcomaniaRepo()
	carritoRepo := newStubCarritoRepo(productoRepo, calcomaniaRepo)
	facturaRepo := newStubFacturaRepo()
	precios := service.NewPreciosService(cfg)
	carrito := service.NewCarritoService(carritoRepo, productoRepo, calcomaniaRepo, precios)
	store := infra.NewCheckoutStore(nil, 10*time.Minute)

	svc := service.NewCheckoutService(
		usuarioRepo, carritoRepo, facturaRepo, productoRepo, calcomaniaRepo,
		carrito, precios, store, nil,
		5*time.Minute,
	)
	return &checkoutFixture{
		svc:            svc,
		usuarioRepo:    usuarioRepo,
		carritoRepo:    carritoRepo,
		facturaRepo:    facturaRepo,
		productoRepo:   productoRepo,
		calcomaniaRepo: calcomaniaRepo,
	}
}

func direccionInvitado(carrito []dto.ItemInvitadoRequest) dto.DireccionRequest {
	return dto.DireccionRequest{
		Nombre:    "Laura Gomez",
		Cedula:    "1047382910",
		Telefono:  "3001234567",
		Correo:    "laura@test.com",
		Direccion: "Calle 45 # 12-34, Cartagena",
		Carrito:   carrito,
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCheckoutInvitado_FlujoDirectoCompleto(t *testing.T) {
	fx := buildCheckoutSvc()
	seedProducto(fx.productoRepo, "CASCO-01", "Casco integral", 150000, 10)
	vendedor := usuarioConRol(model.RolVendedor)
	fx.usuarioRepo.usuarios[vendedor.ID] = vendedor
	calc := seedCalcomania(fx.calcomaniaRepo, "Llama tribal", 40000, 5, vendedor)

	// Paso 1: direccion — guest account gets created and the cart imported
	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("CASCO-01"), Cantidad: 2},
		{CalcomaniaID: ptr(calc.ID.String()), Tamano: ptr(model.TamanoMediano), Cantidad: 1},
	}))
	require.NoError(t, err)
	assert.True(t, dir.NuevoRegistro)
	require.NotEmpty(t, dir.SesionToken)

	// Paso 2: resumen — 150000×2 + 40000×2.25 = 390000, más envio 14900
	resumen, err := fx.svc.Resumen(context.Background(), dir.SesionToken)
	require.NoError(t, err)
	assert.Equal(t, "390000", resumen.Subtotal.String())
	assert.Equal(t, "14900", resumen.CostoEnvio.String())
	assert.Equal(t, "404900", resumen.Total.String())

	// Paso 3: finalizar en efectivo — commits right away
	fin, err := fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{
		SesionToken: dir.SesionToken,
		MetodoPago:  ptr("efectivo"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCompletada, fin.Estado)
	assert.Equal(t, "404900", fin.Total.String())

	factura, err := fx.facturaRepo.FindByID(context.Background(), uuid.MustParse(fin.FacturaID))
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCompletada, factura.EstadoPedido)

	// Stock committed, details snapshotted, cart emptied
	assert.Equal(t, 8, fx.productoRepo.productos["CASCO-01"].Stock)
	assert.Equal(t, 4, fx.calcomaniaRepo.calcomanias[calc.ID].StockMediano)
	assert.Len(t, fx.facturaRepo.detallesProducto, 1)
	assert.Len(t, fx.facturaRepo.detallesCalcomania, 1)
	assert.Empty(t, fx.carritoRepo.items)

	// The session is gone: a replayed finalize cannot double-commit
	_, err = fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{SesionToken: dir.SesionToken})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestCheckoutInvitado_ReutilizaCuentaExistente(t *testing.T) {
	fx := buildCheckoutSvc()
	seedProducto(fx.productoRepo, "GUANTES-01", "Guantes", 80000, 10)

	existente := &model.Usuario{ID: uuid.New(), Nombre: "Laura", Correo: "laura@test.com", Activo: true}
	fx.usuarioRepo.usuarios[existente.ID] = existente

	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("GUANTES-01"), Cantidad: 1},
	}))
	require.NoError(t, err)
	assert.False(t, dir.NuevoRegistro)
	assert.Len(t, fx.usuarioRepo.usuarios, 1)
	// Contact data typed at checkout wins
	assert.Equal(t, "Laura Gomez", existente.Nombre)
}

func TestCheckoutAutenticado_CorreoAjeno(t *testing.T) {
	fx := buildCheckoutSvc()
	usuario := &model.Usuario{ID: uuid.New(), Nombre: "Pedro", Correo: "pedro@test.com", Activo: true}
	fx.usuarioRepo.usuarios[usuario.ID] = usuario

	req := direccionInvitado(nil)
	req.Correo = "otro@test.com"
	_, err := fx.svc.RegistrarDireccion(context.Background(), &usuario.ID, req)
	assert.ErrorIs(t, err, apierror.ErrForbidden)
}

func TestCheckoutAutenticado_CarritoVacio(t *testing.T) {
	fx := buildCheckoutSvc()
	usuario := &model.Usuario{ID: uuid.New(), Nombre: "Pedro", Correo: "pedro@test.com", Activo: true}
	fx.usuarioRepo.usuarios[usuario.ID] = usuario

	req := direccionInvitado(nil)
	req.Correo = "pedro@test.com"
	_, err := fx.svc.RegistrarDireccion(context.Background(), &usuario.ID, req)
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
}

func TestFinalizarPasarela_CongelaTotalesSinCommit(t *testing.T) {
	fx := buildCheckoutSvc()
	seedProducto(fx.productoRepo, "CASCO-01", "Casco integral", 150000, 10)

	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("CASCO-01"), Cantidad: 2},
	}))
	require.NoError(t, err)

	fin, err := fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{SesionToken: dir.SesionToken})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPendiente, fin.Estado)
	assert.Equal(t, "314900", fin.Total.String()) // 300000 + 14900

	// Nothing committed yet: stock intact, cart intact, session still open
	assert.Equal(t, 10, fx.productoRepo.productos["CASCO-01"].Stock)
	assert.Len(t, fx.carritoRepo.items, 1)
	_, err = fx.svc.Resumen(context.Background(), dir.SesionToken)
	assert.NoError(t, err)

	// Totals are frozen on the draft for the gateway reference
	factura, err := fx.facturaRepo.FindByID(context.Background(), uuid.MustParse(fin.FacturaID))
	require.NoError(t, err)
	assert.Equal(t, "314900", factura.Total.String())
	assert.Equal(t, model.EstadoPendiente, factura.EstadoPedido)
}

func TestCompletarPorPasarela_CommitEIdempotencia(t *testing.T) {
	fx := buildCheckoutSvc()
	seedProducto(fx.productoRepo, "CASCO-01", "Casco integral", 150000, 10)

	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("CASCO-01"), Cantidad: 2},
	}))
	require.NoError(t, err)
	fin, err := fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{SesionToken: dir.SesionToken})
	require.NoError(t, err)

	facturaID := uuid.MustParse(fin.FacturaID)
	info := service.TransaccionInfo{ID: "trx-123", Estado: "APPROVED", Metodo: "CARD"}

	require.NoError(t, fx.svc.CompletarPorPasarela(context.Background(), facturaID, info))
	assert.Equal(t, 8, fx.productoRepo.productos["CASCO-01"].Stock)

	factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
	assert.Equal(t, model.EstadoCompletada, factura.EstadoPedido)
	require.NotNil(t, factura.TransaccionID)
	assert.Equal(t, "trx-123", *factura.TransaccionID)

	// Duplicate webhook delivery: acknowledged, no double decrement
	require.NoError(t, fx.svc.CompletarPorPasarela(context.Background(), facturaID, info))
	assert.Equal(t, 8, fx.productoRepo.productos["CASCO-01"].Stock)
	assert.Len(t, fx.facturaRepo.detallesProducto, 1)
}

func TestCompletarPorPasarela_StockAgotadoParaEnErrorPago(t *testing.T) {
	fx := buildCheckoutSvc()
	seedProducto(fx.productoRepo, "CASCO-01", "Casco integral", 150000, 2)

	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("CASCO-01"), Cantidad: 2},
	}))
	require.NoError(t, err)
	fin, err := fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{SesionToken: dir.SesionToken})
	require.NoError(t, err)
	facturaID := uuid.MustParse(fin.FacturaID)

	// Someone else takes the last units between redirect and webhook
	fx.productoRepo.productos["CASCO-01"].Stock = 1

	info := service.TransaccionInfo{ID: "trx-456", Estado: "APPROVED", Metodo: "CARD"}
	require.NoError(t, fx.svc.CompletarPorPasarela(context.Background(), facturaID, info))

	factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
	assert.Equal(t, model.EstadoErrorPago, factura.EstadoPedido)
	// The remaining unit was not consumed
	assert.Equal(t, 1, fx.productoRepo.productos["CASCO-01"].Stock)
}

func TestCompletarPorPasarela_CarritoVaciadoParaEnErrorPago(t *testing.T) {
	fx := buildCheckoutSvc()
	seedProducto(fx.productoRepo, "CASCO-01", "Casco integral", 150000, 10)

	dir, err := fx.svc.RegistrarDireccion(context.Background(), nil, direccionInvitado([]dto.ItemInvitadoRequest{
		{Referencia: ptr("CASCO-01"), Cantidad: 2},
	}))
	require.NoError(t, err)
	fin, err := fx.svc.Finalizar(context.Background(), dto.FinalizarRequest{SesionToken: dir.SesionToken})
	require.NoError(t, err)
	facturaID := uuid.MustParse(fin.FacturaID)

	// Another device empties the cart while the gateway redirect is open
	for id := range fx.carritoRepo.items {
		delete(fx.carritoRepo.items, id)
	}

	info := service.TransaccionInfo{ID: "trx-457", Estado: "APPROVED", Metodo: "CARD"}
	require.NoError(t, fx.svc.CompletarPorPasarela(context.Background(), facturaID, info))

	// Money collected but nothing to ship: staff review, never a silent
	// Completada with zero detail rows
	factura, _ := fx.facturaRepo.FindByID(context.Background(), facturaID)
	assert.Equal(t, model.EstadoErrorPago, factura.EstadoPedido)
	assert.Empty(t, fx.facturaRepo.detallesProducto)
	assert.Equal(t, 10, fx.productoRepo.productos["CASCO-01"].Stock)
}

func TestMarcarEstado_NoTocaFacturaTerminal(t *testing.T) {
	fx := buildCheckoutSvc()
	factura := &model.Factura{
		UsuarioID:    uuid.New(),
		Fecha:        time.Now(),
		EstadoPedido: model.EstadoCompletada,
	}
	require.NoError(t, fx.facturaRepo.CreateDraft(context.Background(), factura))

	info := service.TransaccionInfo{ID: "trx-789", Estado: "DECLINED", Metodo: "NEQUI"}
	require.NoError(t, fx.svc.MarcarEstado(context.Background(), factura.ID, model.EstadoRechazada, info))

	actual, _ := fx.facturaRepo.FindByID(context.Background(), factura.ID)
	assert.Equal(t, model.EstadoCompletada, actual.EstadoPedido)
	assert.Nil(t, actual.TransaccionID)
}

func TestBarrerExpiradas(t *testing.T) {
	fx := buildCheckoutSvc()
	vieja := &model.Factura{UsuarioID: uuid.New(), Fecha: time.Now().Add(-time.Hour), EstadoPedido: model.EstadoPendiente}
	reciente := &model.Factura{UsuarioID: uuid.New(), Fecha: time.Now(), EstadoPedido: model.EstadoPendiente}
	completada := &model.Factura{UsuarioID: uuid.New(), Fecha: time.Now().Add(-time.Hour), EstadoPedido: model.EstadoCompletada}
	// ErrorPago records a collected payment: the sweeper must never erase it
	errorPago := &model.Factura{UsuarioID: uuid.New(), Fecha: time.Now().Add(-time.Hour), EstadoPedido: model.EstadoErrorPago}
	for _, f := range []*model.Factura{vieja, reciente, completada, errorPago} {
		require.NoError(t, fx.facturaRepo.CreateDraft(context.Background(), f))
	}

	eliminadas, err := fx.svc.BarrerExpiradas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), eliminadas)

	_, err = fx.facturaRepo.FindByID(context.Background(), vieja.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = fx.facturaRepo.FindByID(context.Background(), completada.ID)
	assert.NoError(t, err)
	_, err = fx.facturaRepo.FindByID(context.Background(), errorPago.ID)
	assert.NoError(t, err)
}

func TestErrorPagoEsTerminal(t *testing.T) {
	fx := buildCheckoutSvc()
	factura := &model.Factura{
		UsuarioID:    uuid.New(),
		Fecha:        time.Now(),
		EstadoPedido: model.EstadoErrorPago,
	}
	require.NoError(t, fx.facturaRepo.CreateDraft(context.Background(), factura))

	// Neither a late approval nor another status change may move it:
	// resolution is manual once the money has been collected.
	info := service.TransaccionInfo{ID: "trx-900", Estado: "APPROVED", Metodo: "CARD"}
	require.NoError(t, fx.svc.CompletarPorPasarela(context.Background(), factura.ID, info))
	require.NoError(t, fx.svc.MarcarEstado(context.Background(), factura.ID, model.EstadoRechazada, info))

	actual, _ := fx.facturaRepo.FindByID(context.Background(), factura.ID)
	assert.Equal(t, model.EstadoErrorPago, actual.EstadoPedido)
	assert.Nil(t, actual.TransaccionID)
}
