package tests

import (
	"context"
	"testing"

	"apolo/internal/apierror"
	"apolo/internal/config"
	"apolo/internal/dto"
	"apolo/internal/model"
	"apolo/internal/repository"
	"apolo/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory ProductoRepository stub ────────────────────────────────────────

type stubProductoRepo struct {
	productos map[string]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[string]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.productos[p.Referencia] = p
	return nil
}

func (r *stubProductoRepo) FindByReferencia(_ context.Context, referencia string) (*model.Producto, error) {
	p, ok := r.productos[referencia]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) FindByNombre(_ context.Context, nombre string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.Nombre == nombre && p.Activo {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	var result []model.Producto
	for _, p := range r.productos {
		if p.Activo {
			result = append(result, *p)
		}
	}
	return result, int64(len(result)), nil
}

func (r *stubProductoRepo) ListConStock(_ context.Context) ([]model.Producto, error) {
	var result []model.Producto
	for _, p := range r.productos {
		if p.Activo && p.Stock > 0 {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.Referencia] = p
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, referencia string) error {
	p, ok := r.productos[referencia]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

func (r *stubProductoRepo) Reactivar(_ context.Context, referencia string) error {
	p, ok := r.productos[referencia]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = true
	return nil
}

func (r *stubProductoRepo) ReemplazarImagenes(_ context.Context, _ string, _ []string) error {
	return nil
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, referencia string, cantidad int) error {
	p, ok := r.productos[referencia]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if p.Stock < cantidad {
		return repository.ErrStockInsuficiente
	}
	p.Stock -= cantidad
	return nil
}

func (r *stubProductoRepo) AumentarStockTx(_ *gorm.DB, referencia string, cantidad int) error {
	p, ok := r.productos[referencia]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += cantidad
	return nil
}

func (r *stubProductoRepo) FindByReferenciaTx(_ *gorm.DB, referencia string) (*model.Producto, error) {
	p, ok := r.productos[referencia]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── In-memory CalcomaniaRepository stub ──────────────────────────────────────

type stubCalcomaniaRepo struct {
	calcomanias map[uuid.UUID]*model.Calcomania
}

func newStubCalcomaniaRepo() *stubCalcomaniaRepo {
	return &stubCalcomaniaRepo{calcomanias: make(map[uuid.UUID]*model.Calcomania)}
}

func (r *stubCalcomaniaRepo) Create(_ context.Context, c *model.Calcomania) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.calcomanias[c.ID] = c
	return nil
}

func (r *stubCalcomaniaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Calcomania, error) {
	c, ok := r.calcomanias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCalcomaniaRepo) List(_ context.Context, soloActivas bool) ([]model.Calcomania, error) {
	var result []model.Calcomania
	for _, c := range r.calcomanias {
		if soloActivas && !c.Activo {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (r *stubCalcomaniaRepo) ListConStock(_ context.Context) ([]model.Calcomania, error) {
	var result []model.Calcomania
	for _, c := range r.calcomanias {
		if c.Activo && c.StockPequeno+c.StockMediano+c.StockGrande > 0 {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *stubCalcomaniaRepo) Update(_ context.Context, c *model.Calcomania) error {
	r.calcomanias[c.ID] = c
	return nil
}

func (r *stubCalcomaniaRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.calcomanias[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Activo = false
	return nil
}

func (r *stubCalcomaniaRepo) DescontarStockTx(_ *gorm.DB, id uuid.UUID, tamano string, cantidad int) error {
	c, ok := r.calcomanias[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	switch tamano {
	case model.TamanoMediano:
		if c.StockMediano < cantidad {
			return repository.ErrStockInsuficiente
		}
		c.StockMediano -= cantidad
	case model.TamanoGrande:
		if c.StockGrande < cantidad {
			return repository.ErrStockInsuficiente
		}
		c.StockGrande -= cantidad
	default:
		if c.StockPequeno < cantidad {
			return repository.ErrStockInsuficiente
		}
		c.StockPequeno -= cantidad
	}
	return nil
}

func (r *stubCalcomaniaRepo) AumentarStockTx(_ *gorm.DB, id uuid.UUID, tamano string, cantidad int) error {
	c, ok := r.calcomanias[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	switch tamano {
	case model.TamanoMediano:
		c.StockMediano += cantidad
	case model.TamanoGrande:
		c.StockGrande += cantidad
	default:
		c.StockPequeno += cantidad
	}
	return nil
}

func (r *stubCalcomaniaRepo) DB() *gorm.DB { return nil }

var _ repository.CalcomaniaRepository = (*stubCalcomaniaRepo)(nil)

// ── In-memory CarritoRepository stub ─────────────────────────────────────────

// stubCarritoRepo attaches the catalog rows on read, standing in for the
// GORM preloads the real repository does.
type stubCarritoRepo struct {
	items       map[uuid.UUID]*model.ItemCarrito
	productos   *stubProductoRepo
	calcomanias *stubCalcomaniaRepo
}

func newStubCarritoRepo(p *stubProductoRepo, c *stubCalcomaniaRepo) *stubCarritoRepo {
	return &stubCarritoRepo{
		items:       make(map[uuid.UUID]*model.ItemCarrito),
		productos:   p,
		calcomanias: c,
	}
}

func (r *stubCarritoRepo) attach(item *model.ItemCarrito) {
	if item.ProductoReferencia != nil {
		item.Producto = r.productos.productos[*item.ProductoReferencia]
	}
	if item.CalcomaniaID != nil {
		item.Calcomania = r.calcomanias.calcomanias[*item.CalcomaniaID]
	}
}

func (r *stubCarritoRepo) Create(_ context.Context, item *model.ItemCarrito) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubCarritoRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.ItemCarrito, error) {
	var result []model.ItemCarrito
	for _, item := range r.items {
		if item.UsuarioID != usuarioID {
			continue
		}
		r.attach(item)
		result = append(result, *item)
	}
	return result, nil
}

func (r *stubCarritoRepo) FindLinea(_ context.Context, usuarioID uuid.UUID, tipo string, referencia *string, calcomaniaID *uuid.UUID, tamano *string) (*model.ItemCarrito, error) {
	for _, item := range r.items {
		if item.UsuarioID != usuarioID || item.Tipo != tipo {
			continue
		}
		if referencia != nil && (item.ProductoReferencia == nil || *item.ProductoReferencia != *referencia) {
			continue
		}
		if calcomaniaID != nil && (item.CalcomaniaID == nil || *item.CalcomaniaID != *calcomaniaID) {
			continue
		}
		if tamano != nil && (item.Tamano == nil || *item.Tamano != *tamano) {
			continue
		}
		r.attach(item)
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCarritoRepo) FindByID(_ context.Context, usuarioID, itemID uuid.UUID) (*model.ItemCarrito, error) {
	item, ok := r.items[itemID]
	if !ok || item.UsuarioID != usuarioID {
		return nil, gorm.ErrRecordNotFound
	}
	r.attach(item)
	return item, nil
}

func (r *stubCarritoRepo) UpdateCantidad(_ context.Context, usuarioID, itemID uuid.UUID, cantidad int) error {
	item, ok := r.items[itemID]
	if !ok || item.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	item.Cantidad = cantidad
	return nil
}

func (r *stubCarritoRepo) Delete(_ context.Context, usuarioID, itemID uuid.UUID) error {
	item, ok := r.items[itemID]
	if !ok || item.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *stubCarritoRepo) VaciarTx(_ *gorm.DB, usuarioID uuid.UUID) error {
	for id, item := range r.items {
		if item.UsuarioID == usuarioID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *stubCarritoRepo) DB() *gorm.DB { return nil }

var _ repository.CarritoRepository = (*stubCarritoRepo)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret",
		JWTExpirationHours:   1,
		JWTRefreshHours:      24,
		WompiPublicKey:       "pub_test_key",
		WompiIntegrityKey:    "test_integrity",
		WompiEventsKey:       "test_events",
		WompiRedirectURL:     "https://tienda.test/pago",
		WompiCurrency:        "COP",
		CostoEnvio:           decimal.NewFromInt(14900),
		MultiplicadorMediano: decimal.RequireFromString("2.25"),
		MultiplicadorGrande:  decimal.RequireFromString("4.00"),
		ExpiracionPedidoMin:  5,
		OTPTTLMin:            10,
		TiendaNombre:         "Accesorios Apolo",
	}
}

func seedProducto(repo *stubProductoRepo, referencia, nombre string, precio float64, stock int) *model.Producto {
	p := &model.Producto{
		Referencia:   referencia,
		Nombre:       nombre,
		Stock:        stock,
		PrecioUnidad: decimal.NewFromFloat(precio),
		CategoriaID:  uuid.New(),
		Activo:       true,
	}
	repo.productos[referencia] = p
	return p
}

func usuarioConRol(nombre string) *model.Usuario {
	return &model.Usuario{
		ID:     uuid.New(),
		Nombre: "Usuario " + nombre,
		Correo: nombre + "@test.com",
		Activo: true,
		Roles:  []model.Rol{{ID: uuid.New(), Nombre: nombre}},
	}
}

func seedCalcomania(repo *stubCalcomaniaRepo, nombre string, precio float64, stockMediano int, creador *model.Usuario) *model.Calcomania {
	c := &model.Calcomania{
		ID:           uuid.New(),
		Nombre:       nombre,
		PrecioUnidad: decimal.NewFromFloat(precio),
		StockPequeno: stockMediano,
		StockMediano: stockMediano,
		StockGrande:  stockMediano,
		UsuarioID:    creador.ID,
		Usuario:      creador,
		Activo:       true,
	}
	repo.calcomanias[c.ID] = c
	return c
}

func buildCarritoSvc() (service.CarritoService, *stubProductoRepo, *stubCalcomaniaRepo, *stubCarritoRepo) {
	productoRepo := newStubProductoRepo()
	calcomaniaRepo := newStubCalcomaniaRepo()
	carritoRepo := newStubCarritoRepo(productoRepo, calcomaniaRepo)
	precios := service.NewPreciosService(newTestConfig())
	svc := service.NewCarritoService(carritoRepo, productoRepo, calcomaniaRepo, precios)
	return svc, productoRepo, calcomaniaRepo, carritoRepo
}

func ptr[T any](v T) *T { return &v }

// ── Tests ────────────────────────────────────────────────────────────────────

func TestAgregarProducto(t *testing.T) {
	svc, productoRepo, _, _ := buildCarritoSvc()
	seedProducto(productoRepo, "CASCO-01", "Casco integral", 150000, 10)
	usuario := uuid.New()

	resp, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("CASCO-01"),
		Cantidad:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Cantidad)
	assert.Equal(t, "Casco integral", resp.Nombre)
	assert.Equal(t, "300000", resp.Subtotal.String())
}

func TestAgregarProducto_FusionaLineas(t *testing.T) {
	svc, productoRepo, _, carritoRepo := buildCarritoSvc()
	seedProducto(productoRepo, "GUANTES-01", "Guantes de cuero", 80000, 10)
	usuario := uuid.New()

	_, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("GUANTES-01"), Cantidad: 2,
	})
	require.NoError(t, err)
	resp, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("GUANTES-01"), Cantidad: 3,
	})
	require.NoError(t, err)

	// One merged line with quantity 5, not two lines
	assert.Equal(t, 5, resp.Cantidad)
	assert.Len(t, carritoRepo.items, 1)
}

func TestAgregarProducto_StockInsuficienteAlFusionar(t *testing.T) {
	svc, productoRepo, _, _ := buildCarritoSvc()
	seedProducto(productoRepo, "ESPEJO-01", "Espejo retrovisor", 25000, 4)
	usuario := uuid.New()

	_, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("ESPEJO-01"), Cantidad: 3,
	})
	require.NoError(t, err)

	// 3 already in cart + 2 requested > 4 in stock
	_, err = svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("ESPEJO-01"), Cantidad: 2,
	})
	var stockErr *apierror.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Disponible)
}

func TestAgregarProducto_TopeMaximo(t *testing.T) {
	svc, productoRepo, _, _ := buildCarritoSvc()
	seedProducto(productoRepo, "TORNILLO-01", "Tornillo M6", 500, 1000)
	usuario := uuid.New()

	_, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("TORNILLO-01"), Cantidad: service.CantidadMaxima + 1,
	})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
}

func TestAgregarProductoYCalcomaniaALaVez(t *testing.T) {
	svc, _, _, _ := buildCarritoSvc()

	_, err := svc.Agregar(context.Background(), uuid.New(), dto.AgregarItemRequest{
		Referencia:   ptr("CASCO-01"),
		CalcomaniaID: ptr(uuid.NewString()),
		Cantidad:     1,
	})
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
}

func TestAgregarCalcomaniaDeStaff_RespetaStockPorTamano(t *testing.T) {
	svc, _, calcomaniaRepo, _ := buildCarritoSvc()
	vendedor := usuarioConRol(model.RolVendedor)
	c := seedCalcomania(calcomaniaRepo, "Llama tribal", 40000, 3, vendedor)
	usuario := uuid.New()

	_, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		CalcomaniaID: ptr(c.ID.String()),
		Tamano:       ptr(model.TamanoMediano),
		Cantidad:     5, // only 3 medianos in stock
	})
	var stockErr *apierror.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Disponible)
}

func TestAgregarCalcomaniaDeCliente_SinLimiteDeStock(t *testing.T) {
	svc, _, calcomaniaRepo, _ := buildCarritoSvc()
	cliente := usuarioConRol(model.RolCliente)
	c := seedCalcomania(calcomaniaRepo, "Diseño propio", 40000, 0, cliente)
	usuario := uuid.New()

	// Zero stock, but customer designs print on demand
	resp, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		CalcomaniaID: ptr(c.ID.String()),
		Tamano:       ptr(model.TamanoGrande),
		Cantidad:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Cantidad)
	// base 40000 × grande 4.00 = 160000 per unit
	assert.Equal(t, "160000", resp.PrecioRebajado.String())
}

func TestCambiarCantidad_CeroElimina(t *testing.T) {
	svc, productoRepo, _, carritoRepo := buildCarritoSvc()
	seedProducto(productoRepo, "FARO-01", "Faro LED", 60000, 10)
	usuario := uuid.New()

	agregado, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("FARO-01"), Cantidad: 2,
	})
	require.NoError(t, err)

	resp, err := svc.CambiarCantidad(context.Background(), usuario, uuid.MustParse(agregado.ID), 0)
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Empty(t, carritoRepo.items)
}

func TestCambiarCantidad_ValidaStock(t *testing.T) {
	svc, productoRepo, _, _ := buildCarritoSvc()
	seedProducto(productoRepo, "CADENA-01", "Cadena reforzada", 95000, 3)
	usuario := uuid.New()

	agregado, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("CADENA-01"), Cantidad: 1,
	})
	require.NoError(t, err)

	_, err = svc.CambiarCantidad(context.Background(), usuario, uuid.MustParse(agregado.ID), 5)
	var stockErr *apierror.StockError
	assert.ErrorAs(t, err, &stockErr)
}

func TestEliminarItemDeOtroUsuario(t *testing.T) {
	svc, productoRepo, _, _ := buildCarritoSvc()
	seedProducto(productoRepo, "KIT-01", "Kit de arrastre", 180000, 5)
	duenio := uuid.New()

	agregado, err := svc.Agregar(context.Background(), duenio, dto.AgregarItemRequest{
		Referencia: ptr("KIT-01"), Cantidad: 1,
	})
	require.NoError(t, err)

	// A different user cannot reach the line even knowing its id
	err = svc.Eliminar(context.Background(), uuid.New(), uuid.MustParse(agregado.ID))
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestListarCarrito_TotalesPorLinea(t *testing.T) {
	svc, productoRepo, calcomaniaRepo, _ := buildCarritoSvc()
	descuento := decimal.NewFromInt(120000)
	p := seedProducto(productoRepo, "CHAQUETA-01", "Chaqueta protecciones", 150000, 10)
	p.PrecioDescuento = &descuento
	vendedor := usuarioConRol(model.RolVendedor)
	c := seedCalcomania(calcomaniaRepo, "Calavera", 40000, 10, vendedor)
	usuario := uuid.New()

	_, err := svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		Referencia: ptr("CHAQUETA-01"), Cantidad: 2,
	})
	require.NoError(t, err)
	_, err = svc.Agregar(context.Background(), usuario, dto.AgregarItemRequest{
		CalcomaniaID: ptr(c.ID.String()), Tamano: ptr(model.TamanoMediano), Cantidad: 1,
	})
	require.NoError(t, err)

	resp, err := svc.Listar(context.Background(), usuario)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	// 120000×2 + 40000×2.25 = 240000 + 90000 = 330000
	assert.Equal(t, "330000", resp.Subtotal.String())
	// discount: (150000-120000)×2 = 60000
	assert.Equal(t, "60000", resp.DescuentoTotal.String())
}
