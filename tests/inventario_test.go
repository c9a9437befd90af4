package tests

import (
	"context"
	"testing"
	"time"

	"apolo/internal/apierror"
	"apolo/internal/model"
	"apolo/internal/repository"
	"apolo/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubInventarioRepo struct {
	inventarios map[uuid.UUID]*model.Inventario
}

func newStubInventarioRepo() *stubInventarioRepo {
	return &stubInventarioRepo{inventarios: make(map[uuid.UUID]*model.Inventario)}
}

func (r *stubInventarioRepo) CreateSnapshot(_ context.Context, inv *model.Inventario, detalles []model.DetalleInventario) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	copia := *inv
	copia.Detalles = detalles
	r.inventarios[inv.ID] = &copia
	return nil
}

func (r *stubInventarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Inventario, error) {
	inv, ok := r.inventarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInventarioRepo) List(_ context.Context) ([]model.Inventario, error) {
	var result []model.Inventario
	for _, inv := range r.inventarios {
		result = append(result, *inv)
	}
	return result, nil
}

func (r *stubInventarioRepo) DB() *gorm.DB { return nil }

var _ repository.InventarioRepository = (*stubInventarioRepo)(nil)

func buildInventarioSvc() (service.InventarioService, *stubInventarioRepo, *stubProductoRepo, *stubCalcomaniaRepo) {
	repo := newStubInventarioRepo()
	productoRepo := newStubProductoRepo()
	calcomaniaRepo := newStubCalcomaniaRepo()
	svc := service.NewInventarioService(repo, productoRepo, calcomaniaRepo)
	return svc, repo, productoRepo, calcomaniaRepo
}

func TestGenerarSnapshot_ValoracionYTotales(t *testing.T) {
	svc, repo, productoRepo, calcomaniaRepo := buildInventarioSvc()

	seedProducto(productoRepo, "CASCO-01", "Casco integral", 150000, 4)
	rebajado := seedProducto(productoRepo, "GUANTES-01", "Guantes", 80000, 10)
	rebajado.PrecioDescuento = ptr(decimal.NewFromInt(60000))

	vendedor := usuarioConRol(model.RolVendedor)
	seedCalcomania(calcomaniaRepo, "Llama tribal", 40000, 2, vendedor) // 2 per size = 6 units

	resp, err := svc.GenerarSnapshot(context.Background(), "ana@test.com")
	require.NoError(t, err)

	assert.Equal(t, "ana@test.com", resp.Responsable)
	assert.Equal(t, 3, resp.TotalProductos)
	assert.Equal(t, 20, resp.TotalUnidades) // 4 + 10 + 6
	// 150000×4 + 60000×10 (discounted price, not list) + 40000×6
	assert.Equal(t, "1440000", resp.ValorTotal.String())

	inv, err := repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Len(t, inv.Detalles, 3)
}

func TestGenerarSnapshot_IgnoraInactivosYSinStock(t *testing.T) {
	svc, _, productoRepo, _ := buildInventarioSvc()

	seedProducto(productoRepo, "CASCO-01", "Casco integral", 150000, 4)
	seedProducto(productoRepo, "AGOTADO-01", "Agotado", 99000, 0)
	retirado := seedProducto(productoRepo, "RETIRADO-01", "Retirado", 99000, 7)
	retirado.Activo = false

	resp, err := svc.GenerarSnapshot(context.Background(), "ana@test.com")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalProductos)
	assert.Equal(t, 4, resp.TotalUnidades)
	assert.Equal(t, "600000", resp.ValorTotal.String())
}

func TestGenerarSnapshotSistema(t *testing.T) {
	svc, repo, productoRepo, _ := buildInventarioSvc()
	seedProducto(productoRepo, "CASCO-01", "Casco integral", 150000, 4)

	require.NoError(t, svc.GenerarSnapshotSistema(context.Background()))

	lista, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, service.ResponsableSistema, lista[0].Responsable)
}

func TestObtenerSnapshot(t *testing.T) {
	svc, _, productoRepo, _ := buildInventarioSvc()
	seedProducto(productoRepo, "CASCO-01", "Casco integral", 150000, 4)

	creado, err := svc.GenerarSnapshot(context.Background(), "ana@test.com")
	require.NoError(t, err)

	detalle, err := svc.Obtener(context.Background(), uuid.MustParse(creado.ID))
	require.NoError(t, err)
	require.Len(t, detalle.Detalles, 1)
	linea := detalle.Detalles[0]
	assert.Equal(t, model.ItemProducto, linea.Tipo)
	require.NotNil(t, linea.Referencia)
	assert.Equal(t, "CASCO-01", *linea.Referencia)
	assert.Equal(t, "600000", linea.ValorLinea.String())

	_, err = svc.Obtener(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestGenerarSnapshot_FechaReciente(t *testing.T) {
	svc, repo, productoRepo, _ := buildInventarioSvc()
	seedProducto(productoRepo, "CASCO-01", "Casco integral", 150000, 4)

	resp, err := svc.GenerarSnapshot(context.Background(), "ana@test.com")
	require.NoError(t, err)

	inv, err := repo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), inv.Fecha, time.Minute)
}
