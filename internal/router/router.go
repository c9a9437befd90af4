package router

import (
	"time"

	"apolo/internal/config"
	"apolo/internal/handler"
	"apolo/internal/infra"
	"apolo/internal/middleware"
	"apolo/internal/model"
	"apolo/internal/repository"
	"apolo/internal/service"
	"apolo/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	sesionTTL := time.Duration(cfg.OTPTTLMin) * time.Minute
	checkoutStore := infra.NewCheckoutStore(rdb, sesionTTL)
	otpStore := infra.NewOTPStore(rdb, sesionTTL)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	calcomaniaRepo := repository.NewCalcomaniaRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	carritoRepo := repository.NewCarritoRepository(db)
	facturaRepo := repository.NewFacturaRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	inventarioRepo := repository.NewInventarioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	preciosSvc := service.NewPreciosService(cfg)
	authSvc := service.NewAuthService(usuarioRepo, otpStore, mailer, cfg)
	productoSvc := service.NewProductoService(productoRepo, categoriaRepo)
	calcomaniaSvc := service.NewCalcomaniaService(calcomaniaRepo)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	carritoSvc := service.NewCarritoService(carritoRepo, productoRepo, calcomaniaRepo, preciosSvc)
	proveedorSvc := service.NewProveedorService(proveedorRepo, productoRepo)
	inventarioSvc := service.NewInventarioService(inventarioRepo, productoRepo, calcomaniaRepo)
	chatbotSvc := service.NewChatbotService(productoRepo, facturaRepo, rdb, cfg)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	checkoutSvc := service.NewCheckoutService(
		usuarioRepo, carritoRepo, facturaRepo, productoRepo, calcomaniaRepo,
		carritoSvc, preciosSvc, checkoutStore, dispatcher,
		time.Duration(cfg.ExpiracionPedidoMin)*time.Minute,
	)
	pagoSvc := service.NewPagoService(facturaRepo, checkoutSvc, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	calcomaniasH := handler.NewCalcomaniasHandler(calcomaniaSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	pagosH := handler.NewPagosHandler(pagoSvc, checkoutSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	chatbotH := handler.NewChatbotHandler(chatbotSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/registro", authH.Registrar)
		auth.POST("/verificar", authH.VerificarOTP)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Catalog reads — no auth required (storefronts browse anonymously)
	r.GET("/v1/productos", productosH.Listar)
	r.GET("/v1/productos/:referencia", productosH.Obtener)
	r.GET("/v1/calcomanias", calcomaniasH.Listar)
	r.GET("/v1/calcomanias/:id", calcomaniasH.Obtener)
	r.GET("/v1/categorias", categoriasH.Listar)

	// Checkout — direccion accepts both guests and logged-in customers
	jwtOpt := middleware.JWTOptional(cfg.JWTSecret)
	checkout := r.Group("/v1/checkout")
	{
		checkout.POST("/direccion", jwtOpt, checkoutH.Direccion)
		checkout.GET("/resumen", checkoutH.Resumen)
		checkout.POST("/finalizar", checkoutH.Finalizar)
	}

	// Payment gateway — the webhook is signed, not authenticated
	pagos := r.Group("/v1/pagos")
	{
		pagos.POST("/checkout", pagosH.GenerarCheckout)
		pagos.POST("/webhook", pagosH.Webhook)
		pagos.GET("/facturas/:id/estado", pagosH.EstadoFactura)
	}

	// Chatbot (public)
	r.POST("/v1/chatbot", chatbotH.Responder)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Cart — any authenticated user operates on their own cart
		carrito := v1.Group("/carrito")
		{
			carrito.POST("", carritoH.Agregar)
			carrito.GET("", carritoH.Listar)
			carrito.PUT("/:id", carritoH.CambiarCantidad)
			carrito.DELETE("/:id", carritoH.Eliminar)
			carrito.DELETE("", carritoH.Vaciar)
		}

		// Calcomanias — customers design their own; staff curate the catalog.
		// Ownership is enforced in the service, not here.
		v1.POST("/calcomanias", calcomaniasH.Crear)
		v1.PUT("/calcomanias/:id", calcomaniasH.Actualizar)
		v1.DELETE("/calcomanias/:id", calcomaniasH.Desactivar)

		// Staff: catalog writes
		staff := middleware.RequireRole(model.RolVendedor, model.RolGerente)
		prods := v1.Group("/productos", staff)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:referencia", productosH.Actualizar)
			prods.DELETE("/:referencia", productosH.Desactivar)
			prods.PATCH("/:referencia/reactivar", productosH.Reactivar)
		}

		categorias := v1.Group("/categorias", staff)
		{
			categorias.POST("", categoriasH.Crear)
			categorias.DELETE("/:id", categoriasH.Desactivar)
			categorias.POST("/subcategorias", categoriasH.CrearSubcategoria)
			categorias.DELETE("/subcategorias/:id", categoriasH.DesactivarSubcategoria)
		}

		prov := v1.Group("/proveedores", staff)
		{
			prov.POST("", proveedoresH.Crear)
			prov.GET("", proveedoresH.Listar)
			prov.GET("/:nit", proveedoresH.Obtener)
			prov.PUT("/:nit", proveedoresH.Actualizar)
			prov.DELETE("/:nit", proveedoresH.Eliminar)
			prov.POST("/facturas", proveedoresH.RegistrarFactura)
			prov.GET("/:nit/facturas", proveedoresH.ListarFacturas)
		}

		inv := v1.Group("/inventario", staff)
		{
			inv.POST("", inventarioH.GenerarSnapshot)
			inv.GET("", inventarioH.Listar)
			inv.GET("/:id", inventarioH.Obtener)
		}

		// Gerente only: user administration and the manual expiry sweep
		gerente := middleware.RequireRole(model.RolGerente)
		usuarios := v1.Group("/usuarios", gerente)
		{
			usuarios.GET("", authH.ListarUsuarios)
			usuarios.PUT("/:id", authH.ActualizarUsuario)
			usuarios.DELETE("/:id", authH.DesactivarUsuario)
			usuarios.PATCH("/:id/reactivar", authH.ReactivarUsuario)
		}
		v1.POST("/admin/barrido", gerente, checkoutH.BarrerExpiradas)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
