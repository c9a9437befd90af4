package handler

import (
	"net/http"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/middleware"
	"apolo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckoutHandler struct{ svc service.CheckoutService }

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Direccion godoc
// @Summary      Registrar direccion de envio (paso 1)
// @Description  Resuelve la identidad compradora (autenticada, existente por correo, o cuenta nueva), crea la factura borrador y abre la sesion de compra. Invitados deben enviar su carrito.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body body dto.DireccionRequest true "Datos de envio"
// @Success      200  {object} dto.DireccionResponse
// @Failure      403  {object} apierror.APIError
// @Router       /v1/checkout/direccion [post]
func (h *CheckoutHandler) Direccion(c *gin.Context) {
	var req dto.DireccionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var usuarioID *uuid.UUID
	if claims := middleware.GetClaimsOpcional(c); claims != nil {
		if id, err := uuid.Parse(claims.UserID); err == nil {
			usuarioID = &id
		}
	}

	resp, err := h.svc.RegistrarDireccion(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resumen godoc
// @Summary      Resumen de la compra (paso 2)
// @Description  Recalcula el carrito con precios vigentes y agrega el costo de envio. Solo lectura.
// @Tags         checkout
// @Produce      json
// @Param        sesion query string true "Token de la sesion de compra"
// @Success      200 {object} dto.ResumenResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/checkout/resumen [get]
func (h *CheckoutHandler) Resumen(c *gin.Context) {
	token := c.Query("sesion")
	if token == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el token de sesion"))
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalizar godoc
// @Summary      Finalizar la compra (paso 3)
// @Description  Con metodo directo confirma la factura: descuenta stock, crea detalles y vacia el carrito en una transaccion. Con pasarela deja la factura Pendiente hasta el webhook.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body body dto.FinalizarRequest true "Sesion y metodo de pago"
// @Success      200  {object} dto.FinalizarResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/checkout/finalizar [post]
func (h *CheckoutHandler) Finalizar(c *gin.Context) {
	var req dto.FinalizarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Finalizar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BarrerExpiradas godoc
// @Summary      Barrido manual de facturas expiradas
// @Description  Ejecuta inmediatamente la misma limpieza que corre el temporizador de fondo.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.BarridoResponse
// @Router       /v1/admin/facturas/barrer [post]
func (h *CheckoutHandler) BarrerExpiradas(c *gin.Context) {
	eliminadas, err := h.svc.BarrerExpiradas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BarridoResponse{Eliminadas: int(eliminadas)})
}
