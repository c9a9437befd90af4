package handler

import (
	"net/http"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PagosHandler struct {
	svc      service.PagoService
	checkout service.CheckoutService
}

func NewPagosHandler(svc service.PagoService, checkout service.CheckoutService) *PagosHandler {
	return &PagosHandler{svc: svc, checkout: checkout}
}

// GenerarCheckout godoc
// @Summary      Generar payload firmado para la pasarela
// @Description  Devuelve llave publica, monto en centavos, referencia y firma de integridad para abrir el checkout alojado de la pasarela.
// @Tags         pagos
// @Accept       json
// @Produce      json
// @Param        body body dto.CheckoutPagoRequest true "Factura a pagar"
// @Success      200  {object} dto.CheckoutPagoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/pagos/checkout [post]
func (h *PagosHandler) GenerarCheckout(c *gin.Context) {
	var req dto.CheckoutPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerarCheckout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Webhook godoc
// @Summary      Webhook de la pasarela de pagos
// @Description  Verifica el checksum del evento y aplica la transicion de estado. Responde 200 a todo evento autentico y bien formado, aunque la factura no exista.
// @Tags         pagos
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} apierror.APIError
// @Router       /v1/pagos/webhook [post]
func (h *PagosHandler) Webhook(c *gin.Context) {
	var event dto.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return
	}
	if err := h.svc.ProcesarWebhook(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EstadoFactura godoc
// @Summary      Consultar estado de una factura
// @Tags         pagos
// @Produce      json
// @Param        id path string true "UUID de la factura"
// @Success      200 {object} dto.FacturaEstadoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/pagos/facturas/{id}/estado [get]
func (h *PagosHandler) EstadoFactura(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.checkout.EstadoFactura(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
