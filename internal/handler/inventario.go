package handler

import (
	"net/http"

	"apolo/internal/apierror"
	"apolo/internal/middleware"
	"apolo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// GenerarSnapshot godoc
// @Summary      Generar snapshot de inventario
// @Description  Congela las existencias y la valoracion actual de productos y calcomanias en un registro historico.
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object} dto.InventarioResponse
// @Router       /v1/inventario [post]
func (h *InventarioHandler) GenerarSnapshot(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GenerarSnapshot(c.Request.Context(), claims.Correo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventarioHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
