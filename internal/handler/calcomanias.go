package handler

import (
	"net/http"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/middleware"
	"apolo/internal/model"
	"apolo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CalcomaniasHandler struct{ svc service.CalcomaniaService }

func NewCalcomaniasHandler(svc service.CalcomaniaService) *CalcomaniasHandler {
	return &CalcomaniasHandler{svc: svc}
}

func (h *CalcomaniasHandler) Listar(c *gin.Context) {
	soloActivas := c.Query("activo") != "all"
	resp, err := h.svc.Listar(c.Request.Context(), soloActivas)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CalcomaniasHandler) Obtener(c *gin.Context) {
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

// Crear godoc
// @Summary      Crear calcomania
// @Description  Cualquier usuario autenticado puede crear una; las de clientes se imprimen bajo demanda, las del personal venden de stock fisico.
// @Tags         calcomanias
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCalcomaniaRequest true "Calcomania"
// @Success      201  {object} dto.CalcomaniaResponse
// @Router       /v1/calcomanias [post]
func (h *CalcomaniasHandler) Crear(c *gin.Context) {
	var req dto.CrearCalcomaniaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioDeClaims(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CalcomaniasHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarCalcomaniaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Actualizar(c.Request.Context(), usuarioDeClaims(c), id, claims.TieneRol(model.RolGerente), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CalcomaniasHandler) Desactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.svc.Desactivar(c.Request.Context(), usuarioDeClaims(c), id, claims.TieneRol(model.RolGerente)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
