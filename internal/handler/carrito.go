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

type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler {
	return &CarritoHandler{svc: svc}
}

// Agregar godoc
// @Summary      Agregar item al carrito
// @Description  Agrega un producto o calcomania; si la linea ya existe, suma la cantidad. El stock se valida contra el total resultante.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AgregarItemRequest true "Item a agregar"
// @Success      201  {object} dto.ItemCarritoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/carrito [post]
func (h *CarritoHandler) Agregar(c *gin.Context) {
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID := usuarioDeClaims(c)
	resp, err := h.svc.Agregar(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Ver el carrito con precios calculados
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.CarritoResponse
// @Router       /v1/carrito [get]
func (h *CarritoHandler) Listar(c *gin.Context) {
	usuarioID := usuarioDeClaims(c)
	resp, err := h.svc.Listar(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarCantidad godoc
// @Summary      Cambiar la cantidad de una linea
// @Description  Fija la cantidad absoluta de la linea; 0 la elimina.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "UUID de la linea"
// @Param        body body dto.CambiarCantidadRequest true "Cantidad nueva"
// @Success      200  {object} dto.ItemCarritoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/carrito/{id} [put]
func (h *CarritoHandler) CambiarCantidad(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CambiarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID := usuarioDeClaims(c)
	resp, err := h.svc.CambiarCantidad(c.Request.Context(), usuarioID, itemID, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) Eliminar(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	usuarioID := usuarioDeClaims(c)
	if err := h.svc.Eliminar(c.Request.Context(), usuarioID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CarritoHandler) Vaciar(c *gin.Context) {
	usuarioID := usuarioDeClaims(c)
	if err := h.svc.Vaciar(c.Request.Context(), usuarioID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// usuarioDeClaims extracts the authenticated user id; routes behind JWTAuth
// always carry valid claims.
func usuarioDeClaims(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id
}
