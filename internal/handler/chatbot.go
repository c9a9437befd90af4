package handler

import (
	"net/http"

	"apolo/internal/dto"
	"apolo/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatbotHandler struct{ svc service.ChatbotService }

func NewChatbotHandler(svc service.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{svc: svc}
}

// Responder godoc
// @Summary      Consultar al asistente de la tienda
// @Description  Atiende consultas de precio, estado de pedido y datos de la tienda desde un menu de opciones.
// @Tags         chatbot
// @Accept       json
// @Produce      json
// @Param        body body dto.ChatbotRequest true "Consulta"
// @Success      200  {object} dto.ChatbotResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/chatbot [post]
func (h *ChatbotHandler) Responder(c *gin.Context) {
	var req dto.ChatbotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Responder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
