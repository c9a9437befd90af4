package dto

// ChatbotRequest carries one user turn of the scripted conversation.
// Opcion selects a menu entry; Texto is free input for lookups.
type ChatbotRequest struct {
	Opcion string `json:"opcion" validate:"omitempty,oneof=menu precio pedido tienda"`
	Texto  string `json:"texto"  validate:"omitempty,max=120"`
}

type ChatbotResponse struct {
	Mensaje  string   `json:"mensaje"`
	Opciones []string `json:"opciones,omitempty"`
}
