package dto

type CrearCategoriaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=60"`
}

type CrearSubcategoriaRequest struct {
	CategoriaID string `json:"categoria_id" validate:"required,uuid"`
	Nombre      string `json:"nombre"       validate:"required,min=2,max=60"`
}

type CategoriaResponse struct {
	ID            string                 `json:"id"`
	Nombre        string                 `json:"nombre"`
	Activo        bool                   `json:"activo"`
	Subcategorias []SubcategoriaResponse `json:"subcategorias,omitempty"`
}

type SubcategoriaResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}
