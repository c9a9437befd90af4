package dto

// ─── Requests ────────────────────────────────────────────────────────────────

type RegistroRequest struct {
	Nombre   string  `json:"nombre"   validate:"required,min=2"`
	Correo   string  `json:"correo"   validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Cedula   *string `json:"cedula"   validate:"omitempty,min=5"`
	Telefono *string `json:"telefono" validate:"omitempty,min=7"`
}

// VerificarOTPRequest confirms the code mailed during registration.
type VerificarOTPRequest struct {
	Correo string `json:"correo" validate:"required,email"`
	Codigo string `json:"codigo" validate:"required,len=6"`
}

type LoginRequest struct {
	Correo   string `json:"correo"   validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ActualizarUsuarioRequest struct {
	Nombre   string   `json:"nombre"   validate:"omitempty,min=2"`
	Cedula   *string  `json:"cedula"`
	Telefono *string  `json:"telefono"`
	Password string   `json:"password" validate:"omitempty,min=8"`
	Roles    []string `json:"roles"    validate:"omitempty,dive,oneof=cliente vendedor gerente"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID       string   `json:"id"`
	Nombre   string   `json:"nombre"`
	Correo   string   `json:"correo"`
	Cedula   *string  `json:"cedula,omitempty"`
	Telefono *string  `json:"telefono,omitempty"`
	Roles    []string `json:"roles"`
	Activo   bool     `json:"activo"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	User         UsuarioResponse `json:"user"`
}
