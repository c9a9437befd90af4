package model

import (
	"time"

	"github.com/google/uuid"
)

// Role names are a small fixed set.
const (
	RolCliente  = "cliente"
	RolVendedor = "vendedor"
	RolGerente  = "gerente"
)

// Usuario stores both staff and customers with role-based access.
// PasswordHash is nil for social-login accounts; guest checkouts get a
// bcrypt hash of a random password so the row is a normal account.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string    `gorm:"not null"`
	Cedula       *string   `gorm:"type:varchar(20)"`
	Telefono     *string   `gorm:"type:varchar(20)"`
	Correo       string    `gorm:"uniqueIndex;not null"`
	PasswordHash *string
	Activo       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Roles []Rol `gorm:"many2many:usuario_roles"`
}

func (Usuario) TableName() string { return "usuarios" }

// TieneRol reports whether the user carries the given role.
func (u *Usuario) TieneRol(nombre string) bool {
	for _, r := range u.Roles {
		if r.Nombre == nombre {
			return true
		}
	}
	return false
}

// Rol is one of the fixed roles {cliente, vendedor, gerente}.
type Rol struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre string    `gorm:"uniqueIndex;not null"`
}

func (Rol) TableName() string { return "roles" }
