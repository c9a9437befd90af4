package repository

import (
	"context"

	"apolo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error)
	List(ctx context.Context, incluirInactivos bool) ([]model.Usuario, error)
	Update(ctx context.Context, u *model.Usuario) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error

	// FindRol returns the Rol row for a fixed role name, creating it on
	// first use so a fresh database needs no seed step for roles.
	FindRol(ctx context.Context, nombre string) (*model.Rol, error)
	AsignarRol(ctx context.Context, usuarioID uuid.UUID, rol *model.Rol) error
	ReemplazarRoles(ctx context.Context, u *model.Usuario, roles []model.Rol) error

	DB() *gorm.DB
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Preload("Roles").First(&u, id).Error
	return &u, err
}

func (r *usuarioRepo) FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("correo = ?", correo).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) List(ctx context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	var usuarios []model.Usuario
	q := r.db.WithContext(ctx).Preload("Roles")
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	err := q.Order("nombre ASC").Find(&usuarios).Error
	return usuarios, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ?", id).Update("activo", false).Error
}

func (r *usuarioRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ?", id).Update("activo", true).Error
}

func (r *usuarioRepo) FindRol(ctx context.Context, nombre string) (*model.Rol, error) {
	var rol model.Rol
	err := r.db.WithContext(ctx).
		Where(model.Rol{Nombre: nombre}).FirstOrCreate(&rol).Error
	return &rol, err
}

func (r *usuarioRepo) AsignarRol(ctx context.Context, usuarioID uuid.UUID, rol *model.Rol) error {
	u := model.Usuario{ID: usuarioID}
	return r.db.WithContext(ctx).Model(&u).Association("Roles").Append(rol)
}

func (r *usuarioRepo) ReemplazarRoles(ctx context.Context, u *model.Usuario, roles []model.Rol) error {
	return r.db.WithContext(ctx).Model(u).Association("Roles").Replace(roles)
}

func (r *usuarioRepo) DB() *gorm.DB { return r.db }
