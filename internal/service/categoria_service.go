package service

import (
	"context"
	"errors"
	"fmt"

	"apolo/internal/apierror"
	"apolo/internal/dto"
	"apolo/internal/model"
	"apolo/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoriaService interface {
	Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error)
	Listar(ctx context.Context) ([]dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	CrearSubcategoria(ctx context.Context, req dto.CrearSubcategoriaRequest) (*dto.SubcategoriaResponse, error)
	DesactivarSubcategoria(ctx context.Context, id uuid.UUID) error
}

type categoriaService struct {
	repo repository.CategoriaRepository
}

func NewCategoriaService(repo repository.CategoriaRepository) CategoriaService {
	return &categoriaService{repo: repo}
}

func (s *categoriaService) Crear(ctx context.Context, req dto.CrearCategoriaRequest) (*dto.CategoriaResponse, error) {
	c := &model.Categoria{Nombre: req.Nombre, Activo: true}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: la categoria %s ya existe", apierror.ErrConflict, req.Nombre)
		}
		return nil, err
	}
	resp := categoriaToResponse(c)
	return &resp, nil
}

func (s *categoriaService) Listar(ctx context.Context) ([]dto.CategoriaResponse, error) {
	categorias, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CategoriaResponse, len(categorias))
	for i := range categorias {
		resp[i] = categoriaToResponse(&categorias[i])
	}
	return resp, nil
}

func (s *categoriaService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: categoria", apierror.ErrNotFound)
		}
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *categoriaService) CrearSubcategoria(ctx context.Context, req dto.CrearSubcategoriaRequest) (*dto.SubcategoriaResponse, error) {
	categoriaID, err := uuid.Parse(req.CategoriaID)
	if err != nil {
		return nil, fmt.Errorf("%w: categoria_id invalido", apierror.ErrInvalidState)
	}
	if _, err := s.repo.FindByID(ctx, categoriaID); err != nil {
		return nil, fmt.Errorf("%w: categoria", apierror.ErrNotFound)
	}
	sub := &model.Subcategoria{CategoriaID: categoriaID, Nombre: req.Nombre, Activo: true}
	if err := s.repo.CreateSubcategoria(ctx, sub); err != nil {
		return nil, err
	}
	return &dto.SubcategoriaResponse{ID: sub.ID.String(), Nombre: sub.Nombre, Activo: sub.Activo}, nil
}

func (s *categoriaService) DesactivarSubcategoria(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindSubcategoriaByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: subcategoria", apierror.ErrNotFound)
		}
		return err
	}
	return s.repo.SoftDeleteSubcategoria(ctx, id)
}

func categoriaToResponse(c *model.Categoria) dto.CategoriaResponse {
	resp := dto.CategoriaResponse{
		ID:            c.ID.String(),
		Nombre:        c.Nombre,
		Activo:        c.Activo,
		Subcategorias: make([]dto.SubcategoriaResponse, 0, len(c.Subcategorias)),
	}
	for _, sub := range c.Subcategorias {
		resp.Subcategorias = append(resp.Subcategorias, dto.SubcategoriaResponse{
			ID: sub.ID.String(), Nombre: sub.Nombre, Activo: sub.Activo,
		})
	}
	return resp
}
