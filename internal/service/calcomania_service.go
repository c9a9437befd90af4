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

// CalcomaniaService manages stickers. Anyone logged in can create one (the
// creator's roles decide whether stock is enforced at sale time); only the
// creator or a gerente can modify or retire it.
type CalcomaniaService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearCalcomaniaRequest) (*dto.CalcomaniaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.CalcomaniaResponse, error)
	Listar(ctx context.Context, soloActivas bool) ([]dto.CalcomaniaResponse, error)
	Actualizar(ctx context.Context, usuarioID, id uuid.UUID, esGerente bool, req dto.ActualizarCalcomaniaRequest) (*dto.CalcomaniaResponse, error)
	Desactivar(ctx context.Context, usuarioID, id uuid.UUID, esGerente bool) error
}

type calcomaniaService struct {
	repo repository.CalcomaniaRepository
}

func NewCalcomaniaService(repo repository.CalcomaniaRepository) CalcomaniaService {
	return &calcomaniaService{repo: repo}
}

func (s *calcomaniaService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearCalcomaniaRequest) (*dto.CalcomaniaResponse, error) {
	c := &model.Calcomania{
		Nombre:          req.Nombre,
		ImagenURL:       req.ImagenURL,
		PrecioUnidad:    req.PrecioUnidad,
		PrecioDescuento: req.PrecioDescuento,
		StockPequeno:    req.StockPequeno,
		StockMediano:    req.StockMediano,
		StockGrande:     req.StockGrande,
		UsuarioID:       usuarioID,
		Activo:          true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.Obtener(ctx, c.ID)
}

func (s *calcomaniaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.CalcomaniaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: calcomania", apierror.ErrNotFound)
		}
		return nil, err
	}
	resp := calcomaniaToResponse(c)
	return &resp, nil
}

func (s *calcomaniaService) Listar(ctx context.Context, soloActivas bool) ([]dto.CalcomaniaResponse, error) {
	calcomanias, err := s.repo.List(ctx, soloActivas)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CalcomaniaResponse, len(calcomanias))
	for i := range calcomanias {
		resp[i] = calcomaniaToResponse(&calcomanias[i])
	}
	return resp, nil
}

func (s *calcomaniaService) Actualizar(ctx context.Context, usuarioID, id uuid.UUID, esGerente bool, req dto.ActualizarCalcomaniaRequest) (*dto.CalcomaniaResponse, error) {
	c, err := s.cargarPropia(ctx, usuarioID, id, esGerente)
	if err != nil {
		return nil, err
	}

	if req.Nombre != "" {
		c.Nombre = req.Nombre
	}
	if req.ImagenURL != nil {
		c.ImagenURL = req.ImagenURL
	}
	if req.PrecioUnidad != nil {
		c.PrecioUnidad = *req.PrecioUnidad
	}
	if req.PrecioDescuento != nil {
		c.PrecioDescuento = req.PrecioDescuento
	}
	if req.StockPequeno != nil {
		c.StockPequeno = *req.StockPequeno
	}
	if req.StockMediano != nil {
		c.StockMediano = *req.StockMediano
	}
	if req.StockGrande != nil {
		c.StockGrande = *req.StockGrande
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

func (s *calcomaniaService) Desactivar(ctx context.Context, usuarioID, id uuid.UUID, esGerente bool) error {
	if _, err := s.cargarPropia(ctx, usuarioID, id, esGerente); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *calcomaniaService) cargarPropia(ctx context.Context, usuarioID, id uuid.UUID, esGerente bool) (*model.Calcomania, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: calcomania", apierror.ErrNotFound)
		}
		return nil, err
	}
	if !esGerente && c.UsuarioID != usuarioID {
		return nil, fmt.Errorf("%w: la calcomania pertenece a otro usuario", apierror.ErrForbidden)
	}
	return c, nil
}

func calcomaniaToResponse(c *model.Calcomania) dto.CalcomaniaResponse {
	resp := dto.CalcomaniaResponse{
		ID:              c.ID.String(),
		Nombre:          c.Nombre,
		ImagenURL:       c.ImagenURL,
		PrecioUnidad:    c.PrecioUnidad,
		PrecioDescuento: c.PrecioDescuento,
		StockPequeno:    c.StockPequeno,
		StockMediano:    c.StockMediano,
		StockGrande:     c.StockGrande,
		Activo:          c.Activo,
	}
	if c.Usuario != nil {
		resp.Propietario = c.Usuario.Nombre
	}
	return resp
}
