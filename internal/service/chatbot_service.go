package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apolo/internal/config"
	"apolo/internal/dto"
	"apolo/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	chatbotCachePrefix = "chatbot:precio:"
	chatbotCacheTTL    = 4 * time.Hour
)

var opcionesMenu = []string{"precio", "pedido", "tienda"}

// ChatbotService is the scripted shop assistant: a fixed menu, a price
// lookup by product name (cached in Redis) and an order-status lookup.
// No LLM call — every answer is deterministic.
type ChatbotService interface {
	Responder(ctx context.Context, req dto.ChatbotRequest) (*dto.ChatbotResponse, error)
}

type chatbotService struct {
	productoRepo repository.ProductoRepository
	facturaRepo  repository.FacturaRepository
	rdb          *redis.Client
	cfg          *config.Config
}

func NewChatbotService(productoRepo repository.ProductoRepository, facturaRepo repository.FacturaRepository, rdb *redis.Client, cfg *config.Config) ChatbotService {
	return &chatbotService{productoRepo: productoRepo, facturaRepo: facturaRepo, rdb: rdb, cfg: cfg}
}

func (s *chatbotService) Responder(ctx context.Context, req dto.ChatbotRequest) (*dto.ChatbotResponse, error) {
	switch req.Opcion {
	case "precio":
		return s.responderPrecio(ctx, req.Texto)
	case "pedido":
		return s.responderPedido(ctx, req.Texto)
	case "tienda":
		return &dto.ChatbotResponse{
			Mensaje: fmt.Sprintf("Somos %s, tu tienda de accesorios para moto. Escribenos a %s.",
				s.cfg.TiendaNombre, s.cfg.TiendaCorreo),
			Opciones: opcionesMenu,
		}, nil
	default:
		return &dto.ChatbotResponse{
			Mensaje:  fmt.Sprintf("Hola, soy el asistente de %s. ¿En que te ayudo?", s.cfg.TiendaNombre),
			Opciones: opcionesMenu,
		}, nil
	}
}

func (s *chatbotService) responderPrecio(ctx context.Context, texto string) (*dto.ChatbotResponse, error) {
	nombre := strings.TrimSpace(texto)
	if nombre == "" {
		return &dto.ChatbotResponse{Mensaje: "Dime el nombre del producto que buscas.", Opciones: opcionesMenu}, nil
	}

	cacheKey := chatbotCachePrefix + strings.ToLower(nombre)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return &dto.ChatbotResponse{Mensaje: cached, Opciones: opcionesMenu}, nil
		}
	}

	p, err := s.productoRepo.FindByNombre(ctx, nombre)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.ChatbotResponse{
				Mensaje:  fmt.Sprintf("No encontre ningun producto llamado %q.", nombre),
				Opciones: opcionesMenu,
			}, nil
		}
		return nil, err
	}

	mensaje := fmt.Sprintf("%s cuesta $%s.", p.Nombre, p.PrecioVigente().StringFixed(2))
	if p.Stock == 0 {
		mensaje += " Por ahora esta agotado."
	}
	if s.rdb != nil {
		_ = s.rdb.Set(ctx, cacheKey, mensaje, chatbotCacheTTL).Err()
	}
	return &dto.ChatbotResponse{Mensaje: mensaje, Opciones: opcionesMenu}, nil
}

func (s *chatbotService) responderPedido(ctx context.Context, texto string) (*dto.ChatbotResponse, error) {
	id, err := uuid.Parse(strings.TrimSpace(texto))
	if err != nil {
		return &dto.ChatbotResponse{
			Mensaje:  "Para consultar tu pedido necesito el numero que aparece en tu factura.",
			Opciones: opcionesMenu,
		}, nil
	}
	factura, err := s.facturaRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.ChatbotResponse{
				Mensaje:  "No encontre un pedido con ese numero.",
				Opciones: opcionesMenu,
			}, nil
		}
		return nil, err
	}
	return &dto.ChatbotResponse{
		Mensaje:  fmt.Sprintf("Tu pedido esta en estado %s.", factura.EstadoPedido),
		Opciones: opcionesMenu,
	}, nil
}
