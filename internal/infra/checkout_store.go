package infra

// checkout_store.go — short-lived checkout sessions in Redis.
// The address step returns an opaque token to the client; the summary and
// finalize steps resolve it back to the draft factura and user. Keys carry a
// TTL matching the order-expiry deadline, so an abandoned session vanishes
// on its own and any instance behind a load balancer can serve the next
// step (no sticky sessions).

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const checkoutKeyPrefix = "checkout:sesion:"

// ErrSesionNoEncontrada is returned when a token is unknown or expired.
var ErrSesionNoEncontrada = errors.New("sesion de compra no encontrada o expirada")

// SesionCompra is the state carried between the address and finalize steps.
type SesionCompra struct {
	FacturaID     uuid.UUID `json:"factura_id"`
	UsuarioID     uuid.UUID `json:"usuario_id"`
	NuevoRegistro bool      `json:"nuevo_registro"`
}

// CheckoutStore persists checkout sessions keyed by opaque token. A nil
// Redis client switches it to an in-process map (unit tests), losing TTL
// and cross-instance sharing.
type CheckoutStore struct {
	rdb *redis.Client
	ttl time.Duration

	mu  sync.Mutex
	mem map[string][]byte
}

func NewCheckoutStore(rdb *redis.Client, ttl time.Duration) *CheckoutStore {
	s := &CheckoutStore{rdb: rdb, ttl: ttl}
	if rdb == nil {
		s.mem = make(map[string][]byte)
	}
	return s
}

// Crear stores the session and returns its opaque token.
func (s *CheckoutStore) Crear(ctx context.Context, sesion SesionCompra) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(sesion)
	if err != nil {
		return "", err
	}
	if s.rdb == nil {
		s.mu.Lock()
		s.mem[token] = data
		s.mu.Unlock()
		return token, nil
	}
	if err := s.rdb.Set(ctx, checkoutKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *CheckoutStore) Obtener(ctx context.Context, token string) (*SesionCompra, error) {
	var data []byte
	if s.rdb == nil {
		s.mu.Lock()
		d, ok := s.mem[token]
		s.mu.Unlock()
		if !ok {
			return nil, ErrSesionNoEncontrada
		}
		data = d
	} else {
		d, err := s.rdb.Get(ctx, checkoutKeyPrefix+token).Bytes()
		if err == redis.Nil {
			return nil, ErrSesionNoEncontrada
		}
		if err != nil {
			return nil, err
		}
		data = d
	}
	var sesion SesionCompra
	if err := json.Unmarshal(data, &sesion); err != nil {
		return nil, err
	}
	return &sesion, nil
}

// Eliminar discards a session after finalize commits (or on abort).
func (s *CheckoutStore) Eliminar(ctx context.Context, token string) error {
	if s.rdb == nil {
		s.mu.Lock()
		delete(s.mem, token)
		s.mu.Unlock()
		return nil
	}
	return s.rdb.Del(ctx, checkoutKeyPrefix+token).Err()
}
