package infra

// otp_store.go — registration state with TTL in Redis.
// Replaces process-local maps: any instance can verify a code issued by
// another, and unverified registrations expire on their own.

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:registro:"

// ErrOTPInvalido covers unknown email, expired code, or wrong code — the
// caller gets one message for all three so codes cannot be probed.
var ErrOTPInvalido = errors.New("codigo invalido o expirado")

// RegistroPendiente holds the registration data awaiting OTP confirmation.
type RegistroPendiente struct {
	Nombre       string  `json:"nombre"`
	Correo       string  `json:"correo"`
	PasswordHash string  `json:"password_hash"`
	Cedula       *string `json:"cedula,omitempty"`
	Telefono     *string `json:"telefono,omitempty"`
	Codigo       string  `json:"codigo"`
}

// OTPStore keeps pending registrations keyed by email. A nil Redis client
// switches it to an in-process map (unit tests), losing TTL expiry.
type OTPStore struct {
	rdb *redis.Client
	ttl time.Duration

	mu  sync.Mutex
	mem map[string][]byte
}

func NewOTPStore(rdb *redis.Client, ttl time.Duration) *OTPStore {
	s := &OTPStore{rdb: rdb, ttl: ttl}
	if rdb == nil {
		s.mem = make(map[string][]byte)
	}
	return s
}

// GenerarCodigo returns a random six-digit code.
func GenerarCodigo() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Guardar stores the pending registration, replacing any previous one for
// the same email.
func (s *OTPStore) Guardar(ctx context.Context, reg RegistroPendiente) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	if s.rdb == nil {
		s.mu.Lock()
		s.mem[reg.Correo] = data
		s.mu.Unlock()
		return nil
	}
	return s.rdb.Set(ctx, otpKeyPrefix+reg.Correo, data, s.ttl).Err()
}

// Verificar checks the code and, on success, consumes the pending
// registration so it cannot be replayed.
func (s *OTPStore) Verificar(ctx context.Context, correo, codigo string) (*RegistroPendiente, error) {
	var data []byte
	if s.rdb == nil {
		s.mu.Lock()
		d, ok := s.mem[correo]
		s.mu.Unlock()
		if !ok {
			return nil, ErrOTPInvalido
		}
		data = d
	} else {
		key := otpKeyPrefix + correo
		d, err := s.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, ErrOTPInvalido
		}
		if err != nil {
			return nil, err
		}
		data = d
	}
	var reg RegistroPendiente
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if reg.Codigo != codigo {
		return nil, ErrOTPInvalido
	}
	if s.rdb == nil {
		s.mu.Lock()
		delete(s.mem, correo)
		s.mu.Unlock()
	} else {
		_ = s.rdb.Del(ctx, otpKeyPrefix+correo).Err()
	}
	return &reg, nil
}
