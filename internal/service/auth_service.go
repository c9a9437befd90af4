package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apolo/internal/apierror"
	"apolo/internal/config"
	"apolo/internal/dto"
	"apolo/internal/infra"
	"apolo/internal/model"
	"apolo/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService covers registration with OTP verification, login/refresh and
// the staff-facing user CRUD. Registration is two-phase: the account row is
// only created once the emailed code comes back, so unverified signups leave
// no trace beyond a Redis entry with a TTL.
type AuthService interface {
	Registrar(ctx context.Context, req dto.RegistroRequest) error
	VerificarOTP(ctx context.Context, req dto.VerificarOTPRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)

	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo     repository.UsuarioRepository
	otpStore *infra.OTPStore
	mailer   *infra.Mailer
	cfg      *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, otpStore *infra.OTPStore, mailer *infra.Mailer, cfg *config.Config) AuthService {
	return &authService{repo: repo, otpStore: otpStore, mailer: mailer, cfg: cfg}
}

// Registrar stores the pending signup in Redis and mails the OTP. An already
// registered correo is a conflict; a pending-but-unverified one is simply
// overwritten with a fresh code.
func (s *authService) Registrar(ctx context.Context, req dto.RegistroRequest) error {
	correo := strings.ToLower(req.Correo)
	if _, err := s.repo.FindByCorreo(ctx, correo); err == nil {
		return fmt.Errorf("%w: el correo ya esta registrado", apierror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return err
	}
	codigo, err := infra.GenerarCodigo()
	if err != nil {
		return err
	}

	reg := infra.RegistroPendiente{
		Nombre:       req.Nombre,
		Correo:       correo,
		PasswordHash: string(hash),
		Cedula:       req.Cedula,
		Telefono:     req.Telefono,
		Codigo:       codigo,
	}
	if err := s.otpStore.Guardar(ctx, reg); err != nil {
		return err
	}
	if err := s.mailer.SendOTP(correo, codigo); err != nil {
		return fmt.Errorf("no se pudo enviar el codigo de verificacion: %w", err)
	}
	return nil
}

// VerificarOTP consumes the pending registration and creates the account
// with the cliente role, returning a ready session.
func (s *authService) VerificarOTP(ctx context.Context, req dto.VerificarOTPRequest) (*dto.LoginResponse, error) {
	reg, err := s.otpStore.Verificar(ctx, strings.ToLower(req.Correo), req.Codigo)
	if err != nil {
		if errors.Is(err, infra.ErrOTPInvalido) {
			return nil, fmt.Errorf("%w: codigo invalido o expirado", apierror.ErrUnauthorized)
		}
		return nil, err
	}

	user := &model.Usuario{
		Nombre:       reg.Nombre,
		Correo:       reg.Correo,
		PasswordHash: &reg.PasswordHash,
		Cedula:       reg.Cedula,
		Telefono:     reg.Telefono,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	if rol, err := s.repo.FindRol(ctx, model.RolCliente); err == nil {
		_ = s.repo.AsignarRol(ctx, user.ID, rol)
		user.Roles = []model.Rol{*rol}
	}
	return s.sesionPara(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByCorreo(ctx, strings.ToLower(req.Correo))
	if err != nil {
		return nil, fmt.Errorf("%w: credenciales invalidas", apierror.ErrUnauthorized)
	}
	if !user.Activo || user.PasswordHash == nil {
		return nil, fmt.Errorf("%w: credenciales invalidas", apierror.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: credenciales invalidas", apierror.ErrUnauthorized)
	}
	return s.sesionPara(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: refresh token invalido o expirado", apierror.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: claims invalidos", apierror.ErrUnauthorized)
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: token mal formado", apierror.ErrUnauthorized)
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: token mal formado", apierror.ErrUnauthorized)
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, fmt.Errorf("%w: usuario no encontrado o inactivo", apierror.ErrUnauthorized)
	}
	return s.sesionPara(user)
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: usuario", apierror.ErrNotFound)
	}
	if req.Nombre != "" {
		user.Nombre = req.Nombre
	}
	if req.Cedula != nil {
		user.Cedula = req.Cedula
	}
	if req.Telefono != nil {
		user.Telefono = req.Telefono
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, err
		}
		hashStr := string(hash)
		user.PasswordHash = &hashStr
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	if len(req.Roles) > 0 {
		roles := make([]model.Rol, 0, len(req.Roles))
		for _, nombre := range req.Roles {
			rol, err := s.repo.FindRol(ctx, nombre)
			if err != nil {
				return nil, err
			}
			roles = append(roles, *rol)
		}
		if err := s.repo.ReemplazarRoles(ctx, user, roles); err != nil {
			return nil, err
		}
		user.Roles = roles
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivar(ctx, id)
}

func (s *authService) sesionPara(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	roles := make([]string, len(user.Roles))
	for i, r := range user.Roles {
		roles[i] = r.Nombre
	}
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"correo":  user.Correo,
		"roles":   roles,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = r.Nombre
	}
	return dto.UsuarioResponse{
		ID:       u.ID.String(),
		Nombre:   u.Nombre,
		Correo:   u.Correo,
		Cedula:   u.Cedula,
		Telefono: u.Telefono,
		Roles:    roles,
		Activo:   u.Activo,
	}
}
