package middleware

import (
	"net/http"
	"strings"

	"apolo/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Correo string   `json:"correo"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TieneRol reports whether the token carries the given role.
func (c *JWTClaims) TieneRol(nombre string) bool {
	for _, r := range c.Roles {
		if r == nombre {
			return true
		}
	}
	return false
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(err.Error()))
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// JWTOptional parses the Bearer token when present but lets anonymous
// requests through — the checkout address step serves both guests and
// logged-in buyers on one route.
func JWTOptional(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, err := parseBearer(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(err.Error()))
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret string) (*JWTClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, errAutenticacionRequerida
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errTokenInvalido
	}
	return claims, nil
}

var (
	errAutenticacionRequerida = &mensajeError{"Autenticacion requerida"}
	errTokenInvalido          = &mensajeError{"Token invalido o expirado"}
)

type mensajeError struct{ msg string }

func (e *mensajeError) Error() string { return e.msg }

// RequireRole rejects requests lacking every one of the allowed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		for _, r := range roles {
			if claims.TieneRol(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetClaimsOpcional returns the claims when JWTOptional parsed a token, nil
// for anonymous requests.
func GetClaimsOpcional(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
