package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service issues and verifies the access tokens this API accepts. Identity
// itself is managed by the school's SSO; this service only mints tokens for
// local development and service-to-service calls.
type Service interface {
	GenerateAccessToken(userID string, employeeID string, capabilities []string, expiry time.Duration) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID string, capabilities []string, expiry time.Duration) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(expiry).Unix()

	claims := map[string]interface{}{
		"user_id":      userID,
		"employee_id":  employeeID,
		"capabilities": capabilities,
		"type":         "access",
		"exp":          expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}
