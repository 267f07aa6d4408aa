package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "kintree/pkg/errors"
)

// JWTConfig holds token validation settings.
type JWTConfig struct {
	SecretKey string
	Issuer    string
}

// Claims are the token claims the graph core cares about: the subject is the
// opaque actor identity.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTValidator validates bearer tokens issued by the auth collaborator.
type JWTValidator struct {
	config JWTConfig
}

// NewJWTValidator creates a validator for HS256 tokens.
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	return &JWTValidator{config: config}, nil
}

// Validate parses and verifies the token, returning the actor identity from
// the subject claim.
func (v *JWTValidator) Validate(tokenString string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if v.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.config.SecretKey), nil
	}, options...)
	if err != nil {
		return "", pkgerrors.NewUnauthorizedError("invalid token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", pkgerrors.NewUnauthorizedError("token has no subject")
	}
	return claims.Subject, nil
}
