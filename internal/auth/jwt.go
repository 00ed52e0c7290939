package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims issued by the account service.
// The subject carries the user's email.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret    []byte
	Algorithm string
	TTL       time.Duration
	// DevMode skips signature verification. See Verifier.
	DevMode bool
}

func (c *JWTConfig) signingMethod() (jwt.SigningMethod, error) {
	alg := c.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method := jwt.GetSigningMethod(alg)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	return method, nil
}

// GenerateToken creates a signed JWT whose subject is email.
func GenerateToken(cfg *JWTConfig, email, username string) (string, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString(cfg.Secret)
}
