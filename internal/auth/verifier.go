package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/recipechat-server/internal/core"
)

// Identity assigned in dev mode to tokens that carry no subject.
const (
	PlaceholderEmail    = "test@example.com"
	PlaceholderUsername = "test"
)

// Verifier checks bearer tokens and implements core.IdentityVerifier.
//
// In strict mode the signature, algorithm, subject and expiry are all
// checked. In dev mode (JWTConfig.DevMode) the token only has to decode:
// the signature is ignored and a token without a subject maps to the
// placeholder identity.
type Verifier struct {
	cfg    *JWTConfig
	method jwt.SigningMethod
}

var _ core.IdentityVerifier = (*Verifier)(nil)

// NewVerifier validates cfg and builds a verifier.
func NewVerifier(cfg *JWTConfig) (*Verifier, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return nil, err
	}
	if !cfg.DevMode && len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("jwt secret is required unless dev mode is enabled")
	}
	return &Verifier{cfg: cfg, method: method}, nil
}

// DevMode reports whether signatures are skipped.
func (v *Verifier) DevMode() bool {
	return v.cfg.DevMode
}

// Verify parses token and returns the identity it names.
// Every failure wraps core.ErrAuth.
func (v *Verifier) Verify(token string) (core.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.Identity{}, fmt.Errorf("%w: missing token", core.ErrAuth)
	}

	if v.cfg.DevMode {
		return v.verifyUnsigned(token)
	}
	return v.verifyStrict(token)
}

func (v *Verifier) verifyStrict(token string) (core.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: %w", core.ErrAuth, err)
	}
	if !parsed.Valid {
		return core.Identity{}, fmt.Errorf("%w: invalid token", core.ErrAuth)
	}
	if claims.Subject == "" {
		return core.Identity{}, fmt.Errorf("%w: missing subject claim", core.ErrAuth)
	}

	return identityFromClaims(claims), nil
}

func (v *Verifier) verifyUnsigned(token string) (core.Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return core.Identity{}, fmt.Errorf("%w: undecodable token: %w", core.ErrAuth, err)
	}
	if claims.Subject == "" {
		return core.Identity{Email: PlaceholderEmail, Username: PlaceholderUsername}, nil
	}
	return identityFromClaims(claims), nil
}

func identityFromClaims(claims *Claims) core.Identity {
	username := strings.TrimSpace(claims.Username)
	if username == "" {
		username = core.UsernameFromEmail(claims.Subject)
	}
	return core.Identity{Email: claims.Subject, Username: username}
}
