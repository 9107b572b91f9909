package session

import (
	"time"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/golang-jwt/jwt/v5"
)

// Claims extends the registered JWT claims with the session identity.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string      `json:"tid"`
	Role     record.Role `json:"role"`
}

// GenerateToken mints an HS256 session token for the authenticated identity.
func GenerateToken(sess Context, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.IdentityID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		TenantID: sess.TenantID,
		Role:     sess.Role,
	})
	return token.SignedString(secret)
}

// ParseToken validates a session token and rebuilds the Context it encodes.
func ParseToken(tokenString string, secret []byte) (*Context, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return &Context{
		TenantID:   claims.TenantID,
		IdentityID: claims.Subject,
		Role:       claims.Role,
		Token:      tokenString,
	}, nil
}
