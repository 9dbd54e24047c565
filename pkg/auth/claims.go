package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT claims structure for API bearer tokens. It embeds
// RegisteredClaims for standard fields (sub, exp, iat) and records whether
// the account is an administrator. Grants are intentionally NOT in the token:
// they are read from the registry snapshot on every request so administrative
// edits take effect immediately.
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"adm,omitempty"`
}

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "moop-engine"

// IssueToken mints a signed bearer token for an authenticated account.
func IssueToken(secret, username string, admin bool, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Admin: admin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and returns its claims.
func VerifyToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return claims, nil
}
