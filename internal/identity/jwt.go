// Package identity turns bearer tokens into callers.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens. The subject is the user id.
type Claims struct {
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider issues and verifies HS256 tokens.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret, issuer string, ttl time.Duration) *JWTProvider {
	return &JWTProvider{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the user
func (p *JWTProvider) Issue(userID uuid.UUID, phone, role string) (string, time.Time, error) {
	if role == "" {
		role = model.RoleUser
	}
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := &Claims{
		Phone: phone,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Resolve verifies the token and returns the caller it was issued for
func (p *JWTProvider) Resolve(token string) (model.Caller, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return model.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return model.Caller{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return model.Caller{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	// system identity is reserved for internal jobs
	if claims.Role != model.RoleUser {
		return model.Caller{}, fmt.Errorf("%w: unsupported role %q", ErrInvalidToken, claims.Role)
	}

	return model.Caller{
		ID:    id,
		Role:  claims.Role,
		Phone: claims.Phone,
	}, nil
}
