package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-user-directory/internal/config"
	"github.com/go-user-directory/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields. Subject is the account email; UserID
// carries the directory record id.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a shared symmetric key.
// The clock is injected so expiry behaviour is testable.
type Provider struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	now      func() time.Time
}

// NewProvider builds a Provider from configuration. A missing secret, issuer
// or audience is a configuration error: callers are expected to treat it as
// fatal at startup rather than degrade into serving unsigned requests.
func NewProvider(cfg *config.Config, now func() time.Time) (*Provider, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY is not configured")
	}
	if cfg.JWTIssuer == "" {
		return nil, errors.New("JWT_ISSUER is not configured")
	}
	if cfg.JWTAudience == "" {
		return nil, errors.New("JWT_AUDIENCE is not configured")
	}
	if cfg.JWTExpiryDays <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRY_DAYS must be positive, got %d", cfg.JWTExpiryDays)
	}
	if now == nil {
		now = time.Now
	}
	return &Provider{
		secret:   []byte(cfg.JWTSecretKey),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		expiry:   time.Duration(cfg.JWTExpiryDays) * 24 * time.Hour,
		now:      now,
	}, nil
}

// Sign mints a token for the given account: sub=email, uid=userID, fresh jti,
// configured issuer/audience, expiry = now + configured lifetime.
func (p *Provider) Sign(email, userID string) (string, error) {
	now := p.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        id.New(),
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify checks signature, issuer, audience and expiry. Every failure mode
// collapses into one opaque error so callers cannot tell which check failed.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
