package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"venue-manager/models"
)

// ErrInvalidToken covers malformed, forged and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the application facts carried by an access token.
type Claims struct {
	UserID    int64
	Role      models.Role
	ExpiresAt time.Time
}

type roleClaim struct {
	Role models.Role `json:"role"`
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	key    []byte
	ttl    time.Duration
	signer jose.Signer
	now    func() time.Time
}

// NewTokenManager creates a manager signing with secret. Tokens live for ttl.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	key := []byte(secret)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("token signer: %w", err)
	}
	return &TokenManager{key: key, ttl: ttl, signer: signer, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue returns a signed token for user.
func (tm *TokenManager) Issue(user *models.User) (string, error) {
	now := tm.now()
	std := jwt.Claims{
		Subject:  strconv.FormatInt(user.ID, 10),
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(tm.ttl)),
	}
	raw, err := jwt.Signed(tm.signer).Claims(std).Claims(roleClaim{Role: user.Role}).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return raw, nil
}

// Verify checks signature and expiry of raw and returns its claims.
func (tm *TokenManager) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseSigned(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if len(tok.Headers) != 1 || tok.Headers[0].Algorithm != string(jose.HS256) {
		return nil, ErrInvalidToken
	}

	var std jwt.Claims
	var rc roleClaim
	if err := tok.Claims(tm.key, &std, &rc); err != nil {
		return nil, ErrInvalidToken
	}
	if err := std.ValidateWithLeeway(jwt.Expected{Time: tm.now()}, 0); err != nil {
		return nil, ErrInvalidToken
	}
	if std.Expiry == nil {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: id, Role: rc.Role, ExpiresAt: std.Expiry.Time()}, nil
}
