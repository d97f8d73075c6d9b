package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var errTokenClaims = errors.New("token carries no player id")

// Claims is the private claim set carried next to the registered ones.
type Claims struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
}

// TokenIssuer signs and verifies HS256 player tokens.
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	signer jose.Signer
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	key := []byte(secret)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("create token signer: %w", err)
	}
	return &TokenIssuer{key: key, ttl: ttl, signer: signer, now: time.Now}, nil
}

func (t *TokenIssuer) Issue(c Claims) (string, error) {
	now := t.now()
	std := jwt.Claims{
		Subject:  c.ID,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(t.ttl)),
	}
	raw, err := jwt.Signed(t.signer).Claims(std).Claims(c).Serialize()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return raw, nil
}

// Verify checks signature and expiry and returns the private claims.
func (t *TokenIssuer) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, err
	}

	var (
		std jwt.Claims
		c   Claims
	)
	if err := tok.Claims(t.key, &std, &c); err != nil {
		return nil, err
	}
	if err := std.ValidateWithLeeway(jwt.Expected{Time: t.now()}, 0); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = std.Subject
	}
	if c.ID == "" {
		return nil, errTokenClaims
	}
	return &c, nil
}
