package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned for any cookie value that does not verify
var ErrInvalidToken = errors.New("invalid session token")

// Claims carries the server-side session key as the token id
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session cookie values. The signed value only proves the
// key was issued by this server; the session row stays authoritative for expiry and logout.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec with an HMAC secret
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode returns the cookie value for a session
func (c *Codec) Encode(key string, userID uint, expireAt time.Time) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        key,
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return s, nil
}

// Decode verifies a cookie value and returns its session key
func (c *Codec) Decode(value string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
