// Package token выпускает и проверяет подписанные JWT двух видов: короткоживущий access
// и refresh на 7 дней. Пакет не делает I/O; отзыв токенов проверяется по таблице sessions.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken: битая подпись, чужой секрет/вид токена, неверный алгоритм или формат.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired: подпись верна, но срок действия истёк.
	ErrExpired = errors.New("token expired")
)

// Kind: вид токена; у каждого свой секрет.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	switch k {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Claims: полезная нагрузка: id и email клиента. jti уникален для каждого токена.
type Claims struct {
	ClientID string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// RefreshTTL нужен менеджеру сессий для expires_at строки.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess подписывает access-токен только с {id, email}.
func (c *Codec) IssueAccess(claims Claims) (string, error) {
	return c.issue(Claims{ClientID: claims.ClientID, Email: claims.Email}, Access)
}

// IssueRefresh подписывает refresh-токен со всеми данными клиента, известными при входе.
func (c *Codec) IssueRefresh(claims Claims) (string, error) {
	return c.issue(claims, Refresh)
}

func (c *Codec) issue(claims Claims, kind Kind) (string, error) {
	secret, ttl := c.params(kind)
	now := c.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.ClientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token.issue %s: %w", kind, err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия. Возвращает ErrExpired или ErrInvalidToken.
func (c *Codec) Verify(tokenString string, kind Kind) (*Claims, error) {
	secret, _ := c.params(kind)
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid || claims.ClientID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) params(kind Kind) ([]byte, time.Duration) {
	if kind == Refresh {
		return c.refreshSecret, c.refreshTTL
	}
	return c.accessSecret, c.accessTTL
}
