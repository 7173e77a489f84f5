package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"smartcity-air/internal/models"
)

// ErrInvalidToken токен не прошел проверку
var ErrInvalidToken = errors.New("auth: invalid token")

const issuer = "smartcity-air"

type userClaims struct {
	Name    string `json:"name"`
	Persona string `json:"persona"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer выпускает и проверяет токены
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer создает выпускающего с секретом HS256
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue подписанный токен пользователя
func (i *Issuer) Issue(u models.User) (string, error) {
	now := i.now()
	claims := userClaims{
		Name:    u.Name,
		Persona: u.Persona,
		Role:    u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок, возвращает пользователя
func (i *Issuer) Verify(raw string) (models.User, error) {
	var claims userClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return models.User{
		Email:   claims.Subject,
		Name:    claims.Name,
		Persona: claims.Persona,
		Role:    claims.Role,
	}, nil
}
