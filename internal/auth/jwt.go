package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a verified token tells us about the caller.
type Claims struct {
	UserID string
	Role   Role
}

// TokenManager signs and verifies the bearer tokens ("passports")
// handed out at login.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateToken creates a new JWT for a given user ID and role.
func (m *TokenManager) GenerateToken(userID string, role Role) (string, error) {
	now := m.now()

	// 1. Create the claims. "sub" is the standard claim for the user ID.
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  now.Add(m.ttl).Unix(),
		"iat":  now.Unix(),
	}

	// 2. Sign it with HS256 and our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT token string.
func (m *TokenManager) ValidateToken(tokenString string) (Claims, error) {
	// 1. Parse the token string.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 2. Only accept tokens signed with the algorithm we use.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return Claims{}, err
	}

	// 3. Pull subject and role out of the claims.
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return Claims{}, errors.New("invalid subject claim")
	}

	roleName, _ := claims["role"].(string)
	role := Role(roleName)
	if !role.Valid() {
		return Claims{}, errors.New("invalid role claim")
	}

	return Claims{UserID: userID, Role: role}, nil
}
