package utils

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtMu        sync.RWMutex
	jwtSecretKey []byte
	jwtTTL       = 72 * time.Hour
)

const jwtIssuer = "supplestore-backend"

// ConfigureJWT sets the signing secret and access token lifetime. Called once from main.
func ConfigureJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecretKey = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
}

func signingKey() ([]byte, error) {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	if len(jwtSecretKey) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	return jwtSecretKey, nil
}

// Claims defines the JWT claims structure
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	StoreID int64  `json:"store_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed access token for a merchant user.
func GenerateAccessToken(userID int64, email, role string, storeID int64) (string, time.Time, error) {
	key, err := signingKey()
	if err != nil {
		return "", time.Time{}, err
	}
	jwtMu.RLock()
	expiresAt := time.Now().Add(jwtTTL)
	jwtMu.RUnlock()

	claims := &Claims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		StoreID: storeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses and validates a JWT token string.
func ValidateToken(tokenString string) (*Claims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(jwtIssuer))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
