package utils

import (
	"errors"
	"os"
	"strconv"
	"time"

	"kobo/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer     = "kobo-api"
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrSecretNotConfigured = errors.New("JWT_SECRET not configured")
	ErrInvalidTokenClaims  = errors.New("invalid token claims")
)

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrSecretNotConfigured
	}
	return []byte(secret), nil
}

// GenerateTokens issues the access/refresh pair for a user. Permissions ride
// only on the short-lived access token; the refresh token carries just enough
// to mint a new pair, gated by the token version.
func GenerateTokens(src *models.UserClaims) (string, string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", "", err
	}

	access, err := signToken(src, secret, accessTokenTTL, true)
	if err != nil {
		return "", "", err
	}
	refresh, err := signToken(src, secret, refreshTokenTTL, false)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func signToken(src *models.UserClaims, secret []byte, ttl time.Duration, withPermissions bool) (string, error) {
	now := time.Now()
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(src.UserID), 10),
		},
		UserID:       src.UserID,
		Email:        src.Email,
		TokenVersion: src.TokenVersion,
	}
	if withPermissions {
		claims.Permissions = src.Permissions
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a signed token and returns its claims. Only HMAC
// signatures are accepted.
func ParseToken(tokenStr string) (*models.UserClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidTokenClaims
	}
	return claims, nil
}
