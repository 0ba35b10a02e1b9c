package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"mindwell/config"
	"mindwell/models"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

// IdentityClaims is the token body issued by the auth service.
type IdentityClaims struct {
	Gender string `json:"gender"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

func secretKey() ([]byte, error) {
	if config.AppConfig.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return []byte(config.AppConfig.JWTSecret), nil
}

// GenerateToken signs an identity token. Production tokens come from the auth service;
// this is used by the seed tool and tests.
func GenerateToken(id models.Identity, duration time.Duration) (string, error) {
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := IdentityClaims{
		Gender: string(id.Gender),
		Role:   id.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   id.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ParseIdentity verifies the token signature and expiry and returns the identity it carries.
func ParseIdentity(tokenString string) (models.Identity, error) {
	id, _, err := VerifyToken(tokenString)
	return id, err
}

// VerifyToken is ParseIdentity that also reports when the token expires.
func VerifyToken(tokenString string) (models.Identity, time.Time, error) {
	key, err := secretKey()
	if err != nil {
		return models.Identity{}, time.Time{}, err
	}
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == 0 {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: missing subject or expiry", ErrInvalidToken)
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleCounselor {
		return models.Identity{}, time.Time{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}
	id := models.Identity{UserID: claims.Subject, Gender: models.Gender(claims.Gender), Role: role}
	return id, time.Unix(claims.ExpiresAt, 0), nil
}
