package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller role carried in the "role" claim.
type Role string

const (
	RoleHR      Role = "hr"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleHR || r == RoleManager || r == RoleAdmin
}

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

// GenerateToken signs an HS256 token for userID with the given role.
func GenerateToken(userID string, role Role, secret string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
