package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

func appendRoleChar(token string, role Role) string {
	switch role {
	case RoleOperator:
		return token + "1"
	}
	return token
}

func expectedRoleChar(role Role) string {
	switch role {
	case RoleOperator:
		return "1"
	}
	return ""
}

func CreateToken(operator Operator, role Role, validUntil int64) (string, error) {
	secret, ok := RoleSecrets[role]
	if !ok {
		return "", fmt.Errorf("invalid role specified")
	}

	if validUntil == 0 {
		now := time.Now()
		validUntil = now.Add(time.Minute * 15).Unix()
	}

	claims := jwt.MapClaims{
		"id":    operator.Id,
		"email": operator.Email,
		"name":  operator.Name,
		"exp":   validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return appendRoleChar(tokenString, role), nil
}

// Parse token (access) with role char validation
func ParseToken(tokenString string, role Role) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("token string is empty")
	}

	if tokenString[len(tokenString)-1:] != expectedRoleChar(role) {
		return nil, fmt.Errorf("invalid role character in token")
	}
	tokenString = tokenString[:len(tokenString)-1] // Remove role char

	secret, ok := RoleSecrets[role]
	if !ok {
		return nil, fmt.Errorf("invalid role specified")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims of unauthorized type")
	}

	return claims, nil
}
