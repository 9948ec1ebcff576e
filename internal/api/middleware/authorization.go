package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	iternal_jwt "lumenhaus-backend/internal/jwt"
)

func ValidateJWTMiddleware(role iternal_jwt.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")

			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			claims, err := iternal_jwt.ParseToken(tokenString, role)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			expires := int64(claims["exp"].(float64))
			if time.Now().Unix() > expires {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			next(w, r)
		}
	}
}

// OperatorFromRequest resolves the authenticated operator from the bearer
// token. Handlers behind ValidateOperatorJWT use it to stamp replies with the
// operator identity.
func OperatorFromRequest(r *http.Request) (iternal_jwt.Operator, error) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		return iternal_jwt.Operator{}, fmt.Errorf("missing token")
	}

	claims, err := iternal_jwt.ParseToken(tokenString, iternal_jwt.RoleOperator)
	if err != nil {
		return iternal_jwt.Operator{}, err
	}

	operator := iternal_jwt.Operator{}
	if id, ok := claims["id"].(string); ok {
		operator.Id = id
	}
	if email, ok := claims["email"].(string); ok {
		operator.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		operator.Name = name
	}
	if operator.Name == "" {
		operator.Name = operator.Email
	}
	return operator, nil
}

var ValidateOperatorJWT = ValidateJWTMiddleware(iternal_jwt.RoleOperator)
