// Package middleware содержит HTTP middleware сервиса каршеринга.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// RoleManager задаёт роль, которой разрешено вести каталог автомобилей.
const RoleManager = "MANAGER"

// AuthMiddleware проверяет bearer-токен, выпущенный сервисом авторизации.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт AuthMiddleware с ключом подписи HS256.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secret),
	}
}

// Middleware проверяет заголовок Authorization и добавляет идентификатор и роль пользователя в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := a.parseHeader(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) parseHeader(header string) (int64, string, error) {
	scheme, tokenStr, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return 0, "", errors.New("missing bearer token")
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" || len(a.secretKey) == 0 {
		return 0, "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return a.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}

	userID, err := subjectID(claims["sub"])
	if err != nil {
		return 0, "", err
	}

	role, _ := claims["role"].(string)
	return userID, role, nil
}

func subjectID(sub any) (int64, error) {
	switch v := sub.(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid sub %q", v)
		}
		return id, nil
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return 0, fmt.Errorf("invalid sub %v", v)
		}
		return int64(v), nil
	}
	return 0, errors.New("missing sub")
}

// RequireRole пропускает запрос, только если у пользователя есть указанная роль.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got, _ := r.Context().Value(roleKey).(string); !strings.EqualFold(got, role) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID кладёт идентификатор пользователя в контекст.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
