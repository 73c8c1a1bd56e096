package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/domain"
)

// TokenValidator — интерфейс проверки токена для HTTP-периметра
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

// Ключи контекста запроса
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxScopes   = "user_scopes"
)

func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Прокидываем данные в контекст
			ctx := context.WithValue(r.Context(), CtxScopes, claims.Scopes)
			ctx = context.WithValue(ctx, CtxUserID, claims.UserID)
			ctx = context.WithValue(ctx, CtxUsername, claims.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext достает имя авторизованного пользователя.
// Пустая строка — запрос пришел мимо middleware (например, в тестах).
func UsernameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(CtxUsername).(string); ok {
		return name
	}
	return ""
}

// IsAdmin проверяет admin-scope из токена
func IsAdmin(ctx context.Context) bool {
	scopes, ok := ctx.Value(CtxScopes).(map[string]bool)
	return ok && scopes["admin"]
}
