package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/glossly/booking-service/internal/api/handlers"
	"github.com/glossly/booking-service/internal/domain"
)

// Заголовки, которые проставляет API gateway после проверки токена
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type actorContextKey struct{}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Auth извлекает аутентифицированного пользователя из заголовков
// gateway и кладет domain.Actor в контекст запроса
func Auth(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := r.Header.Get(HeaderUserID)
			role := r.Header.Get(HeaderUserRole)

			userID, err := strconv.ParseInt(userIDStr, 10, 64)
			if err != nil || userID <= 0 {
				logger.Warn("Auth: missing or invalid %s header: %q", HeaderUserID, userIDStr)
				handlers.RespondUnauthorized(w, "authentication required")
				return
			}

			var actor domain.Actor
			switch domain.ActorRole(role) {
			case domain.RoleClient:
				actor = domain.ClientActor(userID)
			case domain.RoleProvider:
				actor = domain.ProviderActor(userID)
			default:
				logger.Warn("Auth: unknown %s header: %q", HeaderUserRole, role)
				handlers.RespondUnauthorized(w, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext возвращает актора, положенного Auth middleware
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}
