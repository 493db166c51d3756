package auth

import (
	"context"
	"net/http"
	"strings"

	"cdp/core"
	"cdp/handler/render"
	"cdp/handler/request"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
)

// Resolver resolves an access token to a user id
type Resolver func(ctx context.Context, token string) (string, error)

// Opaque takes the token itself as the user id. Real authentication happens
// in front of this service.
func Opaque(ctx context.Context, token string) (string, error) {
	if !govalidator.IsPrintableASCII(token) || !govalidator.ByteLength(token, "1", "64") {
		return "", core.ErrAuthorization
	}

	return token, nil
}

// HandleAuthentication handle authentication
func HandleAuthentication(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			accessToken := getBearerToken(r)
			if accessToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolve(ctx, accessToken)
			if err != nil {
				next.ServeHTTP(w, r)
				log.WithError(err).Debugln("parse access token error:", err)
				return
			}

			ctx = logger.WithContext(ctx, log.WithField("user", userID))
			next.ServeHTTP(w, r.WithContext(request.NewContext(ctx).WithUser(userID)))
		}

		return http.HandlerFunc(fn)
	}
}

// RequireUser rejects requests without an authenticated user
func RequireUser(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if _, ok := request.NewContext(r.Context()).GetUser(); !ok {
			render.Unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

func getBearerToken(r *http.Request) string {
	s := r.Header.Get("Authorization")
	return strings.TrimPrefix(s, "Bearer ")
}
