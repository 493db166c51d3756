package request

import (
	"context"
	"net/http"
	"strings"

	"cdp/pkg/id"
)

type key int

const (
	userKey key = iota
)

// HeaderIdempotencyKey lets a client retry a mutating call safely
const HeaderIdempotencyKey = "Idempotency-Key"

type ContextX struct {
	context.Context
}

// NewContext context extension
func NewContext(ctx context.Context) ContextX {
	return ContextX{
		Context: ctx,
	}
}

// WithUser context with the id of the authenticated user
func (c ContextX) WithUser(userID string) context.Context {
	return context.WithValue(c, userKey, userID)
}

// GetUser id of the authenticated user
func (c ContextX) GetUser() (string, bool) {
	userID, ok := c.Value(userKey).(string)
	return userID, ok && userID != ""
}

// WithIdempotencyKey context carrying the trace id of key, scoped to the
// authenticated user so keys of different users never collide
func (c ContextX) WithIdempotencyKey(key string) context.Context {
	userID, _ := c.GetUser()
	return id.WithTraceID(c, id.TraceIDFrom(userID+":"+key))
}

// HandleIdempotencyKey binds the Idempotency-Key header to the request
func HandleIdempotencyKey(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := NewContext(r.Context()).WithIdempotencyKey(key)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}
