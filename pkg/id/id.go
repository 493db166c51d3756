package id

import (
	"context"
	"crypto/md5"
	"io"
	"strconv"

	foxuuid "github.com/fox-one/pkg/uuid"
	"github.com/gofrs/uuid"
)

// vaultNamespace namespace of the v5 vault ids
var vaultNamespace = uuid.Must(uuid.FromString("3b5d2c3e-7f0a-4b8e-9a51-6d1c0e2f4a77"))

// VaultID stable vault id for an (owner, collateral type) pair
func VaultID(owner, collateralType string) string {
	return uuid.NewV5(vaultNamespace, owner+":"+collateralType).String()
}

// GenTraceID new random trace id
func GenTraceID() string {
	return foxuuid.New()
}

// TraceIDFrom deterministic trace id from text, used for idempotent requests
func TraceIDFrom(text string) string {
	h := md5.New()
	_, _ = io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}

// SubTraceID derives the trace id of the step-th sub operation of traceID
func SubTraceID(traceID string, step int) string {
	return foxuuid.Modify(traceID, strconv.Itoa(step))
}

// IsUUID reports whether s parses as a uuid
func IsUUID(s string) bool {
	_, err := uuid.FromString(s)
	return err == nil
}

type traceKey struct{}

// WithTraceID binds traceID to ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext trace id bound to ctx, if any
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceKey{}).(string)
	return traceID, ok && traceID != ""
}
