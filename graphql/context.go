package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Context keys for resolver injection (avoids circular imports).
type contextKey string

const (
	ctxKeyVendor  contextKey = "vendor"
	ctxKeySession contextKey = "session"
)

// Request sources for the default vendor and cart session.
// Vendor is resolved from: __Vendor query param > JSON variables.__Vendor > Vendor header
const (
	HeaderVendor     = "Vendor"
	QueryParamVendor = "__Vendor"
	VarVendor        = "__Vendor"
	HeaderSession    = "X-Cart-Session"
)

// WithVendor attaches the default vendor to ctx.
func WithVendor(ctx context.Context, vendorID string) context.Context {
	return context.WithValue(ctx, ctxKeyVendor, vendorID)
}

// VendorFromContext returns the request's default vendor, or "".
func VendorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyVendor).(string)
	return v
}

// WithSession attaches the cart session id to ctx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySession, sessionID)
}

// SessionFromContext returns the request's cart session id, or "".
func SessionFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeySession).(string)
	return v
}

// VendorFromRequest picks the default vendor for r. body is the already-read POST payload,
// nil for GET.
func VendorFromRequest(r *http.Request, body []byte) string {
	if q := strings.TrimSpace(r.URL.Query().Get(QueryParamVendor)); q != "" {
		return q
	}
	if v, ok := ParseVendorFromVariables(body); ok {
		return v
	}
	return strings.TrimSpace(r.Header.Get(HeaderVendor))
}

// ParseVendorFromVariables reads variables.__Vendor from a JSON request body.
func ParseVendorFromVariables(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	var payload struct {
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Variables == nil {
		return "", false
	}
	if v, ok := payload.Variables[VarVendor].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}
