package httpx

import "context"

type ctxKey string

// CtxKeyAccountID carries the authenticated account id, set by the authn
// middleware and read by the per-account rate limiter.
const CtxKeyAccountID ctxKey = "account_id"

func accountIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAccountID).(string); ok {
		return v
	}
	return ""
}
