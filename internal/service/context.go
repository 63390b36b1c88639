package service

import (
	"context"

	"warungpay/backend/internal/domain"
)

type merchantContextKey struct{}
type tokenContextKey struct{}

func WithMerchant(ctx context.Context, m domain.Merchant) context.Context {
	return context.WithValue(ctx, merchantContextKey{}, m)
}

func MerchantFromContext(ctx context.Context) (domain.Merchant, bool) {
	m, ok := ctx.Value(merchantContextKey{}).(domain.Merchant)
	return m, ok
}

// WithAuthToken carries the identity collaborator's bearer token so outbound
// calls (lookup, payment request, ledger pull) can present it.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

func AuthTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}
