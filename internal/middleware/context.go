package middleware

import (
	"context"

	"github.com/projectcancer/internal/service"
)

type contextKey string

const IdentityKey contextKey = "identity"

// WithIdentity кладёт проверенного клиента в контекст (BearerAuth, RemoteValidate).
func WithIdentity(ctx context.Context, id *service.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity возвращает клиента запроса или nil, если маршрут не закрыт проверкой.
func GetIdentity(ctx context.Context) *service.Identity {
	v, _ := ctx.Value(IdentityKey).(*service.Identity)
	return v
}

// GetClientID: id клиента из контекста или "".
func GetClientID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.ClientID
	}
	return ""
}
