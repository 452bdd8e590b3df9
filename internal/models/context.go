package models

import (
	"context"
)

type principalContextKey struct{}
type paymentContextKey struct{}

const RoleAdmin = "admin"

// Principal is an authenticated caller, as established by the HTTP auth middleware.
type Principal struct {
	UserId string
	Roles  []string
}

func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }

// PaymentContext carries what the signature middleware learned about a payment request.
type PaymentContext struct {
	ApiKeyId  string
	Signed    bool
	RequestId string
}

// WithPrincipal attaches an authenticated principal to a context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// GetPrincipal retrieves the principal from context, or nil if absent.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// WithPaymentContext attaches payment request data to a context.
func WithPaymentContext(ctx context.Context, pc *PaymentContext) context.Context {
	return context.WithValue(ctx, paymentContextKey{}, pc)
}

// GetPaymentContext retrieves payment request data from context, or nil if absent.
func GetPaymentContext(ctx context.Context) *PaymentContext {
	pc, _ := ctx.Value(paymentContextKey{}).(*PaymentContext)
	return pc
}
