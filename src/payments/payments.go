package payments

import (
	"context"
	"fmt"

	"tixmart/src/models"
	"tixmart/src/services"
	"tixmart/src/types"
)

// CheckoutItem is one priced line of a checkout session, provider-neutral.
type CheckoutItem struct {
	Name       string
	Currency   string
	UnitAmount int64
	Qty        int64
}

// CreateCheckout starts a hosted checkout session with the order's
// provider and returns the session id and the redirect URL for the buyer.
func CreateCheckout(ctx context.Context, order *models.Order, items []CheckoutItem) (string, string, error) {
	switch order.Provider {
	case types.PROVIDER_STRIPE:
		return StripeCreateCheckout(ctx, order, items)
	case types.PROVIDER_PAYMONGO:
		return PayMongoCreateCheckout(ctx, order, items)
	default:
		return "", "", fmt.Errorf("unsupported payment provider %q", order.Provider)
	}
}

// QueryStatus is the polling-style counterpart of the webhooks: it asks
// the provider for the session's current state and reduces it to the same
// canonical notification the reconciler consumes.
func QueryStatus(ctx context.Context, order *models.Order) (*services.Notification, error) {
	if order.SessionID == nil {
		return nil, fmt.Errorf("order %d has no checkout session", order.ID)
	}
	switch order.Provider {
	case types.PROVIDER_STRIPE:
		return StripeQueryStatus(ctx, order)
	case types.PROVIDER_PAYMONGO:
		return PayMongoQueryStatus(ctx, order)
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", order.Provider)
	}
}
