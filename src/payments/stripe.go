package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"tixmart/src/lib"
	"tixmart/src/models"
	"tixmart/src/services"
	"tixmart/src/types"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func StripeCreateCheckout(ctx context.Context, order *models.Order, items []CheckoutItem) (string, string, error) {
	sc := lib.GetStripeClient()
	appHost := os.Getenv("APP_HOST")
	metadata := map[string]string{"requestId": order.RequestID}
	piParams := &stripe.CheckoutSessionCreatePaymentIntentDataParams{}
	for k, v := range metadata {
		piParams.AddMetadata(k, v)
	}
	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Qty),
		})
	}
	params := &stripe.CheckoutSessionCreateParams{
		SuccessURL:        stripe.String(fmt.Sprintf("%s/checkout/callback/success", appHost)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/checkout/callback/cancel", appHost)),
		UIMode:            stripe.String("hosted"),
		Mode:              stripe.String("payment"),
		PaymentIntentData: piParams,
		LineItems:         lineItems,
		Metadata:          metadata,
	}
	session, err := sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return "", "", err
	}
	return session.ID, session.URL, nil
}

// StripeParseWebhook verifies the Stripe-Signature header and reduces the
// event to a canonical notification. Event types outside the payment flow
// map to a pending notification, which the reconciler acknowledges without
// touching state.
func StripeParseWebhook(payload []byte, sigHeader string) (*services.Notification, error) {
	whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(payload, sigHeader, whsecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", services.ErrInvalidSignature, err.Error())
	}
	log.Printf("[StripeEvent] %s\n", event.Type)
	n := services.Notification{Provider: types.PROVIDER_STRIPE, Status: types.PAYMENT_PENDING}
	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
			return &n, nil
		}
		n.RequestID = cs.Metadata["requestId"]
		n.TxnID = cs.ID
		if cs.PaymentIntent != nil {
			n.TxnID = cs.PaymentIntent.ID
		}
		n.Amount = cs.AmountTotal
		if event.Type == "checkout.session.expired" {
			n.Status = types.PAYMENT_EXPIRED
		} else if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			n.Status = types.PAYMENT_SUCCEEDED
		}
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
			return &n, nil
		}
		n.RequestID = pi.Metadata["requestId"]
		n.TxnID = pi.ID
		n.Amount = pi.Amount
		switch event.Type {
		case "payment_intent.succeeded":
			n.Status = types.PAYMENT_SUCCEEDED
		case "payment_intent.payment_failed":
			n.Status = types.PAYMENT_FAILED
		case "payment_intent.canceled":
			n.Status = types.PAYMENT_CANCELED
		}
	}
	return &n, nil
}

func StripeQueryStatus(ctx context.Context, order *models.Order) (*services.Notification, error) {
	sc := lib.GetStripeClient()
	session, err := sc.V1CheckoutSessions.Retrieve(ctx, *order.SessionID, nil)
	if err != nil {
		return nil, err
	}
	n := services.Notification{
		Provider:  types.PROVIDER_STRIPE,
		RequestID: order.RequestID,
		TxnID:     session.ID,
		Amount:    session.AmountTotal,
		Status:    types.PAYMENT_PENDING,
	}
	if session.PaymentIntent != nil {
		n.TxnID = session.PaymentIntent.ID
	}
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		n.Status = types.PAYMENT_SUCCEEDED
	} else if session.Status == stripe.CheckoutSessionStatusExpired {
		n.Status = types.PAYMENT_EXPIRED
	}
	return &n, nil
}
