package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"tixmart/src/models"
	"tixmart/src/services"
	"tixmart/src/types"

	"github.com/tidwall/gjson"
)

// PayMongo has no official Go SDK, so the adapter talks to its REST API
// directly and verifies webhooks with the documented HMAC-SHA256 scheme.

const paymongoBaseURL = "https://api.paymongo.com/v1"

var paymongoHTTP = &http.Client{Timeout: 15 * time.Second}

func paymongoAuthHeader() string {
	key := os.Getenv("PAYMONGO_SECRET_KEY")
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(key+":"))
}

func PayMongoCreateCheckout(ctx context.Context, order *models.Order, items []CheckoutItem) (string, string, error) {
	appHost := os.Getenv("APP_HOST")
	lineItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, map[string]any{
			"name":     item.Name,
			"amount":   item.UnitAmount,
			"currency": strings.ToUpper(item.Currency),
			"quantity": item.Qty,
		})
	}
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"line_items":           lineItems,
				"payment_method_types": []string{"card", "gcash", "paymaya"},
				"success_url":          fmt.Sprintf("%s/checkout/callback/success", appHost),
				"cancel_url":           fmt.Sprintf("%s/checkout/callback/cancel", appHost),
				"reference_number":     order.RequestID,
				"metadata": map[string]string{
					"request_id": order.RequestID,
				},
			},
		},
	}
	bPayload, _ := json.Marshal(&body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, paymongoBaseURL+"/checkout_sessions", bytes.NewReader(bPayload))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", paymongoAuthHeader())
	res, err := paymongoHTTP.Do(req)
	if err != nil {
		return "", "", err
	}
	defer res.Body.Close()
	rbytes, err := io.ReadAll(res.Body)
	if err != nil {
		return "", "", err
	}
	if res.StatusCode >= http.StatusBadRequest {
		detail := gjson.GetBytes(rbytes, "errors.0.detail").String()
		return "", "", fmt.Errorf("paymongo checkout session failed (%d): %s", res.StatusCode, detail)
	}
	sessionID := gjson.GetBytes(rbytes, "data.id").String()
	checkoutURL := gjson.GetBytes(rbytes, "data.attributes.checkout_url").String()
	return sessionID, checkoutURL, nil
}

// PayMongoVerifySignature checks the Paymongo-Signature header: the hex
// HMAC-SHA256 of "<timestamp>.<payload>" keyed with the webhook secret,
// carried in the te (test mode) or li (live mode) component.
func PayMongoVerifySignature(payload []byte, sigHeader string) error {
	whsecret := os.Getenv("PAYMONGO_WEBHOOK_SECRET")
	var ts, te, li string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "te":
			te = kv[1]
		case "li":
			li = kv[1]
		}
	}
	if ts == "" {
		return fmt.Errorf("%w: missing timestamp component", services.ErrInvalidSignature)
	}
	mac := hmac.New(sha256.New, []byte(whsecret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if hmac.Equal([]byte(expected), []byte(te)) || hmac.Equal([]byte(expected), []byte(li)) {
		return nil
	}
	return fmt.Errorf("%w: signature mismatch", services.ErrInvalidSignature)
}

// PayMongoParseWebhook reduces a verified event payload to a canonical
// notification. Unrecognized event types map to pending.
func PayMongoParseWebhook(payload []byte) *services.Notification {
	eventType := gjson.GetBytes(payload, "data.attributes.type").String()
	log.Printf("[PayMongoEvent] %s\n", eventType)
	resource := gjson.GetBytes(payload, "data.attributes.data")
	n := services.Notification{
		Provider:  types.PROVIDER_PAYMONGO,
		TxnID:     resource.Get("id").String(),
		RequestID: resource.Get("attributes.metadata.request_id").String(),
		Amount:    resource.Get("attributes.amount").Int(),
		Status:    types.PAYMENT_PENDING,
	}
	if n.RequestID == "" {
		n.RequestID = resource.Get("attributes.reference_number").String()
	}
	switch eventType {
	case "payment.paid", "checkout_session.payment.paid":
		n.Status = types.PAYMENT_SUCCEEDED
	case "payment.failed":
		n.Status = types.PAYMENT_FAILED
	case "payment.expired", "checkout_session.expired":
		n.Status = types.PAYMENT_EXPIRED
	case "payment.cancelled":
		n.Status = types.PAYMENT_CANCELED
	}
	return &n
}

func PayMongoQueryStatus(ctx context.Context, order *models.Order) (*services.Notification, error) {
	url := fmt.Sprintf("%s/checkout_sessions/%s", paymongoBaseURL, *order.SessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", paymongoAuthHeader())
	res, err := paymongoHTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	rbytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		detail := gjson.GetBytes(rbytes, "errors.0.detail").String()
		return nil, fmt.Errorf("paymongo status query failed (%d): %s", res.StatusCode, detail)
	}
	n := services.Notification{
		Provider:  types.PROVIDER_PAYMONGO,
		RequestID: order.RequestID,
		TxnID:     *order.SessionID,
		Status:    types.PAYMENT_PENDING,
	}
	payments := gjson.GetBytes(rbytes, "data.attributes.payments")
	payments.ForEach(func(_, payment gjson.Result) bool {
		status := payment.Get("attributes.status").String()
		if status == "paid" {
			n.TxnID = payment.Get("id").String()
			n.Amount = payment.Get("attributes.amount").Int()
			n.Status = types.PAYMENT_SUCCEEDED
			return false
		}
		if status == "failed" {
			n.TxnID = payment.Get("id").String()
			n.Status = types.PAYMENT_FAILED
		}
		return true
	})
	return &n, nil
}
