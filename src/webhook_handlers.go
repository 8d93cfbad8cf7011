package main

import (
	"errors"
	"io"
	"log"
	"net/http"

	"tixmart/src/payments"
	"tixmart/src/services"

	"github.com/gin-gonic/gin"
)

// Webhook routes stay outside the authenticated group. Authenticity comes
// from the provider signature, never from a bearer token.
func webhookRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		POST("/webhook/stripe", func(ctx *gin.Context) {
			payload, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				log.Printf("Error reading request body: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			notification, err := payments.StripeParseWebhook(payload, ctx.GetHeader("Stripe-Signature"))
			if err != nil {
				log.Printf("Error verifying webhook signature: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			applyNotification(ctx, *notification)
		}).
		POST("/webhook/paymongo", func(ctx *gin.Context) {
			payload, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				log.Printf("Error reading request body: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			if err := payments.PayMongoVerifySignature(payload, ctx.GetHeader("Paymongo-Signature")); err != nil {
				log.Printf("Error verifying webhook signature: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			notification := payments.PayMongoParseWebhook(payload)
			applyNotification(ctx, *notification)
		})
	return apiv1
}

// Business outcomes answer 200 so the gateway stops retrying. Unknown
// orders answer 404 and infra errors 500, both of which the gateways
// re-deliver later.
func applyNotification(ctx *gin.Context, n services.Notification) {
	if err := reconciler.Apply(ctx.Request.Context(), n); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			log.Printf("[webhook] no order for request %s, asking for redelivery\n", n.RequestID)
			ctx.Status(http.StatusNotFound)
			return
		}
		log.Printf("[webhook] error applying %s notification: %s\n", n.Provider, err.Error())
		ctx.Status(http.StatusInternalServerError)
		return
	}
	ctx.Status(http.StatusOK)
}
