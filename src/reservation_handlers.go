package main

import (
	"errors"
	"log"
	"net/http"

	"tixmart/src/db"
	"tixmart/src/models"
	"tixmart/src/payments"
	"tixmart/src/services"
	"tixmart/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			order, reservations, err := manager.Create(userId, body.Provider, body.Items)
			if err != nil {
				if errors.Is(err, services.ErrInsufficientInventory) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "not enough tickets available"})
					return
				}
				log.Printf("Error creating reservation: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}

			items := make([]payments.CheckoutItem, 0, len(reservations))
			db := db.GetDb()
			for _, reservation := range reservations {
				var tt models.TicketType
				if err := db.
					Where(&models.TicketType{ID: reservation.TicketTypeID}).
					First(&tt).
					Error; err != nil {
					log.Printf("Error retrieving ticket type %d: %s\n", reservation.TicketTypeID, err.Error())
					continue
				}
				items = append(items, payments.CheckoutItem{
					Name:       tt.EventName + " - " + tt.Tier,
					Currency:   tt.Currency,
					UnitAmount: tt.Price,
					Qty:        int64(reservation.Qty),
				})
			}
			sessionId, checkoutUrl, err := payments.CreateCheckout(ctx.Request.Context(), order, items)
			if err != nil {
				log.Printf("Error creating checkout for order %d: %s\n", order.ID, err.Error())
				if cerr := manager.CancelOrder(order.ID); cerr != nil {
					log.Printf("Error canceling order %d after checkout failure: %s\n", order.ID, cerr.Error())
				}
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not start checkout, please retry"})
				return
			}
			if err := db.
				Model(&models.Order{}).
				Where("id = ?", order.ID).
				Updates(&models.Order{SessionID: &sessionId, CheckoutURL: &checkoutUrl}).
				Error; err != nil {
				log.Printf("Error saving checkout session for order %d: %s\n", order.ID, err.Error())
			}

			reservationIds := make([]uint, 0, len(reservations))
			for _, reservation := range reservations {
				reservationIds = append(reservationIds, reservation.ID)
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{
				"order_id":        order.ID,
				"request_id":      order.RequestID,
				"reservation_ids": reservationIds,
				"expires_at":      reservations[0].ExpiresAt,
				"checkout_url":    checkoutUrl,
			}})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var reservations []models.Reservation
			db := db.GetDb()
			if err := db.
				Model(&models.Reservation{}).
				Where(&models.Reservation{UserID: userId}).
				Preload("TicketType").
				Order("created_at DESC").
				Limit(100).
				Find(&reservations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations, "count": len(reservations)})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Model(&models.Reservation{}).
				Where(&models.Reservation{ID: params.ID, UserID: userId}).
				Preload("TicketType").
				Preload("Order").
				First(&reservation).
				Error; err != nil {
				err := errors.New("reservation not found")
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		DELETE("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			if err := db.
				Model(&models.Reservation{}).
				Where(&models.Reservation{ID: params.ID, UserID: userId}).
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := manager.Cancel(reservation.ID); err != nil {
				if errors.Is(err, services.ErrInvalidState) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "reservation is no longer pending"})
					return
				}
				log.Printf("Error canceling reservation %d: %s\n", reservation.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
