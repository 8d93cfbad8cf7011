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

func orderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/orders", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var orders []models.Order
			db := db.GetDb()
			if err := db.
				Model(&models.Order{}).
				Where(&models.Order{UserID: userId}).
				Preload("Reservations").
				Order("created_at DESC").
				Limit(100).
				Find(&orders).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders, "count": len(orders)})
		}).
		GET("/orders/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			order, ok := getOwnOrder(ctx, params.ID)
			if !ok {
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order})
		}).
		PUT("/orders/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			order, ok := getOwnOrder(ctx, params.ID)
			if !ok {
				return
			}
			if err := manager.CancelOrder(order.ID); err != nil {
				if errors.Is(err, services.ErrInvalidState) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "order is no longer pending"})
					return
				}
				log.Printf("Error canceling order %d: %s\n", order.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/orders/:id/sync", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			order, ok := getOwnOrder(ctx, params.ID)
			if !ok {
				return
			}
			if order.SessionID == nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": "order has no checkout session"})
				return
			}
			notification, err := payments.QueryStatus(ctx.Request.Context(), order)
			if err != nil {
				log.Printf("Error querying payment status for order %d: %s\n", order.ID, err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
				return
			}
			if err := reconciler.Apply(ctx.Request.Context(), *notification); err != nil {
				log.Printf("Error reconciling order %d: %s\n", order.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}
			db := db.GetDb()
			if err := db.
				Model(&models.Order{}).
				Where(&models.Order{ID: order.ID}).
				Preload("Reservations").
				First(order).
				Error; err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order})
		})
	return g
}

func getOwnOrder(ctx *gin.Context, orderId uint) (*models.Order, bool) {
	userId := ctx.GetUint("id")
	var order models.Order
	db := db.GetDb()
	if err := db.
		Model(&models.Order{}).
		Where(&models.Order{ID: orderId, UserID: userId}).
		Preload("Reservations").
		First(&order).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return nil, false
		}
		log.Printf("Error retrieving Order [%d]: %s\n", orderId, err.Error())
		ctx.Status(http.StatusBadRequest)
		return nil, false
	}
	return &order, true
}
