package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"tixmart/src/db"
	"tixmart/src/lib"
	"tixmart/src/models"
	"tixmart/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func eticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/etickets", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var etickets []models.ETicket
			db := db.GetDb()
			if err := db.
				Model(&models.ETicket{}).
				Joins("JOIN orders ON orders.id = e_tickets.order_id").
				Where("orders.user_id = ?", userId).
				Preload("TicketType").
				Order("e_tickets.created_at DESC").
				Find(&etickets).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": etickets, "count": len(etickets)})
		}).
		POST("/etickets/:id/code", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var eticket models.ETicket
			db := db.GetDb()
			if err := db.
				Model(&models.ETicket{}).
				Where(&models.ETicket{ID: params.ID}).
				Preload("Order").
				First(&eticket).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusBadRequest)
				return
			}
			if eticket.Order == nil || eticket.Order.UserID != userId {
				ctx.Status(http.StatusNotFound)
				return
			}
			if eticket.Status != types.ETICKET_ACTIVE {
				ctx.JSON(http.StatusConflict, gin.H{"error": "eticket is no longer active"})
				return
			}

			filename := fmt.Sprintf("eticketcode_%d", eticket.ID)
			log.Printf("Download eticket for %s\n", filename)
			wd, err := os.Getwd()
			if err != nil {
				log.Printf("Could not read working directory: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(wd, tempdir, fmt.Sprintf("%s.jpeg", filename))

			rd := lib.GetRedisClient()
			cached, err := rd.Get(context.Background(), filename).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("Error reading from cache: %s\n", err.Error())
			}
			if cached != "" {
				if _, err := os.Stat(cached); err == nil {
					ctx.FileAttachment(cached, "eticket.jpeg")
					return
				}
			}

			qrc, err := qrcode.New(eticket.Code)
			if err != nil {
				log.Printf("Error generating qrcode: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			rd.SetEx(context.Background(), filename, filepath, 2*time.Hour)

			if !eticket.Delivered {
				if err := db.
					Model(&models.ETicket{}).
					Where("id = ?", eticket.ID).
					Update("delivered", true).
					Error; err != nil {
					log.Printf("Error marking eticket %d delivered: %s\n", eticket.ID, err.Error())
				}
			}
			ctx.FileAttachment(filepath, "eticket.jpeg")
		})
	return g
}
