package main

import (
	"log"
	"net/http"

	"tixmart/src/middlewares"

	"github.com/gin-gonic/gin"
)

func cronRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	cron := apiv1.Group("/cron")
	cron.Use(middlewares.CronAuthMiddleware)
	handler := func(ctx *gin.Context) {
		summary := sweeper.Sweep()
		log.Printf("[cron] cleanup-reservations: expired=%d failed=%d\n", summary.Expired, summary.Failed)
		ctx.JSON(http.StatusOK, gin.H{"data": summary})
	}
	cron.GET("/cleanup-reservations", handler)
	cron.POST("/cleanup-reservations", handler)
	return apiv1
}
