package middlewares

import (
	"crypto/subtle"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware gates scheduler-trigger endpoints behind a shared
// bearer secret. When CRON_SECRET is unset the endpoints stay closed.
func CronAuthMiddleware(ctx *gin.Context) {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" {
		ctx.AbortWithStatus(401)
		return
	}
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.TrimPrefix(bearerToken, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(reqToken), []byte(secret)) != 1 {
		ctx.AbortWithStatus(401)
		return
	}
}
