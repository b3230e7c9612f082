package errx

import (
	"github.com/gin-gonic/gin"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
)

// Respond writes err as {"error": msg}. Server-side failures are logged with
// the request id and hidden behind the generic message.
func Respond(c *gin.Context, err error) {
	status, msg := Status(err)
	if status >= 500 {
		logx.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
