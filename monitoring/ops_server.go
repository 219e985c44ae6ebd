package monitoring

import (
	"log"
	"ticket-ledger/utils"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// StartOpsServer serves the metrics and health endpoints on a separate
// listener so the public API port never exposes them.
func StartOpsServer(port string, redisClient *redis.Client) *echo.Echo {
	e := echo.New()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	go func() {
		if err := e.Start(":" + port); err != nil {
			log.Printf("Ops server stopped: %v", err)
		}
	}()
	return e
}
