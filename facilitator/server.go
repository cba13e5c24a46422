package facilitator

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter builds the facilitator's HTTP surface:
//
//	GET  /health  liveness probe
//	POST /verify  read-only allowance check
//	POST /settle  executor-signed settlement
//	GET  /metrics prometheus counters
func NewRouter(service *Service, log *zap.Logger, metrics *Metrics) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/verify", func(c *gin.Context) {
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if metrics != nil {
				metrics.VerifyTotal.WithLabelValues("malformed").Inc()
			}
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "invalid request body"})
			return
		}

		res := service.Verify(c.Request.Context(), req)
		switch {
		case res.Valid:
			if metrics != nil {
				metrics.VerifyTotal.WithLabelValues("valid").Inc()
			}
			c.JSON(http.StatusOK, res)
		case res.NotFound:
			if metrics != nil {
				metrics.VerifyTotal.WithLabelValues("not_found").Inc()
			}
			c.JSON(http.StatusNotFound, res)
		default:
			if metrics != nil {
				metrics.VerifyTotal.WithLabelValues("invalid").Inc()
			}
			c.JSON(http.StatusBadRequest, res)
		}
	})

	router.POST("/settle", func(c *gin.Context) {
		var req SettleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if metrics != nil {
				metrics.SettleTotal.WithLabelValues("malformed").Inc()
			}
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}

		res := service.Settle(c.Request.Context(), req)
		if res.Success {
			if metrics != nil {
				metrics.SettleTotal.WithLabelValues("success").Inc()
			}
			c.JSON(http.StatusOK, res)
			return
		}
		if metrics != nil {
			metrics.SettleTotal.WithLabelValues(settleOutcome(res.Reason)).Inc()
		}
		c.JSON(settleStatusCode(res.Reason), res)
	})

	return router
}

// Client-caused failures are 400s; transport and program faults are 500s.
func settleStatusCode(reason string) int {
	switch reason {
	case "invalid_api_key", "invalid_amount", "invalid_pay_to",
		"per_tx_limit_exceeded", "insufficient_allowance",
		"spending_limit_not_found", "destination_ata_missing":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func settleOutcome(reason string) string {
	if settleStatusCode(reason) == http.StatusBadRequest {
		return "rejected"
	}
	return "failed"
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
