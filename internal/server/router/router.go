package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The
// WhatsApp webhook routes are only mounted when webhook is not nil.
func New(handler *handlers.LedgerHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/inventory", handler.ListInventory)
	r.GET("/inventory/:id", handler.GetItem)
	r.GET("/inventory/:id/ledger", handler.StockCard)
	r.POST("/inventory/:id/adjustments", handler.AdjustStock)

	r.GET("/transactions", handler.ListTransactions)
	r.GET("/summary", handler.Summary)
	r.GET("/verify", handler.Verify)

	r.POST("/sales", handler.RecordSale)
	r.POST("/purchases", handler.RecordPurchase)
	r.POST("/expenses", handler.RecordExpense)
	r.POST("/commands", handler.RunCommand)

	r.GET("/reports/export", handler.ExportReport)

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
