package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sbag9697/marketgrow-sub001/internal/http/handlers"
	"github.com/sbag9697/marketgrow-sub001/internal/http/middleware"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
)

type Deps struct {
	Logger      *slog.Logger
	DB          *gorm.DB
	Coordinator *lifecycle.Coordinator
	Ingestor    *lifecycle.Ingestor
	Provider    payments.Provider
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))

	orderH := handlers.NewOrderHandler(d.Coordinator, orders.NewRepo(d.DB))
	paymentH := handlers.NewPaymentHandler(d.Coordinator)
	webhookH := handlers.NewWebhookHandler(d.Logger, d.Provider, d.Ingestor)

	api := r.Group("/api")
	{
		api.POST("/orders", orderH.Create)
		api.GET("/orders", orderH.List)
		api.GET("/orders/:number", orderH.Get)
		api.POST("/orders/:number/payment", paymentH.Create)
		api.POST("/orders/:number/progress", orderH.UpdateProgress)
		api.POST("/orders/:number/status", orderH.UpdateStatus)
		api.POST("/orders/:number/refund-request", paymentH.RequestRefund)
		api.DELETE("/orders/:number/refund-request", paymentH.WithdrawRefund)
		api.POST("/orders/:number/refund-process", paymentH.ProcessRefund)
	}

	r.POST("/webhooks/:provider", webhookH.Handle)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}
