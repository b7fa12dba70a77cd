package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
)

type WebhookHandler struct {
	Logger   *slog.Logger
	Provider payments.Provider
	Ingestor *lifecycle.Ingestor
}

func NewWebhookHandler(logger *slog.Logger, p payments.Provider, ing *lifecycle.Ingestor) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Provider: p, Ingestor: ing}
}

// POST /webhooks/:provider
// Body is raw JSON; signature header validated by the provider adapter.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := h.Provider.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	if err := h.Ingestor.Ingest(c.Request.Context(), h.Provider.Name(), ev, body); err != nil {
		// 500 so the provider retries; the idempotency ledger makes the
		// redelivery safe
		h.Logger.Error("webhook apply failed", "idempotency_key", ev.IdempotencyKey, "type", ev.EventType, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
