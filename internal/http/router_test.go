package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sbag9697/marketgrow-sub001/internal/modules/catalog"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/notify"
)

const testSecret = "whsec_test"

type testApp struct {
	router    *gin.Engine
	db        *gorm.DB
	serviceID string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&catalog.Service{},
		&orders.Order{}, &orders.OrderEvent{},
		&payments.Payment{}, &payments.TimelineEntry{},
		&payments.WebhookEvent{}, &payments.RefundReceipt{},
	))

	svc := catalog.Service{
		ID:             uuid.NewString(),
		Name:           "Instagram Followers",
		Category:       "followers",
		MinQuantity:    100,
		MaxQuantity:    10000,
		UnitPriceCents: 9,
		Active:         true,
	}
	require.NoError(t, db.Create(&svc).Error)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := payments.NewMockProvider(testSecret)
	co := lifecycle.NewCoordinator(db, catalog.NewRepo(db), provider, &notify.LogDispatcher{Logger: log})
	co.SetLogger(log)

	r := NewRouter(Deps{
		Logger:      log,
		DB:          db,
		Coordinator: co,
		Ingestor:    lifecycle.NewIngestor(co),
		Provider:    provider,
	})
	return &testApp{router: r, db: db, serviceID: svc.ID}
}

func (a *testApp) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) createOrder(t *testing.T) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/orders", gin.H{
		"service_id":     a.serviceID,
		"quantity":       1000,
		"target_url":     "https://example.com/profile",
		"customer_email": "buyer@example.com",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Order struct {
			OrderNumber string `json:"order_number"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Order.OrderNumber)
	return out.Order.OrderNumber
}

func signedHeader(body []byte) http.Header {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)

	h := http.Header{}
	h.Set("X-Mock-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return h
}

func TestCreateAndFetchOrder(t *testing.T) {
	app := newTestApp(t)
	number := app.createOrder(t)

	w := app.do(t, http.MethodGet, "/api/orders/"+number, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Order struct {
			OrderNumber string `json:"order_number"`
			Status      string `json:"status"`
			FinalCents  int    `json:"final_cents"`
			Progress    struct {
				Target int `json:"target"`
			} `json:"progress"`
		} `json:"order"`
		History []struct {
			Status string `json:"status"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, number, out.Order.OrderNumber)
	assert.Equal(t, "pending", out.Order.Status)
	assert.Equal(t, 9000, out.Order.FinalCents)
	assert.Equal(t, 1000, out.Order.Progress.Target)
	require.Len(t, out.History, 1)
	assert.Equal(t, "pending", out.History[0].Status)
}

func TestGetUnknownOrder(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/api/orders/MG-20250830-FFFFFF", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrderValidationError(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/api/orders", gin.H{
		"service_id": app.serviceID,
		"quantity":   1000,
		"target_url": "not-a-url",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var out struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Error)
	assert.Contains(t, out.Fields, "target_url")
	assert.Contains(t, out.Fields, "customer_email")
}

func TestPaymentWebhookFlow(t *testing.T) {
	app := newTestApp(t)
	number := app.createOrder(t)

	w := app.do(t, http.MethodPost, "/api/orders/"+number+"/payment", gin.H{
		"amount_cents": 9000,
		"method":       "card",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var payOut struct {
		Payment struct {
			PaymentID string `json:"payment_id"`
			Status    string `json:"status"`
		} `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payOut))
	assert.Equal(t, "processing", payOut.Payment.Status)

	var pay payments.Payment
	require.NoError(t, app.db.First(&pay, "payment_id = ?", payOut.Payment.PaymentID).Error)
	require.NotNil(t, pay.GatewayRef)

	body, err := json.Marshal(gin.H{
		"id":   "evt_http_1",
		"type": "PAYMENT_COMPLETED",
		"data": gin.H{
			"transaction_id": *pay.GatewayRef,
			"amount_cents":   9000,
			"card_brand":     "visa",
			"card_last4":     "4242",
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mock", bytes.NewReader(body))
	req.Header = signedHeader(body)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// replay of the same delivery is also a 200
	req = httptest.NewRequest(http.MethodPost, "/webhooks/mock", bytes.NewReader(body))
	req.Header = signedHeader(body)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w = app.do(t, http.MethodGet, "/api/orders/"+number, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Order struct {
			Status        string `json:"status"`
			PaymentStatus string `json:"payment_status"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "confirmed", out.Order.Status)
	assert.Equal(t, "paid", out.Order.PaymentStatus)
}

func TestWebhookBadSignature(t *testing.T) {
	app := newTestApp(t)

	body := []byte(`{"id":"evt_bad","type":"PAYMENT_COMPLETED","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mock", bytes.NewReader(body))
	req.Header.Set("X-Mock-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDirectRefundedStatusRejected(t *testing.T) {
	app := newTestApp(t)
	number := app.createOrder(t)

	w := app.do(t, http.MethodPost, "/api/orders/"+number+"/status", gin.H{
		"status": "refunded",
		"actor":  "admin",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefundRequestOnUnpaidOrderConflicts(t *testing.T) {
	app := newTestApp(t)
	number := app.createOrder(t)

	w := app.do(t, http.MethodPost, "/api/orders/"+number+"/refund-request", gin.H{
		"reason": "changed my mind",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	h := http.Header{}
	h.Set("X-Request-ID", "rid-from-client")
	w = app.do(t, http.MethodGet, "/healthz", nil, h)
	assert.Equal(t, "rid-from-client", w.Header().Get("X-Request-ID"))
}
