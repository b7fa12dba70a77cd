package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockProvider is the dev/test gateway: charges are accepted immediately and
// finalized by a webhook (see cmd/tools/mockwebhook). Signature format is
// the usual t=<unix>,v1=<hmac-sha256(t "." body)>.
type MockProvider struct {
	secret    []byte
	tolerance time.Duration
}

func NewMockProvider(secret string) *MockProvider {
	return &MockProvider{secret: []byte(secret), tolerance: 5 * time.Minute}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) CreateCharge(_ context.Context, req ChargeRequest) (ChargeResponse, error) {
	if req.AmountCents <= 0 {
		return ChargeResponse{}, errors.New("mock: non-positive amount")
	}
	return ChargeResponse{
		GatewayRef: "ch_" + uuid.NewString()[:8],
		Status:     "accepted",
	}, nil
}

func (m *MockProvider) RefundCharge(_ context.Context, req RefundChargeRequest) (RefundChargeResponse, error) {
	if req.GatewayRef == "" {
		return RefundChargeResponse{}, errors.New("mock: missing charge ref")
	}
	return RefundChargeResponse{
		RefundID: "re_" + uuid.NewString()[:8],
		Status:   "accepted",
	}, nil
}

type mockWebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		TransactionID  string `json:"transaction_id"`
		RefundID       string `json:"refund_id"`
		AmountCents    int    `json:"amount_cents"`
		FailureCode    string `json:"failure_code"`
		FailureMessage string `json:"failure_message"`
		CardBrand      string `json:"card_brand"`
		CardLast4      string `json:"card_last4"`
		BankName       string `json:"bank_name"`
		VirtualAccount string `json:"virtual_account"`
	} `json:"data"`
}

func (m *MockProvider) VerifyAndParseWebhook(headers http.Header, body []byte) (GatewayEvent, error) {
	if err := m.verifySignature(headers.Get("X-Mock-Signature"), body); err != nil {
		return GatewayEvent{}, err
	}

	var pl mockWebhookPayload
	if err := json.Unmarshal(body, &pl); err != nil {
		return GatewayEvent{}, err
	}
	if pl.ID == "" || pl.Type == "" {
		return GatewayEvent{}, errors.New("mock: missing event id or type")
	}

	return GatewayEvent{
		EventType:      pl.Type,
		IdempotencyKey: pl.ID,
		TransactionID:  pl.Data.TransactionID,
		RefundID:       pl.Data.RefundID,
		AmountCents:    pl.Data.AmountCents,
		FailureCode:    pl.Data.FailureCode,
		FailureMessage: pl.Data.FailureMessage,
		CardBrand:      pl.Data.CardBrand,
		CardLast4:      pl.Data.CardLast4,
		BankName:       pl.Data.BankName,
		VirtualAccount: pl.Data.VirtualAccount,
	}, nil
}

func (m *MockProvider) verifySignature(header string, body []byte) error {
	if header == "" {
		return errors.New("mock: missing signature header")
	}

	var ts int64
	var sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, _ = strconv.ParseInt(v, 10, 64)
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return errors.New("mock: malformed signature header")
	}
	if d := time.Since(time.Unix(ts, 0)); d > m.tolerance || d < -m.tolerance {
		return errors.New("mock: signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(sig)) {
		return errors.New("mock: signature mismatch")
	}
	return nil
}
