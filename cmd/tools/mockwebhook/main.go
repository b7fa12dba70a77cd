package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		TransactionID  string `json:"transaction_id"`
		RefundID       string `json:"refund_id,omitempty"`
		AmountCents    int64  `json:"amount_cents"`
		FailureCode    string `json:"failure_code,omitempty"`
		FailureMessage string `json:"failure_message,omitempty"`
		CardBrand      string `json:"card_brand,omitempty"`
		CardLast4      string `json:"card_last4,omitempty"`
		BankName       string `json:"bank_name,omitempty"`
		VirtualAccount string `json:"virtual_account,omitempty"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/mock", "Webhook URL")
	secret := flag.String("secret", os.Getenv("MOCK_WEBHOOK_SECRET"), "Webhook secret")
	eventID := flag.String("event-id", "evt_"+randomHex(12), "Event ID (idempotency key)")
	eventType := flag.String("type", "PAYMENT_COMPLETED", "Event type (PAYMENT_COMPLETED, PAYMENT_FAILED, PAYMENT_CANCELLED, REFUND_COMPLETED, REFUND_FAILED)")
	txnID := flag.String("txn", "txn_"+randomHex(12), "Gateway transaction ID")
	refundID := flag.String("refund-id", "", "Gateway refund ID (for refund events)")
	amount := flag.Int64("amount", 9000, "Amount in cents")
	failCode := flag.String("failure-code", "", "Failure code (for failed events)")
	failMsg := flag.String("failure-message", "", "Failure message (for failed events)")
	cardBrand := flag.String("card-brand", "", "Card brand detail")
	cardLast4 := flag.String("card-last4", "", "Card last 4 digits")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and MOCK_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}

	payload := webhookPayload{
		ID:   *eventID,
		Type: *eventType,
	}
	payload.Data.TransactionID = *txnID
	payload.Data.RefundID = *refundID
	payload.Data.AmountCents = *amount
	payload.Data.FailureCode = *failCode
	payload.Data.FailureMessage = *failMsg
	payload.Data.CardBrand = *cardBrand
	payload.Data.CardLast4 = *cardLast4

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	t := time.Now().Unix()
	sigHeader := fmt.Sprintf("t=%d,v1=%s", t, computeSig([]byte(*secret), t, body))

	fmt.Printf("X-Mock-Signature: %s\n", sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Mock-Signature", sigHeader)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func computeSig(secret []byte, t int64, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(t, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}
