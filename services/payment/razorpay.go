package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

// Order is the payment-session handle returned by the gateway. The client
// opens the Razorpay checkout widget with OrderID and KeyID.
type Order struct {
	OrderID  string `json:"order_id"`
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"` // minor units (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway wraps the Razorpay SDK for order creation and checkout-signature
// verification.
type Gateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

// NewGateway creates a Razorpay gateway client
func NewGateway(keyID, keySecret string) *Gateway {
	return &Gateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

// CreateOrder creates a Razorpay order for the given amount in minor units.
func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}

	return &Order{
		OrderID:  orderID,
		KeyID:    g.keyID,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// VerifySignature checks the checkout callback signature. Razorpay signs
// "<order_id>|<payment_id>" with the key secret using HMAC-SHA256.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, g.keySecret)
}

// VerifySignature verifies a Razorpay checkout signature against a key secret.
func VerifySignature(orderID, paymentID, signature, keySecret string) bool {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Receipt builds the order receipt token: user, course and a millisecond
// timestamp, so two checkout attempts never share a receipt.
func Receipt(userID, courseID uint) string {
	return fmt.Sprintf("receipt_%d_%d_%d", userID, courseID, time.Now().UnixMilli())
}
