// Package gateway is the narrow contract this service has with the external
// payment provider: initiate a session for an amount+reference, get a
// redirect URL back, and later receive an asynchronous succeeded/failed
// callback correlated by the same reference.
package gateway

import (
	"errors"
	"net/url"
	"os"
	"strconv"
)

type OrderSession struct {
	URL       string
	Reference string
	Amount    float64
}

// Callback outcomes
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// CreateOrderSession initiates a hosted checkout session. The provider URL
// comes from PAYMENT_GATEWAY_URL; amount and reference ride along as query
// params the provider echoes back in its callback.
func CreateOrderSession(reference string, amount float64) (OrderSession, error) {
	var s OrderSession
	if reference == "" || amount <= 0 {
		return s, ErrGatewayUnavailable
	}

	base := os.Getenv("PAYMENT_GATEWAY_URL")
	if base == "" {
		base = "http://localhost:5173/pay"
	}

	u, err := url.Parse(base)
	if err != nil {
		return s, ErrGatewayUnavailable
	}
	q := u.Query()
	q.Set("ref", reference)
	q.Set("amount", strconv.FormatFloat(amount, 'f', 2, 64))
	u.RawQuery = q.Encode()

	s.URL = u.String()
	s.Reference = reference
	s.Amount = amount
	return s, nil
}
