package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// PaymentStatus is the oracle's view of an order.
type PaymentStatus struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// HTTPOracle asks a payment provider for order status with
// GET {base}/orders/{order_id}/status.
type HTTPOracle struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPOracle(baseURL string, client *http.Client) *HTTPOracle {
	return &HTTPOracle{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (o *HTTPOracle) Check(ctx context.Context, orderID string) (PaymentStatus, error) {
	endpoint := o.BaseURL + "/orders/" + url.PathEscape(orderID) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PaymentStatus{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return PaymentStatus{}, classify("payment status", err)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp)
	if err != nil {
		return PaymentStatus{}, classify("payment status", err)
	}
	if resp.StatusCode != http.StatusOK {
		return PaymentStatus{}, fmt.Errorf("%w: payment status returned %d", ErrUnavailable, resp.StatusCode)
	}
	var out PaymentStatus
	if err := json.Unmarshal(raw, &out); err != nil {
		return PaymentStatus{}, fmt.Errorf("%w: payment status: %v", ErrUnavailable, err)
	}
	out.Status = strings.ToLower(out.Status)
	if !model.ValidPaymentStatus(out.Status) {
		return PaymentStatus{}, fmt.Errorf("%w: payment status %q", ErrUnavailable, out.Status)
	}
	return out, nil
}

// StaticOracle answers from a table filled by Set and falls back to a
// default status. It stands in for the provider in demos and tests.
type StaticOracle struct {
	mu       sync.Mutex
	fallback string
	statuses map[string]string
	calls    map[string]int
}

func NewStaticOracle(fallback string) *StaticOracle {
	if !model.ValidPaymentStatus(fallback) {
		fallback = model.PaymentPending
	}
	return &StaticOracle{fallback: fallback, statuses: map[string]string{}, calls: map[string]int{}}
}

// Set fixes the status reported for orderID.
func (o *StaticOracle) Set(orderID, status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[orderID] = status
}

// Calls reports how many times orderID was checked.
func (o *StaticOracle) Calls(orderID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[orderID]
}

func (o *StaticOracle) Check(_ context.Context, orderID string) (PaymentStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[orderID]++
	status, ok := o.statuses[orderID]
	if !ok {
		status = o.fallback
	}
	out := PaymentStatus{Status: status}
	if status != model.PaymentPending {
		out.TransactionID = "TXN_" + orderID
	}
	return out, nil
}
