package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// UPILink builds the upi://pay URI a payment app scans. The order id is
// the transaction reference so the oracle can match the transfer.
func UPILink(payeeVPA, payeeName, orderID string, amount decimal.Decimal, note string) string {
	q := url.Values{}
	q.Set("pa", payeeVPA)
	q.Set("pn", payeeName)
	q.Set("tr", orderID)
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	q.Set("tn", note)
	return "upi://pay?" + q.Encode()
}

// LinkQR renders QR codes through a GET image endpoint: the returned URL
// is the image itself, so no network call happens here.
type LinkQR struct {
	BaseURL string
	Size    int
}

func (g LinkQR) Generate(_ context.Context, payload string) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("%w: empty qr payload", ErrUnavailable)
	}
	size := g.Size
	if size <= 0 {
		size = 300
	}
	q := url.Values{}
	q.Set("size", strconv.Itoa(size)+"x"+strconv.Itoa(size))
	q.Set("data", payload)
	sep := "?"
	if strings.Contains(g.BaseURL, "?") {
		sep = "&"
	}
	return g.BaseURL + sep + q.Encode(), nil
}

// MonkeyQR posts to a qrcode-monkey compatible API and returns the hosted
// image URL it answers with.
type MonkeyQR struct {
	BaseURL string
	Size    int
	Client  *http.Client
}

type monkeyRequest struct {
	Data     string            `json:"data"`
	Config   map[string]string `json:"config"`
	Size     int               `json:"size"`
	Download string            `json:"download"`
	File     string            `json:"file"`
}

func (g MonkeyQR) Generate(ctx context.Context, payload string) (string, error) {
	body, err := json.Marshal(monkeyRequest{
		Data: payload,
		Config: map[string]string{
			"body":      "circular",
			"bodyColor": "#808080",
			"bgColor":   "#FFFFFF",
		},
		Size:     g.Size,
		Download: "imageUrl",
		File:     "png",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", classify("qr generate", err)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp)
	if err != nil {
		return "", classify("qr generate", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: qr generate returned %d", ErrUnavailable, resp.StatusCode)
	}
	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.ImageURL == "" {
		return "", fmt.Errorf("%w: qr generate: unexpected response", ErrUnavailable)
	}
	// the API answers with a protocol-relative URL
	if strings.HasPrefix(out.ImageURL, "//") {
		out.ImageURL = "https:" + out.ImageURL
	}
	return out.ImageURL, nil
}
