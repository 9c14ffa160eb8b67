package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

func TestFreeFireLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player-info", r.URL.Path)
		assert.Equal(t, "ind", r.URL.Query().Get("region"))
		if r.URL.Query().Get("uid") != "123456789" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"basicInfo":{"nickname":"Ace","level":61,"exp":9000,"avatarId":902000061},
			"clanBasicInfo":{"clanName":"Wolves","clanLevel":4},"liked":1200}`))
	}))
	defer srv.Close()

	c := NewFreeFireClient(srv.URL+"/", srv.Client())

	info, err := c.Lookup(context.Background(), "123456789", "IND")
	require.NoError(t, err)
	assert.Equal(t, "Ace", info.Nickname)
	assert.Equal(t, 61, info.Level)
	assert.Equal(t, "902000061", info.AvatarID)
	assert.Equal(t, "Wolves", info.ClanName)
	assert.Equal(t, 1200, info.Liked)
	assert.Equal(t, "IND", info.Region)

	_, err = c.Lookup(context.Background(), "999999999", "IND")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestFreeFireLookupWithoutBasicInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	_, err := NewFreeFireClient(srv.URL, srv.Client()).Lookup(context.Background(), "123456789", "sg")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestFreeFireLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewFreeFireClient(srv.URL, NewHTTPClient(20*time.Millisecond))
	_, err := c.Lookup(context.Background(), "123456789", "ind")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFreeFireLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewFreeFireClient(srv.URL, srv.Client()).Lookup(context.Background(), "123456789", "ind")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUPILink(t *testing.T) {
	link := UPILink("pay@upi", "Tournaments", "ORD_1", decimal.NewFromInt(100), "Entry fee")
	require.True(t, strings.HasPrefix(link, "upi://pay?"))

	q, err := url.ParseQuery(strings.TrimPrefix(link, "upi://pay?"))
	require.NoError(t, err)
	assert.Equal(t, "pay@upi", q.Get("pa"))
	assert.Equal(t, "ORD_1", q.Get("tr"))
	assert.Equal(t, "100.00", q.Get("am"))
}

func TestLinkQR(t *testing.T) {
	out, err := LinkQR{BaseURL: "https://qr.example/create", Size: 200}.Generate(context.Background(), "upi://pay?tr=ORD_1")
	require.NoError(t, err)

	u, err := url.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "200x200", u.Query().Get("size"))
	assert.Equal(t, "upi://pay?tr=ORD_1", u.Query().Get("data"))

	_, err = LinkQR{BaseURL: "https://qr.example"}.Generate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMonkeyQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req monkeyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "imageUrl", req.Download)
		assert.Equal(t, "upi://pay?tr=ORD_1", req.Data)
		_, _ = w.Write([]byte(`{"imageUrl":"//cdn.example/qr.png"}`))
	}))
	defer srv.Close()

	out, err := MonkeyQR{BaseURL: srv.URL, Size: 500, Client: srv.Client()}.Generate(context.Background(), "upi://pay?tr=ORD_1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/qr.png", out)
}

func TestMonkeyQRFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := MonkeyQR{BaseURL: srv.URL, Client: srv.Client()}.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/ORD_1/status":
			_, _ = w.Write([]byte(`{"status":"SUCCESS","transaction_id":"TXN_9"}`))
		case "/orders/ORD_2/status":
			_, _ = w.Write([]byte(`{"status":"refunded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, srv.Client())

	st, err := o.Check(context.Background(), "ORD_1")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatus{Status: "success", TransactionID: "TXN_9"}, st)

	_, err = o.Check(context.Background(), "ORD_2")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = o.Check(context.Background(), "ORD_3")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle("bogus")
	st, _ := o.Check(context.Background(), "ORD_1")
	assert.Equal(t, "pending", st.Status)
	assert.Empty(t, st.TransactionID)

	o.Set("ORD_1", "success")
	st, _ = o.Check(context.Background(), "ORD_1")
	assert.Equal(t, "success", st.Status)
	assert.Equal(t, "TXN_ORD_1", st.TransactionID)
	assert.Equal(t, 2, o.Calls("ORD_1"))
}

func TestStaticLookup(t *testing.T) {
	l := StaticLookup{Players: map[string]model.PlayerInfo{"123456789": {Nickname: "Ace", Level: 50}}}

	info, err := l.Lookup(context.Background(), "123456789", "sg")
	require.NoError(t, err)
	assert.Equal(t, "Ace", info.Nickname)
	assert.Equal(t, "SG", info.Region)
	assert.Equal(t, "123456789", info.UID)

	_, err = l.Lookup(context.Background(), "987654321", "sg")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
