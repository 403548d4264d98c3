package tradeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ismaiel54/trade-ticket/internal/order"
)

func buyOrder(t *testing.T, requestID string) order.OrderRequest {
	t.Helper()
	qty, err := decimal.NewFromString("1.0")
	require.NoError(t, err)
	return order.OrderRequest{
		Side:      order.SideBuy,
		Symbol:    "XAU-s",
		Quantity:  qty,
		RequestID: requestID,
	}
}

func TestSubmitOrder_Success(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		// Price as a JSON number, fee as a string: both shapes occur on
		// the wire and both must decode.
		w.Write([]byte(`{"code":"SUCCESS","data":{
			"journalId":"j1","requestId":"r1","side":"BUY","symbol":"XAU-s",
			"qty":"1.0","price":2650.5,"fee":"13.25","priceSource":"spot"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	receipt, err := client.SubmitOrder(context.Background(), buyOrder(t, "r1"))
	require.NoError(t, err)

	assert.Equal(t, "/trade/buy", gotPath)
	assert.Equal(t, "XAU-s", gotBody["symbol"])
	assert.Equal(t, "1.0", gotBody["qty"], "quantity travels as a decimal string")
	assert.Equal(t, "r1", gotBody["request_id"])

	assert.Equal(t, "j1", receipt.JournalID)
	assert.Equal(t, "r1", receipt.RequestID)
	assert.Equal(t, "2650.5", receipt.Price.String())
	assert.Equal(t, "13.25", receipt.Fee.String())
	assert.Equal(t, "spot", receipt.PriceSource)
}

func TestSubmitOrder_ConvertRoute(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"code":"SUCCESS","data":{
			"journalId":"j2","requestId":"r2","side":"CONVERT","symbol":"BTC",
			"qty":"0.5","price":"64000","fee":"1.2"}}`))
	}))
	defer server.Close()

	qty, _ := decimal.NewFromString("0.5")
	o := order.OrderRequest{
		Side:      order.SideConvert,
		FromAsset: "BTC",
		ToAsset:   "USDT",
		Quantity:  qty,
		RequestID: "r2",
	}

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.SubmitOrder(context.Background(), o)
	require.NoError(t, err)

	assert.Equal(t, "/trade/convert", gotPath)
	assert.Equal(t, "BTC", gotBody["fromAsset"])
	assert.Equal(t, "USDT", gotBody["toAsset"])
	assert.Equal(t, "0.5", gotBody["amount"])
	assert.Equal(t, "r2", gotBody["request_id"])
}

func TestSubmitOrder_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"INSUFFICIENT_BALANCE","message":"Insufficient balance"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.SubmitOrder(context.Background(), buyOrder(t, "r1"))
	require.Error(t, err)

	se, ok := AsSubmissionError(err)
	require.True(t, ok)
	assert.Equal(t, KindRejected, se.Kind)
	assert.Equal(t, "INSUFFICIENT_BALANCE", se.Code)
	assert.Equal(t, "Insufficient balance", se.Error())
	assert.False(t, se.Ambiguous())
}

func TestSubmitOrder_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	client := NewClient(server.URL, 1*time.Second, zap.NewNop())
	_, err := client.SubmitOrder(context.Background(), buyOrder(t, "r1"))
	require.Error(t, err)

	se, ok := AsSubmissionError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, se.Kind)
	assert.True(t, se.Ambiguous(), "no response means the outcome is unknown")
}

func TestSubmitOrder_MalformedResponse(t *testing.T) {
	cases := map[string]string{
		"missing data":       `{"code":"SUCCESS"}`,
		"invalid data":       `{"code":"SUCCESS","data":{"qty":{}}}`,
		"empty receipt":      `{"code":"SUCCESS","data":{}}`,
		"foreign request id": `{"code":"SUCCESS","data":{"journalId":"j9","requestId":"other"}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, zap.NewNop())
			_, err := client.SubmitOrder(context.Background(), buyOrder(t, "r1"))
			require.Error(t, err)

			se, ok := AsSubmissionError(err)
			require.True(t, ok)
			assert.Equal(t, KindMalformed, se.Kind)
		})
	}
}

func TestSubmitOrder_NonEnvelopeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.SubmitOrder(context.Background(), buyOrder(t, "r1"))
	require.Error(t, err)

	se, ok := AsSubmissionError(err)
	require.True(t, ok)
	assert.Equal(t, KindRejected, se.Kind)
	assert.Equal(t, "HTTP_502", se.Code)
}

func TestFetchBalances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wallet/balances", r.URL.Path)
		w.Write([]byte(`{"code":"SUCCESS","data":{"balances":[
			{"asset":"XAU-s","available":"2.5","locked":"0"},
			{"asset":"USDT","available":"1200.00","locked":"50"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	snap, err := client.FetchBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Balances, 2)

	bal, ok := snap.Lookup("XAU-s")
	require.True(t, ok)
	assert.Equal(t, "2.5", bal.Available.String())
	assert.False(t, snap.FetchedAt.IsZero())
}
