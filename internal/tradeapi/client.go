package tradeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ismaiel54/trade-ticket/internal/order"
	"github.com/ismaiel54/trade-ticket/internal/wallet"
	"go.uber.org/zap"
)

const (
	pathBuy      = "/trade/buy"
	pathSell     = "/trade/sell"
	pathConvert  = "/trade/convert"
	pathBalances = "/wallet/balances"

	codeSuccess = "SUCCESS"
)

// Client talks to the trade service over HTTP. All responses share the
// {code, data, message} envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a trade API client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// envelope is the wire-level response wrapper.
type envelope struct {
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// tradeBody is the request body for buy/sell orders.
type tradeBody struct {
	Symbol    string `json:"symbol"`
	Qty       string `json:"qty"`
	RequestID string `json:"request_id"`
}

// convertBody is the request body for conversions.
type convertBody struct {
	FromAsset string `json:"fromAsset"`
	ToAsset   string `json:"toAsset"`
	Amount    string `json:"amount"`
	RequestID string `json:"request_id"`
}

// SubmitOrder posts the order to the matching endpoint for its side.
// request_id is the wire-level idempotency key: resubmitting the same id
// must return the original receipt, never execute a second trade.
func (c *Client) SubmitOrder(ctx context.Context, o order.OrderRequest) (order.TradeReceipt, error) {
	var path string
	var body any
	switch o.Side {
	case order.SideBuy:
		path = pathBuy
		body = tradeBody{Symbol: o.Symbol, Qty: o.Quantity.String(), RequestID: o.RequestID}
	case order.SideSell:
		path = pathSell
		body = tradeBody{Symbol: o.Symbol, Qty: o.Quantity.String(), RequestID: o.RequestID}
	case order.SideConvert:
		path = pathConvert
		body = convertBody{FromAsset: o.FromAsset, ToAsset: o.ToAsset, Amount: o.Quantity.String(), RequestID: o.RequestID}
	default:
		return order.TradeReceipt{}, fmt.Errorf("unknown order side: %q", o.Side)
	}

	env, err := c.postJSON(ctx, path, body)
	if err != nil {
		return order.TradeReceipt{}, err
	}

	if env.Code != codeSuccess {
		c.logger.Info("order rejected by trade service",
			zap.String("request_id", o.RequestID),
			zap.String("code", env.Code),
			zap.String("message", env.Message),
		)
		return order.TradeReceipt{}, &SubmissionError{
			Kind:    KindRejected,
			Code:    env.Code,
			Message: env.Message,
		}
	}

	var receipt order.TradeReceipt
	if len(env.Data) == 0 {
		return order.TradeReceipt{}, &SubmissionError{Kind: KindMalformed}
	}
	if err := json.Unmarshal(env.Data, &receipt); err != nil {
		return order.TradeReceipt{}, &SubmissionError{Kind: KindMalformed, cause: err}
	}
	if receipt.JournalID == "" {
		return order.TradeReceipt{}, &SubmissionError{Kind: KindMalformed}
	}
	// The receipt must echo our idempotency key; anything else is a
	// response for a different request.
	if receipt.RequestID != "" && receipt.RequestID != o.RequestID {
		return order.TradeReceipt{}, &SubmissionError{Kind: KindMalformed}
	}

	return receipt, nil
}

// balancesPayload is the data field of the balances response.
type balancesPayload struct {
	Balances []wallet.Balance `json:"balances"`
}

// FetchBalances reads the current wallet balances. Read-only; called after
// a successful trade and never required for the trade's correctness.
func (c *Client) FetchBalances(ctx context.Context) (wallet.BalanceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathBalances, nil)
	if err != nil {
		return wallet.BalanceSnapshot{}, fmt.Errorf("failed to build balances request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wallet.BalanceSnapshot{}, fmt.Errorf("failed to fetch balances: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return wallet.BalanceSnapshot{}, fmt.Errorf("failed to read balances response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return wallet.BalanceSnapshot{}, fmt.Errorf("failed to decode balances response: %w", err)
	}
	if env.Code != codeSuccess {
		return wallet.BalanceSnapshot{}, fmt.Errorf("balances request failed: %s", env.Code)
	}

	var payload balancesPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return wallet.BalanceSnapshot{}, fmt.Errorf("failed to decode balances payload: %w", err)
	}

	return wallet.BalanceSnapshot{
		Balances:  payload.Balances,
		FetchedAt: time.Now(),
	}, nil
}

// postJSON sends a JSON body and decodes the envelope. A missing response
// is a transport failure; a decodable envelope on a non-2xx status is
// still a service rejection.
func (c *Client) postJSON(ctx context.Context, path string, body any) (envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return envelope{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, &SubmissionError{Kind: KindTransport, cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, &SubmissionError{Kind: KindTransport, cause: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return envelope{}, &SubmissionError{
				Kind:    KindRejected,
				Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message: http.StatusText(resp.StatusCode),
			}
		}
		return envelope{}, &SubmissionError{Kind: KindMalformed, cause: err}
	}

	return env, nil
}
