package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TransactionInfo описывает статус транзакции в сети Solana.
type TransactionInfo struct {
	Signature          string
	Slot               uint64
	Confirmations      *uint64
	ConfirmationStatus string // processed | confirmed | finalized
	Err                interface{}
}

// Confirmed возвращает true, если транзакция подтверждена сетью и не завершилась ошибкой.
func (t *TransactionInfo) Confirmed() bool {
	if t == nil || t.Err != nil {
		return false
	}
	return t.ConfirmationStatus == "confirmed" || t.ConfirmationStatus == "finalized"
}

// Client - JSON-RPC клиент Solana. Используется только для
// проверки подписей транзакций (ставки, резолюция, клеймы).
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient создает новый RPC клиент.
// endpoint - адрес RPC ноды, например "https://api.mainnet-beta.solana.com".
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	ConfirmationStatus string      `json:"confirmationStatus"`
	Err                interface{} `json:"err"`
}

type signatureStatusesResponse struct {
	Result struct {
		Value []*signatureStatus `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// GetTransaction запрашивает статус транзакции по подписи через getSignatureStatuses.
// Возвращает nil без ошибки, если сеть еще не видела подпись.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TransactionInfo, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getSignatureStatuses",
		Params: []interface{}{
			[]string{signature},
			map[string]bool{"searchTransactionHistory": true},
		},
	}

	var resp signatureStatusesResponse
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("solana: get signature status %s: %w", signature, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("solana: rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result.Value) == 0 || resp.Result.Value[0] == nil {
		return nil, nil
	}

	st := resp.Result.Value[0]
	return &TransactionInfo{
		Signature:          signature,
		Slot:               st.Slot,
		Confirmations:      st.Confirmations,
		ConfirmationStatus: st.ConfirmationStatus,
		Err:                st.Err,
	}, nil
}

func (c *Client) call(ctx context.Context, req rpcRequest, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
