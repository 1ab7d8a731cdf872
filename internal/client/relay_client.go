package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	relaydto "github.com/meridianpay/relay-payment-service/internal/delivery/http/dto/relay"
	"github.com/meridianpay/relay-payment-service/internal/domain"
)

// RelayClient talks to the relay execution endpoint over HTTP and
// implements domain.RelaySubmitter. Provider statuses are mapped into
// the canonical enum and provider errors are classified so callers can
// pick a retry policy.
type RelayClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewRelayClient(baseURL, apiKey string) *RelayClient {
	return &RelayClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// MapProviderStatus folds a provider status string into the canonical
// enum. Unknown values map to pending, never to a terminal state, so a
// new provider status can never fake success or failure.
func MapProviderStatus(status string) domain.RelayStatus {
	switch strings.ToLower(status) {
	case "pending", "queued", "scheduled":
		return domain.RelayStatusPending
	case "sent", "submitted", "inmempool", "broadcast":
		return domain.RelayStatusSent
	case "mined":
		return domain.RelayStatusMined
	case "confirmed", "finalized":
		return domain.RelayStatusConfirmed
	case "failed", "reverted", "canceled", "dropped":
		return domain.RelayStatusFailed
	default:
		return domain.RelayStatusPending
	}
}

func classifyError(statusCode int, message string) error {
	lower := strings.ToLower(message)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &domain.RelayError{Kind: domain.RelayErrAuth, Message: message}
	case statusCode == http.StatusNotFound:
		return &domain.RelayError{Kind: domain.RelayErrNotFound, Message: message}
	case strings.Contains(lower, "insufficient funds"):
		return &domain.RelayError{Kind: domain.RelayErrFunds, Message: message}
	case strings.Contains(lower, "nonce too low"),
		strings.Contains(lower, "underpriced"),
		strings.Contains(lower, "nonce conflict"):
		return &domain.RelayError{Kind: domain.RelayErrNonceConflict, Message: message}
	default:
		return &domain.RelayError{Kind: domain.RelayErrProvider, Message: message}
	}
}

func (c *RelayClient) SubmitForward(ctx context.Context, req *domain.ForwardRequest) (*domain.RelaySubmission, error) {
	payload := relaydto.GaslessRequest{
		Request: relaydto.ForwardRequestPayload{
			From:     req.From,
			To:       req.To,
			Value:    bigString(req.Value),
			Gas:      bigString(req.Gas),
			Nonce:    bigString(req.Nonce),
			Deadline: req.Deadline,
			Data:     req.Data,
		},
		Signature: req.Signature,
	}
	var resp relaydto.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/relay/gasless", payload, &resp); err != nil {
		return nil, err
	}
	return toSubmission(&resp), nil
}

func (c *RelayClient) SubmitDirect(ctx context.Context, to, data string, value *big.Int, gasLimit uint64) (*domain.RelaySubmission, error) {
	payload := relaydto.DirectRequest{
		To:       to,
		Data:     data,
		Value:    bigString(value),
		GasLimit: gasLimit,
	}
	var resp relaydto.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/relay/direct", payload, &resp); err != nil {
		return nil, err
	}
	return toSubmission(&resp), nil
}

func (c *RelayClient) Status(ctx context.Context, relayRef string) (*domain.RelaySubmission, error) {
	var resp relaydto.TransactionResponse
	if err := c.do(ctx, http.MethodGet, "/relay/status/"+relayRef, nil, &resp); err != nil {
		return nil, err
	}
	return toSubmission(&resp), nil
}

func (c *RelayClient) Cancel(ctx context.Context, relayRef string) (bool, error) {
	var resp relaydto.CancelResponse
	if err := c.do(ctx, http.MethodDelete, "/relay/"+relayRef, nil, &resp); err != nil {
		return false, err
	}
	return resp.Canceled, nil
}

func (c *RelayClient) Nonce(ctx context.Context, address string) (*big.Int, error) {
	var resp relaydto.NonceResponse
	if err := c.do(ctx, http.MethodGet, "/relay/gasless/nonce/"+address, nil, &resp); err != nil {
		return nil, err
	}
	nonce, ok := new(big.Int).SetString(resp.Nonce, 10)
	if !ok {
		return nil, fmt.Errorf("relay returned malformed nonce %q", resp.Nonce)
	}
	return nonce, nil
}

func (c *RelayClient) Health(ctx context.Context) (*relaydto.HealthResponse, error) {
	var resp relaydto.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RelayClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	response, err := c.HTTP.Do(req)
	if err != nil {
		return &domain.RelayError{Kind: domain.RelayErrProvider, Message: err.Error()}
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var errorResponse relaydto.ErrorResponse
		message := string(raw)
		if err := json.Unmarshal(raw, &errorResponse); err == nil && errorResponse.Error != "" {
			message = errorResponse.Error
		}
		return classifyError(response.StatusCode, message)
	}

	return json.Unmarshal(raw, out)
}

func toSubmission(resp *relaydto.TransactionResponse) *domain.RelaySubmission {
	hash := ""
	if resp.Hash != nil {
		hash = *resp.Hash
	}
	return &domain.RelaySubmission{
		TransactionID: resp.TransactionID,
		Hash:          hash,
		Status:        MapProviderStatus(resp.Status),
		CreatedAt:     resp.CreatedAt,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
