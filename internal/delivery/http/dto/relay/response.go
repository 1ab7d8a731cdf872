package relay

import "time"

type TransactionResponse struct {
	TransactionID string    `json:"transactionId"`
	Hash          *string   `json:"hash"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type NonceResponse struct {
	Nonce string `json:"nonce"`
}

type HealthResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type CancelResponse struct {
	Canceled bool `json:"canceled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
