package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	relaydto "github.com/meridianpay/relay-payment-service/internal/delivery/http/dto/relay"
	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/forwarder"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/relayer"
)

// RelayHandler exposes the relay execution surface.
type RelayHandler struct {
	Service *relayer.Service
	Codec   *forwarder.Codec
}

func NewRelayHandler(service *relayer.Service, codec *forwarder.Codec) *RelayHandler {
	return &RelayHandler{Service: service, Codec: codec}
}

func (h *RelayHandler) Register(r *gin.Engine) {
	r.POST("/relay/direct", h.SubmitDirect)
	r.POST("/relay/gasless", h.SubmitGasless)
	r.GET("/relay/status/:txId", h.GetStatus)
	r.DELETE("/relay/:txId", h.Cancel)
	r.GET("/relay/gasless/nonce/:address", h.GetNonce)
	r.GET("/health", h.Health)
}

func (h *RelayHandler) SubmitDirect(c *gin.Context) {
	var req relaydto.DirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	value, ok := parseAmount(req.Value)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a decimal string"})
		return
	}

	rec, err := h.Service.SubmitDirect(c.Request.Context(), req.To, req.Data, value, req.GasLimit)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, toTransactionResponse(rec))
}

func (h *RelayHandler) SubmitGasless(c *gin.Context) {
	var req relaydto.GaslessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	forwardRequest, err := ToForwardRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Codec.Validate(forwardRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Service.SubmitForward(c.Request.Context(), forwardRequest)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, toTransactionResponse(rec))
}

func (h *RelayHandler) GetStatus(c *gin.Context) {
	rec, err := h.Service.GetStatus(c.Request.Context(), c.Param("txId"))
	if err != nil {
		if errors.Is(err, domain.ErrRelayRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(rec))
}

func (h *RelayHandler) Cancel(c *gin.Context) {
	id := c.Param("txId")
	if _, err := h.Service.GetStatus(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrRelayRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, relaydto.CancelResponse{Canceled: h.Service.Cancel(id)})
}

func (h *RelayHandler) GetNonce(c *gin.Context) {
	nonce, err := h.Service.Nonce(c.Request.Context(), c.Param("address"))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, relaydto.NonceResponse{Nonce: nonce.String()})
}

func (h *RelayHandler) Health(c *gin.Context) {
	address, balance, err := h.Service.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, relaydto.HealthResponse{Address: address, Balance: balance.String()})
}

func toTransactionResponse(rec relayer.TransactionRecord) relaydto.TransactionResponse {
	var hash *string
	if rec.Hash != "" {
		hash = &rec.Hash
	}
	return relaydto.TransactionResponse{
		TransactionID: rec.TransactionID,
		Hash:          hash,
		Status:        string(rec.Status),
		CreatedAt:     rec.CreatedAt,
	}
}

// ToForwardRequest converts the wire payload without re-deriving any
// field: nonce and deadline stay exactly as the signer committed them.
func ToForwardRequest(req *relaydto.GaslessRequest) (*domain.ForwardRequest, error) {
	value, ok := parseAmount(req.Request.Value)
	if !ok {
		return nil, errors.New("value must be a decimal string")
	}
	gas, ok := parseAmount(req.Request.Gas)
	if !ok {
		return nil, errors.New("gas must be a decimal string")
	}
	nonce, ok := parseAmount(req.Request.Nonce)
	if !ok {
		return nil, errors.New("nonce must be a decimal string")
	}
	return &domain.ForwardRequest{
		From:      req.Request.From,
		To:        req.Request.To,
		Value:     value,
		Gas:       gas,
		Nonce:     nonce,
		Deadline:  req.Request.Deadline,
		Data:      req.Request.Data,
		Signature: req.Signature,
	}, nil
}

func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return big.NewInt(0), true
	}
	return new(big.Int).SetString(s, 10)
}
