package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	relaydto "github.com/meridianpay/relay-payment-service/internal/delivery/http/dto/relay"
	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/usecase"
	paymentdto "github.com/meridianpay/relay-payment-service/internal/usecase/dto/payment"
)

// PaymentHandler exposes the payment ledger surface.
type PaymentHandler struct {
	Usecase usecase.PaymentUsecase
}

func NewPaymentHandler(uc usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{Usecase: uc}
}

func (h *PaymentHandler) Register(r *gin.Engine) {
	r.POST("/payments", h.CreatePayment)
	r.GET("/payments/:hash/status", h.GetStatus)
	r.POST("/payments/:hash/gasless", h.SubmitGasless)
	r.GET("/payments/:hash/relay", h.GetRelayStatus)
}

type createPaymentRequest struct {
	MerchantID      string `json:"merchantId" binding:"required"`
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	NetworkID       string `json:"networkId" binding:"required"`
	TTLSeconds      int64  `json:"ttlSeconds,omitempty"`
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	payment, err := h.Usecase.CreatePayment(c.Request.Context(), &paymentdto.CreatePaymentInput{
		MerchantID:      req.MerchantID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		NetworkID:       req.NetworkID,
		TTLSeconds:      req.TTLSeconds,
	})
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, paymentdto.ToPaymentOutput(payment))
}

func (h *PaymentHandler) GetStatus(c *gin.Context) {
	payment, err := h.Usecase.GetPaymentStatus(c.Request.Context(), c.Param("hash"))
	if err != nil {
		var mismatch *domain.AmountMismatchError
		if errors.As(err, &mismatch) {
			c.JSON(http.StatusConflict, gin.H{
				"error":         "AMOUNT_MISMATCH",
				"paymentHash":   mismatch.PaymentHash,
				"ledgerAmount":  mismatch.Expected.String(),
				"settledAmount": mismatch.Actual.String(),
				"txHash":        mismatch.TxHash,
				"payment":       paymentdto.ToPaymentOutput(payment),
			})
			return
		}
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, paymentdto.ToPaymentOutput(payment))
}

func (h *PaymentHandler) SubmitGasless(c *gin.Context) {
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

	submission, err := h.Usecase.SubmitGasless(c.Request.Context(), c.Param("hash"), forwardRequest)
	if err != nil {
		var mismatch *domain.AmountMismatchError
		if errors.As(err, &mismatch) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":           "call amount does not match payment",
				"paymentHash":     mismatch.PaymentHash,
				"expectedAmount":  mismatch.Expected.String(),
				"submittedAmount": mismatch.Actual.String(),
			})
			return
		}
		h.respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, toSubmissionResponse(submission))
}

func (h *PaymentHandler) GetRelayStatus(c *gin.Context) {
	submission, err := h.Usecase.GetRelayStatusForPayment(c.Request.Context(), c.Param("hash"))
	if err != nil {
		h.respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubmissionResponse(submission))
}

func (h *PaymentHandler) respondPaymentError(c *gin.Context, err error) {
	var relayErr *domain.RelayError
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadSignature),
		errors.Is(err, domain.ErrDeadlineExpired),
		errors.Is(err, domain.ErrDeadlineOverflow),
		errors.Is(err, domain.ErrUnexpectedSelector):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrRelayRequestNotFound),
		errors.Is(err, domain.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentHashExists),
		errors.Is(err, domain.ErrPaymentNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &relayErr):
		c.JSON(relayErrorStatus(relayErr), gin.H{"error": relayErr.Error(), "kind": relayErr.Kind})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func relayErrorStatus(err *domain.RelayError) int {
	switch err.Kind {
	case domain.RelayErrAuth:
		return http.StatusBadGateway
	case domain.RelayErrNotFound:
		return http.StatusNotFound
	case domain.RelayErrFunds, domain.RelayErrNonceConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func toSubmissionResponse(s *domain.RelaySubmission) relaydto.TransactionResponse {
	var hash *string
	if s.Hash != "" {
		hash = &s.Hash
	}
	return relaydto.TransactionResponse{
		TransactionID: s.TransactionID,
		Hash:          hash,
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt,
	}
}
