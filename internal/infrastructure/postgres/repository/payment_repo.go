package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/mappers"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/models"
)

type DefaultPaymentRepository struct {
	DB *gorm.DB
}

func NewDefaultPaymentRepository(db *gorm.DB) *DefaultPaymentRepository {
	return &DefaultPaymentRepository{DB: db}
}

func (r *DefaultPaymentRepository) CreatePayment(payment *domain.Payment, event *domain.PaymentEvent) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mappers.ToGORMPayment(payment)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrPaymentHashExists
			}
			return fmt.Errorf("create payment %s: %w", payment.Hash, err)
		}
		if err := tx.Create(mappers.ToGORMPaymentEvent(event)).Error; err != nil {
			return fmt.Errorf("create payment event for %s: %w", payment.ID, err)
		}
		return nil
	})
}

// TransitionPayment serializes concurrent transitions on the same
// payment with a row lock, so two callers can never race it into two
// different terminal states.
func (r *DefaultPaymentRepository) TransitionPayment(paymentID string, fn func(*domain.Payment) (*domain.PaymentEvent, error)) (*domain.Payment, error) {
	var result *domain.Payment
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var model models.PaymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPaymentNotFound
			}
			return fmt.Errorf("lock payment %s: %w", paymentID, err)
		}

		payment := mappers.ToDomainPayment(&model)
		event, err := fn(payment)
		if err != nil {
			return err
		}
		result = payment
		if event == nil {
			// Idempotent repeat, nothing to persist.
			return nil
		}

		payment.UpdatedAt = time.Now()
		updates := map[string]interface{}{
			"status":       payment.Status,
			"tx_hash":      payment.TxHash,
			"confirmed_at": payment.ConfirmedAt,
			"updated_at":   payment.UpdatedAt,
		}
		if err := tx.Model(&models.PaymentModel{}).
			Where("id = ?", paymentID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("update payment %s: %w", paymentID, err)
		}
		if err := tx.Create(mappers.ToGORMPaymentEvent(event)).Error; err != nil {
			return fmt.Errorf("append payment event for %s: %w", paymentID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *DefaultPaymentRepository) GetPaymentByID(paymentID string) (*domain.Payment, error) {
	var model models.PaymentModel
	if err := r.DB.First(&model, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return mappers.ToDomainPayment(&model), nil
}

func (r *DefaultPaymentRepository) GetPaymentByHash(hash string) (*domain.Payment, error) {
	var model models.PaymentModel
	if err := r.DB.First(&model, "hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return mappers.ToDomainPayment(&model), nil
}

func (r *DefaultPaymentRepository) FindOverduePayments() ([]*domain.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.DB.
		Where("status IN ?", []domain.PaymentStatus{domain.StatusCreated, domain.StatusPending}).
		Where("expires_at < ?", time.Now()).
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = mappers.ToDomainPayment(&model)
	}
	return payments, nil
}

func (r *DefaultPaymentRepository) SaveRelayRequest(req *domain.RelayRequest) error {
	return r.DB.Create(&models.RelayRequestModel{
		ID:        req.ID,
		RelayRef:  req.RelayRef,
		PaymentID: req.PaymentID,
		CreatedAt: req.CreatedAt,
	}).Error
}

func (r *DefaultPaymentRepository) GetRelayRequestByPaymentID(paymentID string) (*domain.RelayRequest, error) {
	var model models.RelayRequestModel
	if err := r.DB.
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRelayRequestNotFound
		}
		return nil, err
	}
	return mappers.ToDomainRelayRequest(&model), nil
}
