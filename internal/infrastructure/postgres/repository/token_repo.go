package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/meridianpay/relay-payment-service/internal/domain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/mappers"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/models"
)

type DefaultTokenRepository struct {
	DB *gorm.DB
}

func NewDefaultTokenRepository(db *gorm.DB) *DefaultTokenRepository {
	return &DefaultTokenRepository{DB: db}
}

func (r *DefaultTokenRepository) GetTokenByID(tokenID string) (*domain.Token, error) {
	var model models.TokenModel
	if err := r.DB.First(&model, "id = ?", tokenID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("token %s: %w", tokenID, domain.ErrTokenNotFound)
		}
		return nil, err
	}
	return mappers.ToDomainToken(&model), nil
}
