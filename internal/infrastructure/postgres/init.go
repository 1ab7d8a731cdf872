package postgres

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/meridianpay/relay-payment-service/internal/config"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/models"
)

func MustInitDB(cfg *config.RelayConfig) *gorm.DB {
	dsn := cfg.PaymentDB.Dsn
	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey,
	// which the repository maps to ErrPaymentHashExists.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(&models.TokenModel{}, &models.PaymentModel{}, &models.PaymentEventModel{}, &models.RelayRequestModel{})

	return db
}
