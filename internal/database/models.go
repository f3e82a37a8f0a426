package database

import (
	"fmt"

	"github.com/fintelis/fintelis-api/internal/models"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.Membership{},
		&models.BankAccount{},
		&models.CashRegister{},
		&models.Category{},
		&models.CostCenter{},
		&models.Contact{},
		&models.PaymentMethod{},
		&models.Transaction{},
		&models.Obligation{},
		&models.RecurringTemplate{},
		&models.RecurringInstance{},
		&models.AuditLog{},
	}
}

// AutoMigrate creates or updates the schema from the models. Production
// databases are migrated with the SQL files under migrations/ instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}
