package models

import (
	"gorm.io/gorm"
)

// MigrateDatabase keeps the schema in sync at startup.
func MigrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&Business{},
		&Account{},
		&LedgerTransaction{},
		&LedgerEntry{},
		&Invoice{},
		&InvoiceLineItem{},
		&Payment{},
		&Expense{},
		&Employee{},
		&PayrollRun{},
		&PayrollItem{},
		&BankStatementLine{},
		&IdempotencyKey{},
	)
}
