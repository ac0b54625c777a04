package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
	"gorm.io/gorm"
)

// LedgerTransaction groups the balanced entries of exactly one economic
// event. (business_id, source_type, source_id, is_reversal) is unique, so
// re-processing the same event cannot post twice.
type LedgerTransaction struct {
	ID              int              `gorm:"primary_key" json:"id"`
	BusinessId      string           `gorm:"size:64;not null;index;index:uniq_ledger_source,unique,priority:1" json:"business_id"`
	SourceType      LedgerSourceType `gorm:"type:enum('invoice','payment','payroll','expense');not null;index:uniq_ledger_source,unique,priority:2" json:"source_type"`
	SourceId        int              `gorm:"not null;index:uniq_ledger_source,unique,priority:3" json:"source_id"`
	TransactionDate time.Time        `gorm:"index;not null" json:"transaction_date"`
	Description     string           `gorm:"size:255" json:"description"`
	// Ledger immutability: posted transactions are never deleted; corrections
	// are made by inserting a reversal transaction and linking it here.
	IsReversal              bool           `gorm:"not null;default:false;index:uniq_ledger_source,unique,priority:4" json:"is_reversal"`
	ReversesTransactionId   *int           `gorm:"index" json:"reverses_transaction_id"`
	ReversedByTransactionId *int           `gorm:"index" json:"reversed_by_transaction_id"`
	ReversalReason          *string        `gorm:"type:text" json:"reversal_reason"`
	ReversedAt              *time.Time     `gorm:"index" json:"reversed_at"`
	Entries                 []LedgerEntry  `gorm:"foreignKey:TransactionId" json:"entries"`
	CreatedAt               time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// LedgerEntry is one debit or credit line of a balanced transaction.
// AccountCode is denormalized from the fixed chart so projections can group
// without a join.
type LedgerEntry struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;index;index:idx_le_biz_code,priority:1" json:"business_id"`
	TransactionId int             `gorm:"index;not null" json:"transaction_id"`
	AccountId     int             `gorm:"index;not null" json:"account_id"`
	AccountCode   string          `gorm:"size:3;not null;index:idx_le_biz_code,priority:2" json:"account_code"`
	Debit         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Ledger immutability guardrails:
// - ledger_entries are append-only (no updates/deletes).
// - ledger_transactions must never be deleted; limited updates are allowed
//   only for reversal linkage fields.

func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_entries cannot be updated")
}

func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_entries cannot be deleted")
}

func (t *LedgerTransaction) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: ledger_transactions cannot be deleted")
}

func (t *LedgerTransaction) BeforeUpdate(tx *gorm.DB) error {
	// Allow only reversal linkage fields to be updated.
	allowed := map[string]bool{
		"IsReversal":              true,
		"ReversesTransactionId":   true,
		"ReversedByTransactionId": true,
		"ReversalReason":          true,
		"ReversedAt":              true,
		"UpdatedAt":               true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable ledger: only reversal linkage fields may be updated on ledger_transactions")
		}
	}
	return nil
}

// ValidateBalanced checks the double-entry invariant over a set of entries:
// every entry carries exactly one non-negative side, and total debits equal
// total credits to the cent.
func ValidateBalanced(entries []LedgerEntry) error {
	if len(entries) < 2 {
		return utils.NewValidationError("entries", "a transaction needs at least one debit and one credit")
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, e := range entries {
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			return utils.NewValidationError("entries", "debit and credit must be non-negative")
		}
		if e.Debit.IsZero() == e.Credit.IsZero() {
			return utils.NewValidationError("entries", "either debit or credit must have value")
		}
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
	}
	if !totalDebit.Round(2).Equal(totalCredit.Round(2)) {
		return utils.NewValidationError("entries", "transaction is not balanced: debit "+totalDebit.String()+" vs credit "+totalCredit.String())
	}
	return nil
}

// PostLedgerTransaction appends one balanced transaction inside the caller's
// database transaction. A duplicate (source_type, source_id) surfaces as a
// ConflictError from the unique index, closing the re-processing race.
func PostLedgerTransaction(tx *gorm.DB, txn *LedgerTransaction) error {
	if !txn.SourceType.Valid() {
		return utils.NewValidationError("source_type", "unknown source type")
	}
	if err := ValidateBalanced(txn.Entries); err != nil {
		return err
	}
	for i := range txn.Entries {
		txn.Entries[i].BusinessId = txn.BusinessId
	}
	if err := tx.Create(txn).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return utils.NewConflictError("ledger transaction already posted for this event")
		}
		return err
	}
	return nil
}

// ReverseLedgerTransaction posts the mirror image of a transaction and links
// the two. The original is never mutated beyond the linkage fields.
func ReverseLedgerTransaction(tx *gorm.DB, original *LedgerTransaction, reason string) (*LedgerTransaction, error) {
	if original.ReversedByTransactionId != nil {
		return nil, utils.NewConflictError("ledger transaction is already reversed")
	}
	now := time.Now().UTC()
	reversal := LedgerTransaction{
		BusinessId:            original.BusinessId,
		SourceType:            original.SourceType,
		SourceId:              original.SourceId,
		TransactionDate:       now,
		Description:           "Reversal of: " + original.Description,
		IsReversal:            true,
		ReversesTransactionId: &original.ID,
		ReversalReason:        &reason,
	}
	for _, e := range original.Entries {
		reversal.Entries = append(reversal.Entries, LedgerEntry{
			BusinessId:  e.BusinessId,
			AccountId:   e.AccountId,
			AccountCode: e.AccountCode,
			Debit:       e.Credit,
			Credit:      e.Debit,
		})
	}
	if err := PostLedgerTransaction(tx, &reversal); err != nil {
		return nil, err
	}
	err := tx.Model(original).Updates(map[string]interface{}{
		"ReversedByTransactionId": reversal.ID,
		"ReversalReason":          reason,
		"ReversedAt":              now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &reversal, nil
}

// GetLedgerTransactionBySource returns the active (non-reversed) transaction
// for an economic event, entries preloaded.
func GetLedgerTransactionBySource(ctx context.Context, businessId string, sourceType LedgerSourceType, sourceId int) (*LedgerTransaction, error) {
	db := config.GetDB()
	var txn LedgerTransaction
	err := db.WithContext(ctx).Preload("Entries").
		Where("business_id = ? AND source_type = ? AND source_id = ? AND is_reversal = false AND reversed_by_transaction_id IS NULL",
			businessId, sourceType, sourceId).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// AccountBalance is a grouped ledger aggregate used by the read projections.
type AccountBalance struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// GetAccountBalances aggregates the whole ledger per account code.
func GetAccountBalances(ctx context.Context, businessId string) ([]*AccountBalance, error) {
	db := config.GetDB()
	var results []*AccountBalance
	sql := `
		SELECT
		    account_code,
		    SUM(debit) AS debit,
		    SUM(credit) AS credit
		FROM
		    ledger_entries
		WHERE
		    business_id = ?
		GROUP BY account_code
	`
	if err := db.WithContext(ctx).Raw(sql, businessId).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
