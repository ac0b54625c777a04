package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

type LedgerIntegrityReport struct {
	TrialBalanceDiff decimal.Decimal `json:"trial_balance_diff"`
	Balanced         bool            `json:"balanced"`
	MisfiledGSTCodes []string        `json:"misfiled_gst_codes"`
}

// RunLedgerIntegrityChecks verifies the two whole-ledger invariants: total
// debits equal total credits, and the GST control accounts sit on the
// balance sheet rather than in income or expense. Intended for a nightly
// schedule or an admin trigger.
func RunLedgerIntegrityChecks(ctx context.Context, logger *logrus.Logger) (*LedgerIntegrityReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	balances, err := models.GetAccountBalances(ctx, businessId)
	if err != nil {
		return nil, err
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, b := range balances {
		totalDebit = totalDebit.Add(b.Debit)
		totalCredit = totalCredit.Add(b.Credit)
	}
	diff := totalDebit.Sub(totalCredit).Round(2)

	db := config.GetDB()
	var accounts []*models.Account
	err = db.WithContext(ctx).
		Where("business_id = ? AND main_type IN ?", businessId,
			[]models.AccountMainType{models.AccountMainTypeIncome, models.AccountMainTypeExpense}).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	var misfiled []string
	for _, account := range accounts {
		if models.IsGSTAccountCode(account.SystemDefaultCode) {
			misfiled = append(misfiled, account.SystemDefaultCode)
		}
	}

	report := LedgerIntegrityReport{
		TrialBalanceDiff: diff,
		Balanced:         diff.IsZero(),
		MisfiledGSTCodes: misfiled,
	}
	if !report.Balanced || len(misfiled) > 0 {
		logger.WithFields(logrus.Fields{
			"business_id":        businessId,
			"trial_balance_diff": diff.String(),
			"misfiled_gst_codes": misfiled,
		}).Warn("ledger integrity check failed")
	} else {
		logger.WithFields(logrus.Fields{
			"business_id": businessId,
		}).Info("ledger integrity checks passed")
	}
	return &report, nil
}
