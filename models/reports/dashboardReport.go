package reports

import (
	"context"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

type DashboardResponse struct {
	CashBalance      decimal.Decimal        `json:"cash_balance"`
	BankBalance      decimal.Decimal        `json:"bank_balance"`
	TotalReceivable  decimal.Decimal        `json:"total_receivable"`
	TotalPayable     decimal.Decimal        `json:"total_payable"`
	TotalIncome      decimal.Decimal        `json:"total_income"`
	TotalExpense     decimal.Decimal        `json:"total_expense"`
	IncomeByMonth    []*IncomeExpenseDetail `json:"income_by_month"`
	OpenInvoices     int64                  `json:"open_invoices"`
	UnmatchedLines   int64                  `json:"unmatched_lines"`
	TrialBalanceDiff decimal.Decimal        `json:"trial_balance_diff"`
}

type IncomeExpenseDetail struct {
	Month         string          `json:"month"`
	IncomeAmount  decimal.Decimal `json:"income_amount"`
	ExpenseAmount decimal.Decimal `json:"expense_amount"`
}

// netDebit reports a balance from the debit side, netCredit from the credit
// side; which one an account uses follows its main type.
func netDebit(b *models.AccountBalance) decimal.Decimal {
	return b.Debit.Sub(b.Credit)
}

func netCredit(b *models.AccountBalance) decimal.Decimal {
	return b.Credit.Sub(b.Debit)
}

// GetDashboard assembles the landing-page aggregates from the ledger. The
// income and expense figures skip the GST control accounts, which belong to
// the balance sheet, not profit and loss.
func GetDashboard(ctx context.Context) (*DashboardResponse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	balances, err := models.GetAccountBalances(ctx, businessId)
	if err != nil {
		return nil, err
	}

	response := DashboardResponse{}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, b := range balances {
		totalDebit = totalDebit.Add(b.Debit)
		totalCredit = totalCredit.Add(b.Credit)
		switch b.AccountCode {
		case models.AccountCodeCash:
			response.CashBalance = netDebit(b)
		case models.AccountCodeBank:
			response.BankBalance = netDebit(b)
		case models.AccountCodeAccountsReceivable:
			response.TotalReceivable = netDebit(b)
		case models.AccountCodeAccountsPayable:
			response.TotalPayable = netCredit(b)
		case models.AccountCodeSales:
			response.TotalIncome = response.TotalIncome.Add(netCredit(b))
		case models.AccountCodePurchases, models.AccountCodeSalaryExpense:
			response.TotalExpense = response.TotalExpense.Add(netDebit(b))
		}
	}
	response.TrialBalanceDiff = totalDebit.Sub(totalCredit).Round(2)

	db := config.GetDB()

	monthlySql := `
		SELECT
		    DATE_FORMAT(lt.transaction_date, '%Y-%m') AS month,
		    SUM(CASE WHEN le.account_code = 'SLS' THEN le.credit - le.debit ELSE 0 END) AS income_amount,
		    SUM(CASE WHEN le.account_code IN ('PUR', 'SAL') THEN le.debit - le.credit ELSE 0 END) AS expense_amount
		FROM
		    ledger_entries le
		    JOIN ledger_transactions lt ON lt.id = le.transaction_id
		WHERE
		    le.business_id = ?
		    AND lt.transaction_date >= DATE_SUB(CURDATE(), INTERVAL 6 MONTH)
		GROUP BY month
		ORDER BY month
	`
	if err := db.WithContext(ctx).Raw(monthlySql, businessId).Scan(&response.IncomeByMonth).Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&models.Invoice{}).
		Where("business_id = ? AND current_status = ?", businessId, models.InvoiceStatusIssued).
		Count(&response.OpenInvoices).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.BankStatementLine{}).
		Where("business_id = ? AND matched = false", businessId).
		Count(&response.UnmatchedLines).Error; err != nil {
		return nil, err
	}

	return &response, nil
}
