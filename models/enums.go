package models

/* Ledger */

// LedgerSourceType names the economic event a ledger transaction records.
type LedgerSourceType string

const (
	LedgerSourceTypeInvoice LedgerSourceType = "invoice"
	LedgerSourceTypePayment LedgerSourceType = "payment"
	LedgerSourceTypePayroll LedgerSourceType = "payroll"
	LedgerSourceTypeExpense LedgerSourceType = "expense"
)

func (s LedgerSourceType) Valid() bool {
	switch s {
	case LedgerSourceTypeInvoice, LedgerSourceTypePayment, LedgerSourceTypePayroll, LedgerSourceTypeExpense:
		return true
	}
	return false
}

/* Invoice */

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "Draft"
	InvoiceStatusIssued    InvoiceStatus = "Issued"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusCancelled InvoiceStatus = "Cancelled"
)

// invoiceStatusTransitions is the whole lifecycle; anything absent is illegal.
var invoiceStatusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:     {InvoiceStatusIssued, InvoiceStatusCancelled},
	InvoiceStatusIssued:    {InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvoiceDraftKind distinguishes a draft an operator asked for from one left
// behind by a failed issue, so the recovery surface can tell them apart.
type InvoiceDraftKind string

const (
	InvoiceDraftKindIntentional InvoiceDraftKind = "intentional"
	InvoiceDraftKindIncomplete  InvoiceDraftKind = "incomplete"
)

/* Payment */

type PaymentDirection string

const (
	PaymentDirectionReceived PaymentDirection = "received"
	PaymentDirectionMade     PaymentDirection = "made"
)

func (d PaymentDirection) Valid() bool {
	return d == PaymentDirectionReceived || d == PaymentDirectionMade
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusVoid      PaymentStatus = "Void"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCard, PaymentMethodUPI:
		return true
	}
	return false
}

// AssetAccountCode maps the payment method to the money account it moves.
func (m PaymentMethod) AssetAccountCode() string {
	if m == PaymentMethodCash {
		return AccountCodeCash
	}
	return AccountCodeBank
}

/* Payroll */

type PayrollRunStatus string

const (
	PayrollRunStatusDraft  PayrollRunStatus = "Draft"
	PayrollRunStatusLocked PayrollRunStatus = "Locked"
	PayrollRunStatusPaid   PayrollRunStatus = "Paid"
)

// Strictly increasing; a run never goes back to Draft.
var payrollRunStatusTransitions = map[PayrollRunStatus][]PayrollRunStatus{
	PayrollRunStatusDraft:  {PayrollRunStatusLocked},
	PayrollRunStatusLocked: {PayrollRunStatusPaid},
	PayrollRunStatusPaid:   {},
}

func (s PayrollRunStatus) CanTransitionTo(next PayrollRunStatus) bool {
	for _, allowed := range payrollRunStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "Active"
	EmployeeStatusInactive EmployeeStatus = "Inactive"
)

/* Accounts */

type AccountMainType string

const (
	AccountMainTypeAsset     AccountMainType = "Asset"
	AccountMainTypeLiability AccountMainType = "Liability"
	AccountMainTypeEquity    AccountMainType = "Equity"
	AccountMainTypeIncome    AccountMainType = "Income"
	AccountMainTypeExpense   AccountMainType = "Expense"
)

// System default codes for the fixed chart of accounts.
const (
	AccountCodeBank               = "BNK"
	AccountCodeCash               = "CSH"
	AccountCodeAccountsReceivable = "AR"
	AccountCodeAccountsPayable    = "AP"
	AccountCodeSales              = "SLS"
	AccountCodePurchases          = "PUR"
	AccountCodeSalaryExpense      = "SAL"
	AccountCodeGSTOutput          = "GSO"
	AccountCodeGSTInput           = "GSI"
	AccountCodeGSTPayable         = "GSP"
)

// gstAccountCodes are balance-sheet accounts. They must never leak into
// profit/loss aggregation.
var gstAccountCodes = map[string]bool{
	AccountCodeGSTOutput:  true,
	AccountCodeGSTInput:   true,
	AccountCodeGSTPayable: true,
}

func IsGSTAccountCode(code string) bool {
	return gstAccountCodes[code]
}

/* Idempotency */

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)
