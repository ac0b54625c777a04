package workflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

type StatementImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportBankStatementLines loads statement rows, dropping duplicates by
// fingerprint so overlapping exports import cleanly. A distributed lock keeps
// two concurrent imports for the same business from racing.
func ImportBankStatementLines(ctx context.Context, logger *logrus.Logger, lines []models.NewBankStatementLine) (*StatementImportResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}
	if len(lines) == 0 {
		return nil, utils.NewValidationError("lines", "at least one statement line is required")
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "stmt-import:"+businessId, 30*time.Second, nil)
		if err == redislock.ErrNotObtained {
			return nil, utils.NewConflictError("a statement import is already running")
		} else if err != nil {
			return nil, err
		}
		defer lock.Release(ctx)
	}

	db := config.GetDB()
	result := StatementImportResult{}
	tx := db.Begin()
	for _, line := range lines {
		record := models.BankStatementLine{
			BusinessId:  businessId,
			LineDate:    line.LineDate,
			Amount:      line.Amount,
			Description: line.Description,
			Reference:   line.Reference,
			Fingerprint: models.ComputeStatementFingerprint(line.LineDate, line.Amount, line.Reference, line.Description),
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				result.Skipped++
				continue
			}
			tx.Rollback()
			config.LogError(logger, "reconciliationWorkflow.go", "ImportBankStatementLines", "Create", record, err)
			return nil, err
		}
		result.Imported++
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &result, nil
}

type MatchCandidate struct {
	Payment       *models.Payment `json:"payment"`
	DateDeltaDays int             `json:"date_delta_days"`
	ReferenceHits int             `json:"reference_hits"`
}

func absDays(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// rankCandidates filters unmatched payments to exact amount matches and
// orders them by date proximity, then reference overlap. The amount filter
// is strict; a near-miss is never suggested.
func rankCandidates(line *models.BankStatementLine, payments []*models.Payment) []*MatchCandidate {
	wantDirection := models.PaymentDirectionReceived
	if line.Amount.IsNegative() {
		wantDirection = models.PaymentDirectionMade
	}
	wantAmount := line.Amount.Abs()

	var candidates []*MatchCandidate
	for _, p := range payments {
		if p.Direction != wantDirection {
			continue
		}
		if !p.Amount.Round(2).Equal(wantAmount.Round(2)) {
			continue
		}
		candidates = append(candidates, &MatchCandidate{
			Payment:       p,
			DateDeltaDays: absDays(line.LineDate, p.PaymentDate),
			ReferenceHits: models.ReferenceSimilarity(p.Reference, strings.TrimSpace(line.Reference+" "+line.Description)),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DateDeltaDays != candidates[j].DateDeltaDays {
			return candidates[i].DateDeltaDays < candidates[j].DateDeltaDays
		}
		return candidates[i].ReferenceHits > candidates[j].ReferenceHits
	})
	return candidates
}

// FindMatches suggests payments for an unmatched statement line. Suggestions
// never auto-apply; the operator confirms a pair through Reconcile.
func FindMatches(ctx context.Context, statementLineId int) ([]*MatchCandidate, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	line, err := models.GetBankStatementLine(ctx, statementLineId)
	if err != nil {
		return nil, err
	}
	if line.Matched {
		return nil, utils.NewConflictError("statement line is already matched")
	}

	payments, err := models.GetUnmatchedPayments(ctx, businessId)
	if err != nil {
		return nil, err
	}
	return rankCandidates(line, payments), nil
}

// Reconcile pairs one statement line with one payment. Both sides are
// claimed with matched=false guards, so two operators confirming against the
// same payment cannot both win.
func Reconcile(ctx context.Context, logger *logrus.Logger, statementLineId, paymentId int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return utils.NewValidationError("business_id", "business id is required")
	}

	line, err := models.GetBankStatementLine(ctx, statementLineId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return &utils.AuthorizationError{Resource: "bank_statement_line", Id: statementLineId}
		}
		return err
	}
	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return &utils.AuthorizationError{Resource: "payment", Id: paymentId}
		}
		return err
	}

	if line.Matched {
		return utils.NewConflictError("statement line is already matched")
	}
	if payment.Matched {
		return utils.NewConflictError("payment is already matched")
	}
	if payment.CurrentStatus != models.PaymentStatusCompleted {
		return utils.NewConflictError("void payment cannot be reconciled")
	}
	if !payment.Amount.Round(2).Equal(line.Amount.Abs().Round(2)) {
		return utils.NewValidationError("payment_id", "payment amount does not match statement line")
	}

	db := config.GetDB()
	tx := db.Begin()

	lineUpdate := tx.WithContext(ctx).Model(&models.BankStatementLine{}).
		Where("id = ? AND business_id = ? AND matched = false", line.ID, businessId).
		Updates(map[string]interface{}{"matched": true, "matched_payment_id": payment.ID})
	if lineUpdate.Error != nil {
		tx.Rollback()
		return lineUpdate.Error
	}
	paymentUpdate := tx.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND business_id = ? AND matched = false", payment.ID, businessId).
		Updates(map[string]interface{}{"matched": true, "matched_statement_line_id": line.ID})
	if paymentUpdate.Error != nil {
		tx.Rollback()
		return paymentUpdate.Error
	}
	if lineUpdate.RowsAffected != 1 || paymentUpdate.RowsAffected != 1 {
		tx.Rollback()
		return utils.NewConflictError("statement line or payment was matched concurrently")
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"business_id":       businessId,
		"statement_line_id": line.ID,
		"payment_id":        payment.ID,
	}).Info("statement line reconciled")
	return nil
}
