package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/middlewares"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/models/reports"
	"github.com/suvidhaworks/bizbooks_backend/utils"
	"github.com/suvidhaworks/bizbooks_backend/workflow"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("bizbooks-backend")

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	var authErr *utils.AuthorizationError
	var conflictErr *utils.ConflictError
	var capabilityErr *utils.CapabilityDeniedError
	var partialErr *utils.PartialFailureError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authErr.Error()})
	case errors.As(err, &capabilityErr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": capabilityErr.Error(), "capability": capabilityErr.Capability})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error()})
	case errors.As(err, &partialErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          partialErr.Error(),
			"completed_step": partialErr.CompletedStep,
		})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, workflow.ErrIdempotencyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "request is already being processed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	c.Error(err)
}

func parseIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	// Filing-period form: ?month=8&year=2026.
	if c.Query("month") != "" || c.Query("year") != "" {
		month, errM := strconv.Atoi(c.Query("month"))
		year, errY := strconv.Atoi(c.Query("year"))
		if errM != nil || errY != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month and year must be integers"})
			return time.Time{}, time.Time{}, false
		}
		from, to, err := reports.MonthPeriod(year, month)
		if err != nil {
			respondError(c, err)
			return time.Time{}, time.Time{}, false
		}
		return from, to, true
	}
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

/* Invoices */

func createInvoiceHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "createInvoice")
		defer span.End()

		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := workflow.CreateInvoice(ctx, logger, &input, c.GetHeader("Idempotency-Key"))
		if err != nil {
			var partialErr *utils.PartialFailureError
			if errors.As(err, &partialErr) && invoice != nil {
				// The draft survived; hand it back so the operator can re-issue.
				c.JSON(http.StatusAccepted, gin.H{
					"invoice":        invoice,
					"error":          partialErr.Error(),
					"completed_step": partialErr.CompletedStep,
				})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.InvoiceStatus
		if s := c.Query("status"); s != "" {
			st := models.InvoiceStatus(s)
			status = &st
		}
		var fromDate, toDate *time.Time
		if c.Query("from") != "" && c.Query("to") != "" {
			from, to, ok := parseDateRange(c)
			if !ok {
				return
			}
			fromDate, toDate = &from, &to
		}
		invoices, err := models.GetInvoices(c.Request.Context(), status, fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		invoice, err := models.GetInvoice(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func incompleteDraftsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoices, err := workflow.GetIncompleteDrafts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func issueInvoiceHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		invoice, err := workflow.IssueInvoice(c.Request.Context(), logger, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func payInvoiceHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payment, err := workflow.MarkInvoicePaid(c.Request.Context(), logger, id, &input, c.GetHeader("Idempotency-Key"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func cancelInvoiceHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var body struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := workflow.CancelInvoice(c.Request.Context(), logger, id, body.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func deleteDraftInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		invoice, err := models.DeleteDraftInvoice(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

/* Payments */

func recordPaymentHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "recordPayment")
		defer span.End()

		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payment, err := workflow.RecordPayment(ctx, logger, &input, c.GetHeader("Idempotency-Key"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func listPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var direction *models.PaymentDirection
		if d := c.Query("direction"); d != "" {
			dir := models.PaymentDirection(d)
			direction = &dir
		}
		var fromDate, toDate *time.Time
		if c.Query("from") != "" && c.Query("to") != "" {
			from, to, ok := parseDateRange(c)
			if !ok {
				return
			}
			fromDate, toDate = &from, &to
		}
		payments, err := models.GetPayments(c.Request.Context(), direction, fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func voidPaymentHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var body struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payment, err := workflow.VoidPayment(c.Request.Context(), logger, id, body.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

/* Expenses */

func recordExpenseHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewExpense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expense, err := workflow.RecordExpense(c.Request.Context(), logger, &input, c.GetHeader("Idempotency-Key"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

func listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var fromDate, toDate *time.Time
		if c.Query("from") != "" && c.Query("to") != "" {
			from, to, ok := parseDateRange(c)
			if !ok {
				return
			}
			fromDate, toDate = &from, &to
		}
		expenses, err := models.GetExpenses(c.Request.Context(), fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, expenses)
	}
}

/* Employees */

func createEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewEmployee
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		employee, err := models.CreateEmployee(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, employee)
	}
}

func listEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employees, err := models.GetEmployees(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, employees)
	}
}

func deactivateEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		employee, err := models.DeactivateEmployee(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, employee)
	}
}

/* Payroll */

func runPayrollHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "runPayroll")
		defer span.End()

		var input models.NewPayrollRun
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		run, err := workflow.RunPayroll(ctx, logger, &input)
		if err != nil {
			var partialErr *utils.PartialFailureError
			if errors.As(err, &partialErr) && run != nil {
				c.JSON(http.StatusAccepted, gin.H{
					"payroll_run":    run,
					"error":          partialErr.Error(),
					"completed_step": partialErr.CompletedStep,
				})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, run)
	}
}

func listPayrollRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := models.GetPayrollRuns(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, runs)
	}
}

func getPayrollRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		run, err := models.GetPayrollRun(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func lockPayrollRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		run, err := workflow.LockPayrollRun(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func payPayrollRunHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		run, err := workflow.MarkPayrollRunPaid(c.Request.Context(), logger, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

/* Bank reconciliation */

func importStatementHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Lines []models.NewBankStatementLine `json:"lines" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := workflow.ImportBankStatementLines(c.Request.Context(), logger, body.Lines)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func unmatchedLinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		lines, err := models.GetUnmatchedStatementLines(c.Request.Context(), businessId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}

func findMatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		candidates, err := workflow.FindMatches(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, candidates)
	}
}

func reconcileHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			StatementLineId int `json:"statement_line_id" binding:"required"`
			PaymentId       int `json:"payment_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := workflow.Reconcile(c.Request.Context(), logger, body.StatementLineId, body.PaymentId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"matched": true})
	}
}

/* Reports */

func gstSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("month") != "" || c.Query("year") != "" {
			month, errM := strconv.Atoi(c.Query("month"))
			year, errY := strconv.Atoi(c.Query("year"))
			if errM != nil || errY != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "month and year must be integers"})
				return
			}
			summary, err := reports.GetGSTSummaryForMonth(c.Request.Context(), year, month)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, summary)
			return
		}
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}
		summary, err := reports.GetGSTSummary(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func gstSummaryExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}
		f, err := reports.ExportGSTSummaryExcel(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=gst-summary.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := reports.GetDashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

func accountBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		balances, err := models.GetAccountBalances(c.Request.Context(), businessId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, balances)
	}
}

func ledgerTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		sourceType := models.LedgerSourceType(c.Query("source_type"))
		sourceId, err := strconv.Atoi(c.Query("source_id"))
		if !sourceType.Valid() || err != nil || sourceId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source_type and source_id are required"})
			return
		}
		txn, err := models.GetLedgerTransactionBySource(c.Request.Context(), businessId, sourceType, sourceId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

/* Ops */

func ledgerIntegrityHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := workflow.RunLedgerIntegrityChecks(c.Request.Context(), logger)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func seedAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		if err := models.SeedSystemAccounts(c.Request.Context(), businessId); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"seeded": true})
	}
}

// customErrorLogger logs only requests that attached errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func registerRoutes(r *gin.Engine, logger *logrus.Logger) {
	api := r.Group("/api")

	api.POST("/invoices", createInvoiceHandler(logger))
	api.GET("/invoices", listInvoicesHandler())
	api.GET("/invoices/drafts/incomplete", incompleteDraftsHandler())
	api.GET("/invoices/:id", getInvoiceHandler())
	api.POST("/invoices/:id/issue", issueInvoiceHandler(logger))
	api.POST("/invoices/:id/pay", payInvoiceHandler(logger))
	api.POST("/invoices/:id/cancel", cancelInvoiceHandler(logger))
	api.DELETE("/invoices/:id", deleteDraftInvoiceHandler())

	api.POST("/payments", recordPaymentHandler(logger))
	api.GET("/payments", listPaymentsHandler())
	api.POST("/payments/:id/void", voidPaymentHandler(logger))

	api.POST("/expenses", recordExpenseHandler(logger))
	api.GET("/expenses", listExpensesHandler())

	api.POST("/employees", createEmployeeHandler())
	api.GET("/employees", listEmployeesHandler())
	api.POST("/employees/:id/deactivate", deactivateEmployeeHandler())

	api.POST("/payroll-runs", runPayrollHandler(logger))
	api.GET("/payroll-runs", listPayrollRunsHandler())
	api.GET("/payroll-runs/:id", getPayrollRunHandler())
	api.POST("/payroll-runs/:id/lock", lockPayrollRunHandler())
	api.POST("/payroll-runs/:id/pay", payPayrollRunHandler(logger))

	api.POST("/bank-statements/import", importStatementHandler(logger))
	api.GET("/bank-statements/unmatched", unmatchedLinesHandler())
	api.GET("/bank-statements/:id/matches", findMatchesHandler())
	api.POST("/reconciliations", reconcileHandler(logger))

	api.GET("/reports/gst-summary", gstSummaryHandler())
	api.GET("/reports/gst-summary/export", gstSummaryExportHandler())
	api.GET("/reports/dashboard", dashboardHandler())
	api.GET("/ledger/balances", accountBalancesHandler())
	api.GET("/ledger/transaction", ledgerTransactionHandler())

	r.POST("/internal/ops/ledger-integrity", ledgerIntegrityHandler(logger))
	r.POST("/internal/ops/seed-accounts", seedAccountsHandler())
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// JSON numbers for money come in as strings too.
	decimal.MarshalJSONWithoutQuotes = true

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("taxrate", func(fl validator.FieldLevel) bool {
			rate, ok := fl.Field().Interface().(decimal.Decimal)
			if !ok {
				return false
			}
			return utils.ValidTaxRate(rate)
		})
	}

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "Idempotency-Key")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r, logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateDatabase(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error; err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Warn("failed to set isolation level: " + err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
