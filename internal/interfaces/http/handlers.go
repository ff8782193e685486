package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/restobooks/vendor-recon/internal/application/service"
	"github.com/restobooks/vendor-recon/internal/ingest"
	"github.com/restobooks/vendor-recon/pkg/apperrors"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP request handlers
type Handlers struct {
	ingestionService service.IngestionService
	reconcileService service.ReconcileService
	logger           Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	ingestionService service.IngestionService,
	reconcileService service.ReconcileService,
	logger Logger,
) *Handlers {
	return &Handlers{
		ingestionService: ingestionService,
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ImportLineRequest is one statement line in an import payload. Dates
// use YYYY-MM-DD; amounts are decimal strings.
type ImportLineRequest struct {
	Date            string `json:"date" binding:"required"`
	Description     string `json:"description" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	InvoiceNumber   string `json:"invoice_number"`
	ReferenceNumber string `json:"reference_number"`
}

// ImportStatementRequest is the JSON payload for POST /api/statements.
type ImportStatementRequest struct {
	VendorID        int64               `json:"vendor_id" binding:"required"`
	VenueID         int64               `json:"venue_id" binding:"required"`
	StatementNumber string              `json:"statement_number"`
	PeriodStart     string              `json:"period_start" binding:"required"`
	PeriodEnd       string              `json:"period_end" binding:"required"`
	DeclaredTotal   string              `json:"declared_total"`
	ImportedBy      string              `json:"imported_by"`
	Lines           []ImportLineRequest `json:"lines"`
}

// ReassignRequest is the payload for POST /api/lines/:id/reassign.
type ReassignRequest struct {
	InvoiceID int64 `json:"invoice_id" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ImportStatement handles POST /api/statements
func (h *Handlers) ImportStatement(c *gin.Context) {
	var req ImportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid import payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
			Code:    "INVALID_BODY",
		})
		return
	}

	importReq, err := toImportRequest(&req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	summary, err := h.ingestionService.ImportStatement(c.Request.Context(), importReq)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    summary,
	})
}

// ImportStatementXLSX handles POST /api/statements/import-xlsx. The
// statement header travels as multipart form fields next to the file.
func (h *Handlers) ImportStatementXLSX(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing xlsx file upload",
			Code:    "MISSING_FILE",
		})
		return
	}
	defer file.Close()

	lines, err := ingest.ParseWorkbook(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req := ImportStatementRequest{
		StatementNumber: c.PostForm("statement_number"),
		PeriodStart:     c.PostForm("period_start"),
		PeriodEnd:       c.PostForm("period_end"),
		DeclaredTotal:   c.PostForm("declared_total"),
		ImportedBy:      c.PostForm("imported_by"),
	}
	req.VendorID, err = strconv.ParseInt(c.PostForm("vendor_id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.Validation("INVALID_ID", "vendor_id must be a number"))
		return
	}
	req.VenueID, err = strconv.ParseInt(c.PostForm("venue_id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.Validation("INVALID_ID", "venue_id must be a number"))
		return
	}

	importReq, err := toImportRequest(&req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	importReq.Lines = lines

	summary, err := h.ingestionService.ImportStatement(c.Request.Context(), importReq)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    summary,
	})
}

// GetStatement handles GET /api/statements/:id
func (h *Handlers) GetStatement(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	statement, err := h.reconcileService.GetStatement(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    statement,
	})
}

// ListLines handles GET /api/statements/:id/lines
func (h *Handlers) ListLines(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	views, err := h.reconcileService.ListLines(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    views,
	})
}

// IgnoreLine handles POST /api/lines/:id/ignore
func (h *Handlers) IgnoreLine(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.reconcileService.IgnoreLine(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// AssistedMatch handles POST /api/lines/:id/assist
func (h *Handlers) AssistedMatch(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	outcome, err := h.reconcileService.AssistedMatch(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    outcome,
	})
}

// ManualConfirm handles POST /api/lines/:id/confirm
func (h *Handlers) ManualConfirm(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.reconcileService.ManualConfirm(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ManualReassign handles POST /api/lines/:id/reassign
func (h *Handlers) ManualReassign(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
			Code:    "INVALID_BODY",
		})
		return
	}

	if err := h.reconcileService.ManualReassign(c.Request.Context(), id, req.InvoiceID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ListHistory handles GET /api/lines/:id/history
func (h *Handlers) ListHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	results, err := h.reconcileService.ListHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    results,
	})
}

// pathID parses the :id path parameter.
func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid path ID", "id", idStr, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid id",
			Code:    "INVALID_ID",
		})
		return 0, false
	}
	return id, true
}

// respondError maps application error kinds onto HTTP statuses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		h.logger.Error("Unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal error",
		})
		return
	}

	status := http.StatusInternalServerError
	var data interface{}

	switch appErr.Kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindConflict:
		status = http.StatusConflict
		if appErr.ExistingID != 0 {
			data = gin.H{"existing_statement_id": appErr.ExistingID}
		}
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindCollaboratorUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.KindPersistence:
		h.logger.Error("Persistence error", "error", err)
	}

	c.JSON(status, Response{
		Success: false,
		Data:    data,
		Error:   appErr.Message,
		Code:    appErr.Code,
	})
}

// toImportRequest converts the wire payload into the service request.
func toImportRequest(req *ImportStatementRequest) (*service.ImportRequest, error) {
	periodStart, err := parseDateField("period_start", req.PeriodStart)
	if err != nil {
		return nil, err
	}
	periodEnd, err := parseDateField("period_end", req.PeriodEnd)
	if err != nil {
		return nil, err
	}

	declaredTotal := decimal.Zero
	if req.DeclaredTotal != "" {
		declaredTotal, err = decimal.NewFromString(req.DeclaredTotal)
		if err != nil {
			return nil, apperrors.Validation("INVALID_AMOUNT", "declared_total is not a valid decimal")
		}
	}

	out := &service.ImportRequest{
		VendorID:        req.VendorID,
		VenueID:         req.VenueID,
		StatementNumber: req.StatementNumber,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		DeclaredTotal:   declaredTotal,
		ImportedBy:      req.ImportedBy,
		Lines:           make([]service.ImportLine, 0, len(req.Lines)),
	}

	for i, line := range req.Lines {
		date, err := parseDateField(fmt.Sprintf("lines[%d].date", i), line.Date)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			return nil, apperrors.Validation("INVALID_AMOUNT", fmt.Sprintf("lines[%d].amount is not a valid decimal", i))
		}
		out.Lines = append(out.Lines, service.ImportLine{
			LineDate:        date,
			Description:     line.Description,
			Amount:          amount,
			InvoiceNumber:   line.InvoiceNumber,
			ReferenceNumber: line.ReferenceNumber,
		})
	}
	return out, nil
}

func parseDateField(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.Validation("INVALID_DATE", fmt.Sprintf("%s must be YYYY-MM-DD", field))
	}
	return t, nil
}
