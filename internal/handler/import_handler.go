package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/service"
	"bankrecon/pkg/logger"
	"bankrecon/pkg/response"
)

type ImportHandler struct {
	imports service.ImportService
}

func NewImportHandler(imports service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

type ImportRowRequest struct {
	ExternalRef string          `json:"external_ref" binding:"required"`
	Date        string          `json:"date" binding:"required"`
	ValueDate   string          `json:"value_date"`
	Amount      float64         `json:"amount" binding:"required"`
	Direction   string          `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	Description string          `json:"description"`
	Payer       string          `json:"payer"`
	Payee       string          `json:"payee"`
	Channel     string          `json:"channel"`
	RawPayload  json.RawMessage `json:"raw_payload"`
}

type ImportRequest struct {
	AccountID string             `json:"account_id" binding:"required"`
	Source    string             `json:"source" binding:"required"`
	Rows      []ImportRowRequest `json:"rows" binding:"required,min=1"`
}

// Import godoc
// @Summary Import statement rows
// @Description Import already-parsed statement rows into an account as an idempotent batch
// @Tags imports
// @Accept json
// @Produce json
// @Param request body ImportRequest true "Import request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/imports [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid import request")
		response.ValidationError(c, err.Error())
		return
	}

	rows := make([]domain.StatementRow, 0, len(req.Rows))
	for _, rowReq := range req.Rows {
		// Unparseable dates become zero times; the import service records them
		// as failed rows instead of rejecting the whole batch.
		date, _ := time.Parse("2006-01-02", rowReq.Date)
		var valueDate time.Time
		if rowReq.ValueDate != "" {
			valueDate, _ = time.Parse("2006-01-02", rowReq.ValueDate)
		}

		rows = append(rows, domain.StatementRow{
			ExternalRef: rowReq.ExternalRef,
			Date:        date,
			ValueDate:   valueDate,
			Amount:      decimal.NewFromFloat(rowReq.Amount),
			Direction:   domain.Direction(rowReq.Direction),
			Description: rowReq.Description,
			Payer:       rowReq.Payer,
			Payee:       rowReq.Payee,
			Channel:     rowReq.Channel,
			RawPayload:  rowReq.RawPayload,
		})
	}

	batch, err := h.imports.Import(c.Request.Context(), req.AccountID, req.Source, rows)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Import failed")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Import completed successfully", batch)
}

// GetBatch godoc
// @Summary Get import batch
// @Description Get an import batch with its row counters
// @Tags imports
// @Produce json
// @Param batch_id path string true "Batch ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/imports/{batch_id} [get]
func (h *ImportHandler) GetBatch(c *gin.Context) {
	batchID := c.Param("batch_id")

	batch, err := h.imports.GetBatch(batchID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Batch retrieved successfully", batch)
}
