package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/services"
)

// AdvisoryHandler serves the AI advisory endpoints.
type AdvisoryHandler struct {
	advisoryService services.AdvisoryServicer
	reportService   services.ReportServicer
	auditService    services.AuditServicer
	enabled         bool
}

// NewAdvisoryHandler creates a new AdvisoryHandler. When enabled is
// false every model-backed endpoint returns 403.
func NewAdvisoryHandler(advisoryService services.AdvisoryServicer, reportService services.ReportServicer, auditService services.AuditServicer, enabled bool) *AdvisoryHandler {
	return &AdvisoryHandler{
		advisoryService: advisoryService,
		reportService:   reportService,
		auditService:    auditService,
		enabled:         enabled,
	}
}

// ChatRequest represents an advisory chat question.
type ChatRequest struct {
	Question string `json:"question" binding:"required,min=3,max=2000"`
}

// Chat answers a risk question and records the exchange
// @Summary     Ask the advisory assistant
// @Description Ask a risk question. The exchange is saved as a trade insight with a confidence level derived from the caller's risk band.
// @Tags        advisory
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChatRequest true "Question"
// @Success     200 {object} models.TradeInsight "Answer"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Advisory disabled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /advisory/chat [post]
func (h *AdvisoryHandler) Chat(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !h.enabled {
		respondWithError(c, apperrors.ErrAdvisoryDisabled)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	insight, err := h.advisoryService.Chat(c.Request.Context(), userID, req.Question)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"insight": insight})
}

// GetInsights returns a quick advisory snapshot
// @Summary     Get quick insights
// @Description Get a lightweight snapshot of OP trend, risk alert, and trade-frequency warning. No model call involved.
// @Tags        advisory
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.QuickInsights "Snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /advisory/insights [get]
func (h *AdvisoryHandler) GetInsights(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	insights, err := h.advisoryService.QuickInsights(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, insights)
}

// AnalyzeOP grades the caller's OP total
// @Summary     Analyze OP standing
// @Description Grade the caller's OP total into a trust tier and refresh the cached weighted score
// @Tags        advisory
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.OPAnalysis "Analysis"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /advisory/analysis [post]
func (h *AdvisoryHandler) AnalyzeOP(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	analysis, err := h.advisoryService.AnalyzeOP(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GenerateReport builds and downloads a risk report PDF
// @Summary     Generate a risk report
// @Description Generate an AI-assisted risk report PDF and download it. The report record tracks the true outcome of the pipeline.
// @Tags        advisory
// @Produce     application/pdf
// @Security    BearerAuth
// @Success     200 {string} binary "PDF file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Advisory disabled"
// @Failure     500 {object} ErrorResponse "Report generation failed"
// @Router      /advisory/report [post]
func (h *AdvisoryHandler) GenerateReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !h.enabled {
		respondWithError(c, apperrors.ErrAdvisoryDisabled)
		return
	}

	riskReport, document, err := h.reportService.GenerateRiskReport(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "GENERATE_RISK_REPORT", "risk_report", riskReport.ID, c.ClientIP(), nil)

	filename := fmt.Sprintf("risk-report-%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", document)
}
