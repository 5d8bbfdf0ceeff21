package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/logger"
	"otcbook/internal/models"
	"otcbook/internal/report"
	"otcbook/internal/storage"
)

// reportService assembles AI-assisted risk report PDFs.
type reportService struct {
	db       *gorm.DB
	advisory AdvisoryServicer
	points   PointsServicer
	store    storage.Store
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, advisory AdvisoryServicer, points PointsServicer, store storage.Store) ReportServicer {
	return &reportService{
		db:       db,
		advisory: advisory,
		points:   points,
		store:    store,
	}
}

// GenerateRiskReport runs the full report pipeline for a user: OP total,
// risk band, AI summary, PDF render, and upload. The persisted status
// always matches the outcome. Only ready after render and upload both
// succeed. An AI failure degrades the summary but never fails the
// report; a render or upload failure marks the report failed and the
// error is returned. The points ledger is never touched.
func (s *reportService) GenerateRiskReport(ctx context.Context, userID uint) (*models.RiskReport, []byte, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrUserNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total, err := s.points.TotalPoints(userID)
	if err != nil {
		return nil, nil, err
	}
	band := BandForPoints(total)

	summary := s.advisory.Ask(ctx, riskSummaryPrompt(total, band))

	riskReport := &models.RiskReport{
		UserID:    userID,
		Status:    models.ReportStatusGenerating,
		RiskLevel: band.RiskLevel,
		TotalOP:   total,
		AISummary: summary,
	}
	if err := s.db.Create(riskReport).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	document, err := report.RenderRiskReport(report.RiskReportData{
		UserEmail: user.Email,
		TotalOP:   total,
		RiskLevel: band.Label,
		AISummary: summary,
	})
	if err != nil {
		s.markFailed(riskReport)
		return nil, nil, apperrors.Wrap(apperrors.ErrReportFailed, err)
	}

	key := fmt.Sprintf("reports/user-%d/risk-report-%d.pdf", userID, time.Now().Unix())
	url, err := s.store.Upload(ctx, key, document)
	if err != nil {
		s.markFailed(riskReport)
		return nil, nil, apperrors.Wrap(apperrors.ErrReportFailed, err)
	}

	riskReport.Status = models.ReportStatusReady
	riskReport.DocumentURL = url
	if err := s.db.Model(riskReport).Updates(map[string]interface{}{
		"status":       models.ReportStatusReady,
		"document_url": url,
	}).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return riskReport, document, nil
}

func (s *reportService) markFailed(riskReport *models.RiskReport) {
	riskReport.Status = models.ReportStatusFailed
	if err := s.db.Model(riskReport).UpdateColumn("status", models.ReportStatusFailed).Error; err != nil {
		logger.Get().Errorw("failed to mark risk report as failed",
			"error", err, "report_id", riskReport.ID)
	}
}

func riskSummaryPrompt(totalOP int, band RiskBand) string {
	return fmt.Sprintf(
		"Write a short risk summary for an OTC trader with %d OP points, currently in the %s band. "+
			"Cover what the band means for counterparty trust and what the trader can do to improve.",
		totalOP, band.RiskLevel)
}
