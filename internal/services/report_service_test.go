package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"otcbook/internal/models"
	"otcbook/internal/storage"
	"otcbook/internal/testutil"
)

// mockStore is a scriptable storage.Store.
type mockStore struct {
	uploadFn func(ctx context.Context, key string, data []byte) (string, error)
}

func (m *mockStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, data)
	}
	return "https://store.test/" + key, nil
}

var _ storage.Store = (*mockStore)(nil)

func newReportTestStack(db *gorm.DB, completer *mockCompleter, store storage.Store) ReportServicer {
	points := newPointsTestStack(db)
	advisory := NewAdvisoryService(db, completer, points, 2000, 8000)
	return NewReportService(db, advisory, points, store)
}

func TestGenerateRiskReport(t *testing.T) {
	t.Run("ready_after_render_and_upload", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPointEvent(t, db, user.ID, models.PointActionTradeLogged, 120)

		var uploadedKey string
		store := &mockStore{
			uploadFn: func(_ context.Context, key string, data []byte) (string, error) {
				uploadedKey = key
				if len(data) == 0 {
					t.Error("expected rendered document bytes")
				}
				return "https://store.test/" + key, nil
			},
		}
		svc := newReportTestStack(db, &mockCompleter{}, store)

		riskReport, document, err := svc.GenerateRiskReport(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		if riskReport.Status != models.ReportStatusReady {
			t.Errorf("expected ready status, got %s", riskReport.Status)
		}
		if riskReport.DocumentURL != "https://store.test/"+uploadedKey {
			t.Errorf("unexpected document URL: %q", riskReport.DocumentURL)
		}
		if riskReport.RiskLevel != RiskLevelModerate {
			t.Errorf("expected moderate band at 120 OP, got %s", riskReport.RiskLevel)
		}
		if riskReport.TotalOP != 120 {
			t.Errorf("expected 120 OP snapshot, got %d", riskReport.TotalOP)
		}
		if !bytes.HasPrefix(document, []byte("%PDF")) {
			t.Error("expected a PDF document")
		}

		var stored models.RiskReport
		testutil.AssertNoError(t, db.First(&stored, riskReport.ID).Error)
		if stored.Status != models.ReportStatusReady {
			t.Errorf("expected persisted ready status, got %s", stored.Status)
		}
	})

	t.Run("failed_persisted_on_upload_error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)

		store := &mockStore{
			uploadFn: func(_ context.Context, _ string, _ []byte) (string, error) {
				return "", errors.New("bucket unreachable")
			},
		}
		svc := newReportTestStack(db, &mockCompleter{}, store)

		_, _, err := svc.GenerateRiskReport(context.Background(), user.ID)
		testutil.AssertAppError(t, err, "REPORT_FAILED")

		var stored models.RiskReport
		testutil.AssertNoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
		if stored.Status != models.ReportStatusFailed {
			t.Errorf("expected persisted failed status, got %s", stored.Status)
		}
		if stored.DocumentURL != "" {
			t.Errorf("expected no document URL, got %q", stored.DocumentURL)
		}
	})

	t.Run("ai_failure_degrades_to_fallback", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)

		completer := &mockCompleter{
			completeFn: func(_ context.Context, _, _ string) (string, error) {
				return "", errors.New("model unreachable")
			},
		}
		svc := newReportTestStack(db, completer, &mockStore{})

		riskReport, _, err := svc.GenerateRiskReport(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		if riskReport.Status != models.ReportStatusReady {
			t.Errorf("expected ready status despite AI failure, got %s", riskReport.Status)
		}
		if riskReport.AISummary != fallbackResponse {
			t.Errorf("expected fallback summary, got %q", riskReport.AISummary)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newReportTestStack(db, &mockCompleter{}, &mockStore{})

		_, _, err := svc.GenerateRiskReport(context.Background(), 9999)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("never_touches_the_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPointEvent(t, db, user.ID, models.PointActionTradeLogged, 10)
		svc := newReportTestStack(db, &mockCompleter{}, &mockStore{})

		_, _, err := svc.GenerateRiskReport(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		var count int64
		testutil.AssertNoError(t, db.Model(&models.PointEvent{}).Where("user_id = ?", user.ID).Count(&count).Error)
		if count != 1 {
			t.Errorf("expected the ledger untouched, got %d events", count)
		}
	})
}
