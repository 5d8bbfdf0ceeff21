package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
)

func setupDeskRouter(handler *DeskHandler) *gin.Engine {
	r := gin.New()
	r.POST("/kyc", injectUserID(1), handler.SubmitKYC)
	r.POST("/team", injectUserID(1), handler.AddTeamMember)
	return r
}

func doMultipartRequest(t *testing.T, r *gin.Engine, path string, fields map[string]string, fileField, filename string, file []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeskHandler_SubmitKYC(t *testing.T) {
	t.Run("returns 202 on success", func(t *testing.T) {
		var gotFilename, gotNotes string
		var gotDoc []byte
		userSvc := &mockUserService{
			submitKYCFn: func(_ context.Context, _ uint, idCard []byte, filename, notes string) error {
				gotDoc = idCard
				gotFilename = filename
				gotNotes = notes
				return nil
			},
		}
		handler := NewDeskHandler(userSvc, &mockAuditService{})
		r := setupDeskRouter(handler)

		rec := doMultipartRequest(t, r, "/kyc",
			map[string]string{"notes": "first submission"}, "id_card", "passport.jpg", []byte("fake-image"))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["status"] != "pending" {
			t.Errorf("expected pending status, got %v", result["status"])
		}
		if string(gotDoc) != "fake-image" {
			t.Errorf("unexpected document bytes: %q", gotDoc)
		}
		if gotFilename != "passport.jpg" || gotNotes != "first submission" {
			t.Errorf("unexpected filename/notes: %q / %q", gotFilename, gotNotes)
		}
	})

	t.Run("returns 400 without file", func(t *testing.T) {
		handler := NewDeskHandler(&mockUserService{}, &mockAuditService{})
		r := setupDeskRouter(handler)

		rec := doMultipartRequest(t, r, "/kyc", map[string]string{"notes": "no file"}, "", "", nil)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 403 for non-owner", func(t *testing.T) {
		userSvc := &mockUserService{
			submitKYCFn: func(_ context.Context, _ uint, _ []byte, _, _ string) error {
				return apperrors.ErrForbidden
			},
		}
		handler := NewDeskHandler(userSvc, &mockAuditService{})
		r := setupDeskRouter(handler)

		rec := doMultipartRequest(t, r, "/kyc", nil, "id_card", "passport.jpg", []byte("doc"))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestDeskHandler_AddTeamMember(t *testing.T) {
	t.Run("returns 201 with temp password", func(t *testing.T) {
		userSvc := &mockUserService{
			addTeamMemberFn: func(_ uint, email, fullName string, role models.Role) (*models.User, string, error) {
				return &models.User{
					Base:     models.Base{ID: 2},
					Email:    email,
					FullName: fullName,
					Role:     role,
				}, "temp-secret", nil
			},
		}
		handler := NewDeskHandler(userSvc, &mockAuditService{})
		r := setupDeskRouter(handler)

		rec := doRequest(r, "POST", "/team",
			`{"email":"new@example.com","full_name":"Mark Lim","role":"trader"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["temp_password"] != "temp-secret" {
			t.Errorf("expected temp password in response, got %v", result["temp_password"])
		}
		member := result["member"].(map[string]interface{})
		if member["role"] != "trader" {
			t.Errorf("expected trader role, got %v", member["role"])
		}
	})

	t.Run("returns 400 on invalid role", func(t *testing.T) {
		handler := NewDeskHandler(&mockUserService{}, &mockAuditService{})
		r := setupDeskRouter(handler)

		rec := doRequest(r, "POST", "/team",
			`{"email":"new@example.com","full_name":"Mark","role":"superadmin"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			addTeamMemberFn: func(_ uint, _, _ string, _ models.Role) (*models.User, string, error) {
				return nil, "", apperrors.ErrDuplicateEmail
			},
		}
		handler := NewDeskHandler(userSvc, &mockAuditService{})
		r := setupDeskRouter(handler)

		rec := doRequest(r, "POST", "/team",
			`{"email":"dup@example.com","full_name":"Mark","role":"trader"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}
