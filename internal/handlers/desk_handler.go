package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
	"otcbook/internal/services"
)

// maxIDCardBytes caps KYC document uploads at 5 MiB.
const maxIDCardBytes = 5 << 20

// DeskHandler handles desk KYC and team management requests.
type DeskHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewDeskHandler creates a new DeskHandler.
func NewDeskHandler(userService services.UserServicer, auditService services.AuditServicer) *DeskHandler {
	return &DeskHandler{userService: userService, auditService: auditService}
}

// AddTeamMemberRequest represents the payload for adding a desk member.
type AddTeamMemberRequest struct {
	Email    string      `json:"email" binding:"required,email,max=255"`
	FullName string      `json:"full_name" binding:"required,max=100"`
	Role     models.Role `json:"role" binding:"required,desk_role"`
}

// SubmitKYC handles the desk owner's KYC document submission
// @Summary     Submit KYC documents
// @Description Upload an ID card for desk verification. Resets the desk's KYC status to pending.
// @Tags        desk
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id_card formData file   true  "ID card image or PDF"
// @Param       notes   formData string false "Notes for the reviewer"
// @Success     202 {object} map[string]string "KYC submitted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a desk owner"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /kyc [post]
func (h *DeskHandler) SubmitKYC(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("id_card")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "id_card file is required"))
		return
	}
	if fileHeader.Size > maxIDCardBytes {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "id_card exceeds the 5MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	idCard, err := io.ReadAll(io.LimitReader(file, maxIDCardBytes))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	notes := c.PostForm("notes")
	if err := h.userService.SubmitKYC(c.Request.Context(), userID, idCard, fileHeader.Filename, notes); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SUBMIT_KYC", "desk", 0, c.ClientIP(), nil)

	c.JSON(http.StatusAccepted, gin.H{"status": "pending", "message": "KYC documents submitted for review"})
}

// AddTeamMember handles adding a member to the owner's desk
// @Summary     Add a team member
// @Description Add a member to the caller's desk with a generated temporary password
// @Tags        desk
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddTeamMemberRequest true "New member details"
// @Success     201 {object} UserResponse "Member created, temp password included once"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a desk owner"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /team [post]
func (h *DeskHandler) AddTeamMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, tempPassword, err := h.userService.AddTeamMember(userID, req.Email, req.FullName, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_TEAM_MEMBER", "user", member.ID, c.ClientIP(),
		map[string]interface{}{"email": req.Email, "role": req.Role})

	c.JSON(http.StatusCreated, gin.H{
		"member": gin.H{
			"id":        member.ID,
			"email":     member.Email,
			"full_name": member.FullName,
			"role":      member.Role,
		},
		"temp_password": tempPassword,
	})
}
