package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
	"otcbook/internal/storage"
)

// userService handles user, desk, and team business logic.
type userService struct {
	db       *gorm.DB
	store    storage.Store
	points   PointsServicer
	notifier NotificationServicer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, store storage.Store, points PointsServicer, notifier NotificationServicer) UserServicer {
	return &userService{db: db, store: store, points: points, notifier: notifier}
}

// RegisterDeskOwner creates a desk owner account together with its
// workspace in one transaction.
func (s *userService) RegisterDeskOwner(fullName, email, password, workspace string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	if workspace == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "workspace name is required")
	}

	email = strings.ToLower(email)

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	s.db.Model(&models.Desk{}).Where("name = ?", workspace).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateDesk
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var user *models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		desk := &models.Desk{Name: workspace, KYCStatus: models.KYCStatusPending}
		if err := tx.Create(desk).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		user = &models.User{
			Email:    email,
			Password: string(hashedPassword),
			FullName: fullName,
			Role:     models.RoleDeskOwner,
			Plan:     models.PlanFree,
			DeskID:   &desk.ID,
			IsActive: true,
		}
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		user.Desk = desk
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// AttemptLogin checks credentials and account state.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}
	if user.IsBanned {
		return nil, apperrors.ErrAccountBanned
	}

	now := time.Now()
	if err := s.db.Model(user).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now

	return user, nil
}

// GetUserByEmail retrieves a user by email, including their desk.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Desk").Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID, including their desk.
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Desk").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// StoreRefreshTokenHash persists the SHA-256 digest of a user's refresh token.
func (s *userService) StoreRefreshTokenHash(userID uint, tokenHash string) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("refresh_token_hash", tokenHash).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token digest for a user.
func (s *userService) GetRefreshTokenHash(userID uint) (string, error) {
	var user models.User
	if err := s.db.Select("refresh_token_hash").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.RefreshTokenHash, nil
}

// AddTeamMember creates a new desk member under the owner's desk and
// returns the generated temporary password. The owner is awarded
// invite points for a successful referral.
func (s *userService) AddTeamMember(ownerID uint, email, fullName string, role models.Role) (*models.User, string, error) {
	owner, err := s.GetUserByID(ownerID)
	if err != nil {
		return nil, "", err
	}
	if owner.Role != models.RoleDeskOwner {
		return nil, "", apperrors.WithMessage(apperrors.ErrForbidden, "Only desk owners can add team members")
	}
	if owner.DeskID == nil {
		return nil, "", apperrors.ErrDeskNotFound
	}

	email = strings.ToLower(email)
	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, "", apperrors.ErrDuplicateEmail
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	member := &models.User{
		Email:    email,
		Password: string(hashedPassword),
		FullName: fullName,
		Role:     role,
		Plan:     owner.Plan,
		DeskID:   owner.DeskID,
		IsActive: true,
	}
	if err := s.db.Create(member).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	member.Desk = owner.Desk

	if err := s.points.AwardInvitePoints(ownerID); err != nil {
		// Referral points are best-effort; the member is already created.
		return member, tempPassword, nil
	}

	return member, tempPassword, nil
}

// SubmitKYC uploads the identity document to private storage and puts
// the desk back into pending review.
func (s *userService) SubmitKYC(ctx context.Context, ownerID uint, idCard []byte, filename, notes string) error {
	owner, err := s.GetUserByID(ownerID)
	if err != nil {
		return err
	}
	if owner.Role != models.RoleDeskOwner {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Only desk owners can submit KYC")
	}
	if owner.DeskID == nil {
		return apperrors.ErrDeskNotFound
	}
	if len(idCard) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "id_card file is required")
	}

	key := fmt.Sprintf("kyc/desk-%d/%s", *owner.DeskID, filename)
	url, err := s.store.Upload(ctx, key, idCard)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]any{
		"id_card_url": url,
		"kyc_status":  models.KYCStatusPending,
		"kyc_notes":   notes,
	}
	if err := s.db.Model(&models.Desk{}).Where("id = ?", *owner.DeskID).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.notifier.Notify(ownerID, models.NotificationTypeSystem,
		"KYC Submitted", "Your desk verification documents were received and are under review.", nil)

	return nil
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
