package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/services"
)

// GamificationHandler serves OP totals, point history, badges, and the
// leaderboard.
type GamificationHandler struct {
	pointsService services.PointsServicer
	badgeService  services.BadgeServicer
}

// NewGamificationHandler creates a new GamificationHandler.
func NewGamificationHandler(pointsService services.PointsServicer, badgeService services.BadgeServicer) *GamificationHandler {
	return &GamificationHandler{pointsService: pointsService, badgeService: badgeService}
}

// GetOP returns the caller's cumulative OP total
// @Summary     Get OP total
// @Description Get the caller's cumulative OP point total
// @Tags        gamification
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int "OP total"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /op [get]
func (h *GamificationHandler) GetOP(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.pointsService.TotalPoints(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total_op": total})
}

// GetOPHistory returns the caller's recent point events
// @Summary     Get OP history
// @Description Get the caller's most recent point events, newest first
// @Tags        gamification
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of events (default 20, max 100)"
// @Success     200 {object} map[string][]models.PointEvent "Point events"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /op/history [get]
func (h *GamificationHandler) GetOPHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, parseErr := strconv.Atoi(v)
		if parseErr != nil || parsed < 1 || parsed > 100 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}

	events, err := h.pointsService.RecentEvents(userID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetBadges returns the caller's unlocked badges
// @Summary     Get unlocked badges
// @Description Get the badges the caller has unlocked, most recent first
// @Tags        gamification
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.UserBadge "Unlocked badges"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /badges [get]
func (h *GamificationHandler) GetBadges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	badges, err := h.badgeService.GetUserBadges(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// GetLeaderboard returns the top OP earners
// @Summary     Get the OP leaderboard
// @Description Get the top 10 users ranked by cumulative OP points, optionally limited to the last 7 days
// @Tags        gamification
// @Produce     json
// @Security    BearerAuth
// @Param       window query string false "Set to 7d to rank by points earned in the last week"
// @Success     200 {object} map[string][]services.LeaderboardEntry "Leaderboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leaderboard [get]
func (h *GamificationHandler) GetLeaderboard(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	lastSevenDays := false
	switch c.Query("window") {
	case "":
	case "7d":
		lastSevenDays = true
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid window, only 7d is supported"))
		return
	}

	entries, err := h.pointsService.Leaderboard(lastSevenDays)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
