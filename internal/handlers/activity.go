package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/dto"
	apierrors "github.com/taskboard/taskboard-api/internal/errors"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/services"
	"github.com/taskboard/taskboard-api/internal/utils"
)

// ActivityHandler exposes the activity ledger read endpoints.
type ActivityHandler struct {
	activityService *services.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// ListActivity returns a filtered, paginated page of ledger entries.
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetLimitSkipParams(c, constants.DefaultActivityLimit, constants.MaxActivityLimit)

	input := services.ListActivityInput{
		TargetType: c.Query("targetType"),
		Limit:      params.Limit,
		Skip:       params.Skip,
	}

	if actorStr := c.Query("actorId"); actorStr != "" {
		actorID, err := strconv.ParseUint(actorStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid actorId")
			return
		}
		input.ActorID = &actorID
	}

	page, err := h.activityService.List(user, input)
	if err != nil {
		respondActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityListResponse(page.Logs, page.Total, page.HasMore))
}

// RecentActivity returns the newest entries for the dashboard feed.
func (h *ActivityHandler) RecentActivity(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	limit := constants.DefaultRecentLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err == nil && parsed > 0 && parsed <= constants.MaxActivityLimit {
			limit = parsed
		}
	}

	logs, err := h.activityService.Recent(user, limit)
	if err != nil {
		respondActivityError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRecentActivityDTOs(logs))
}

func respondActivityError(c *gin.Context, err error) {
	var authzErr *services.AuthorizationError
	switch {
	case errors.As(err, &authzErr):
		apierrors.ForbiddenWithRoles(c, authzErr.Reason, authzErr.RequiredRoles, authzErr.UserRole)
	case errors.Is(err, services.ErrInvalidTargetType):
		apierrors.BadRequest(c, "Invalid target type")
	default:
		apierrors.InternalError(c, "")
	}
}
