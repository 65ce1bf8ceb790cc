package handlers

import (
	nethttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/models"
	"profile-service/internal/services"
)

type BadgeHandler struct {
	badges *services.BadgeService
	users  *services.UserService
	logger *zap.Logger
}

func NewBadgeHandler(badges *services.BadgeService, users *services.UserService, logger *zap.Logger) *BadgeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeHandler{badges: badges, users: users, logger: logger}
}

type badgeResponse struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func toBadgeResponse(b models.Badge) badgeResponse {
	return badgeResponse{Code: b.Code, Name: b.Name, Description: b.Description}
}

func earnedResponse(earned []models.EarnedBadge) []badgeResponse {
	resp := make([]badgeResponse, 0, len(earned))
	for _, e := range earned {
		resp = append(resp, toBadgeResponse(e.Badge))
	}
	return resp
}

// Catalog is public.
func (h *BadgeHandler) Catalog(c *gin.Context) {
	catalog, err := h.badges.Catalog(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	resp := make([]badgeResponse, 0, len(catalog))
	for _, b := range catalog {
		resp = append(resp, toBadgeResponse(b))
	}
	c.JSON(nethttp.StatusOK, resp)
}

func (h *BadgeHandler) Mine(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	earned, err := h.badges.Earned(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, earnedResponse(earned))
}

func (h *BadgeHandler) OfUser(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	userID, ok := pathID(c, "id", "user id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.GetUser(ctx, userID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	earned, err := h.badges.Earned(ctx, userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, earnedResponse(earned))
}

func (h *BadgeHandler) Award(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	code := strings.TrimSpace(c.Param("code"))
	result, err := h.badges.Award(c.Request.Context(), userID, code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, result)
}
