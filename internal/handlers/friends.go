package handlers

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/services"
	"profile-service/internal/telemetry"
)

const defaultBrowseLimit = 25

type FriendHandler struct {
	friends *services.FriendService
	audit   auditor
	logger  *zap.Logger
}

func NewFriendHandler(friends *services.FriendService, audit *telemetry.AuditEmitter, logger *zap.Logger) *FriendHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FriendHandler{friends: friends, audit: auditor{emitter: audit}, logger: logger}
}

type browseQuery struct {
	Query  string `form:"query" binding:"max=100"`
	Offset *int   `form:"offset"`
	Limit  *int   `form:"limit"`
}

func (h *FriendHandler) Browse(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var q browseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	params := services.BrowseParams{Query: q.Query, Limit: defaultBrowseLimit}
	if q.Offset != nil {
		params.Offset = *q.Offset
	}
	if q.Limit != nil {
		params.Limit = *q.Limit
	}

	users, err := h.friends.Browse(c.Request.Context(), userID, params)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, users)
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id", "target user id")
	if !ok {
		return
	}

	req, err := h.friends.CreateRequest(c.Request.Context(), userID, targetID)
	if err != nil {
		h.audit.failure(c, err)
		writeError(c, h.logger, err)
		return
	}
	h.audit.info(c, "Friend request sent to '"+strconv.FormatInt(targetID, 10)+"'")
	c.JSON(nethttp.StatusCreated, req)
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	pending, err := h.friends.Pending(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, pending)
}

func (h *FriendHandler) Accept(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id", "request id")
	if !ok {
		return
	}

	req, err := h.friends.Accept(c.Request.Context(), requestID, userID)
	if err != nil {
		h.audit.failure(c, err)
		writeError(c, h.logger, err)
		return
	}
	h.audit.info(c, "Friend request accepted")
	c.JSON(nethttp.StatusOK, req)
}

func (h *FriendHandler) Decline(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id", "request id")
	if !ok {
		return
	}

	if err := h.friends.Decline(c.Request.Context(), requestID, userID); err != nil {
		h.audit.failure(c, err)
		writeError(c, h.logger, err)
		return
	}
	h.audit.info(c, "Friend request declined")
	c.JSON(nethttp.StatusOK, gin.H{"status": "declined"})
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	friends, err := h.friends.Friends(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, friends)
}

func (h *FriendHandler) Remove(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	otherID, ok := pathID(c, "id", "friend id")
	if !ok {
		return
	}

	if err := h.friends.Remove(c.Request.Context(), userID, otherID); err != nil {
		h.audit.failure(c, err)
		writeError(c, h.logger, err)
		return
	}
	h.audit.info(c, "Friend '"+strconv.FormatInt(otherID, 10)+"' removed")
	c.JSON(nethttp.StatusOK, gin.H{"status": "removed"})
}
