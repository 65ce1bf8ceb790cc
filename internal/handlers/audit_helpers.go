package handlers

import (
	"errors"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/middleware"
	"profile-service/internal/services"
	"profile-service/internal/telemetry"
)

func callerID(c *gin.Context) (int64, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}

func callerPtr(c *gin.Context) *int64 {
	if id, ok := middleware.GetUserID(c); ok {
		return &id
	}
	return nil
}

func pathID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid " + label})
		return 0, false
	}
	return id, true
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return nethttp.StatusNotFound
	case services.KindInvalidArgument, services.KindInvalidState:
		return nethttp.StatusBadRequest
	case services.KindConflict:
		return nethttp.StatusConflict
	case services.KindUnauthorized:
		return nethttp.StatusUnauthorized
	}
	return nethttp.StatusInternalServerError
}

// writeError maps a service error onto a status code. Unclassified errors are
// logged and answered with a generic body.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) && svcErr.Kind != services.KindInternal {
		c.JSON(statusFor(svcErr.Kind), gin.H{"error": svcErr.Message})
		return
	}
	logger.Error("request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// auditor forwards friend graph mutations to the audit log exchange.
type auditor struct {
	emitter *telemetry.AuditEmitter
}

func (a auditor) info(c *gin.Context, text string) {
	a.emitter.EmitAudit(c.Request.Context(), telemetry.LevelInfo, text, middleware.GetRequestID(c), callerPtr(c))
}

func (a auditor) failure(c *gin.Context, err error) {
	text := "internal error"
	var svcErr *services.Error
	if errors.As(err, &svcErr) && svcErr.Kind != services.KindInternal {
		text = svcErr.Message
	}
	a.emitter.EmitAudit(c.Request.Context(), telemetry.LevelError, text, middleware.GetRequestID(c), callerPtr(c))
}
