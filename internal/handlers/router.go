package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"profile-service/internal/auth"
	"profile-service/internal/middleware"
	"profile-service/internal/services"
	"profile-service/internal/telemetry"
)

type RouterDeps struct {
	Users    *services.UserService
	Badges   *services.BadgeService
	Friends  *services.FriendService
	Verifier auth.Verifier
	Audit    *telemetry.AuditEmitter
	Logger   *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.Metrics("/metrics", "/healthz"),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	badges := NewBadgeHandler(deps.Badges, deps.Users, logger)
	friends := NewFriendHandler(deps.Friends, deps.Audit, logger)
	users := NewUserHandler(deps.Users, logger)

	r.GET("/badges", badges.Catalog)

	authed := r.Group("/users")
	authed.Use(middleware.Auth(deps.Verifier, deps.Users, logger))
	{
		authed.GET("/me/badges", badges.Mine)
		authed.POST("/me/badges/:code", badges.Award)
		authed.GET("/:id/badges", badges.OfUser)

		authed.GET("/browse", friends.Browse)
		authed.POST("/friends/request/:id", friends.SendRequest)
		authed.POST("/friends/request/:id/accept", friends.Accept)
		authed.POST("/friends/request/:id/decline", friends.Decline)
		authed.GET("/me/friends/requests", friends.ListRequests)
		authed.GET("/me/friends", friends.ListFriends)
		authed.DELETE("/friends/:id", friends.Remove)

		authed.GET("/me/coins", users.GetCoins)
		authed.PUT("/me/coins", users.SetCoins)
		authed.POST("/me/coins/increment", users.IncrementCoins)
		authed.GET("/me/owned-items", users.OwnedItems)
		authed.POST("/me/owned-items", users.AddOwnedItem)

		authed.GET("/me/profile", users.GetProfile)
		authed.PUT("/me/profile", users.UpdateProfile)
		authed.GET("/:id/profile", users.PublicProfile)

		authed.GET("/me/bio", users.getField(bioField))
		authed.PUT("/me/bio", users.putField(bioField))
		authed.GET("/me/display-name", users.getField(displayNameField))
		authed.PUT("/me/display-name", users.putField(displayNameField))
		authed.GET("/me/profile-background", users.getField(backgroundField))
		authed.PUT("/me/profile-background", users.putField(backgroundField))
		authed.GET("/me/showcased-badges", users.getField(showcaseField))
		authed.PUT("/me/showcased-badges", users.putField(showcaseField))
	}

	return r
}
