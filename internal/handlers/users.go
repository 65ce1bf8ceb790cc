package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/models"
	"profile-service/internal/services"
)

type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: users, logger: logger}
}

type coinsResponse struct {
	Coins int64 `json:"coins"`
}

type incrementCoinsBody struct {
	Amount *int64 `json:"amount" binding:"required"`
}

type setCoinsBody struct {
	Coins *int64 `json:"coins" binding:"required"`
}

type addOwnedItemBody struct {
	ItemID string `json:"item_id" binding:"required,min=1,max=100"`
}

func (h *UserHandler) GetCoins(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	coins, err := h.users.Coins(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, coinsResponse{Coins: coins})
}

func (h *UserHandler) IncrementCoins(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var body incrementCoinsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	coins, err := h.users.IncrementCoins(c.Request.Context(), userID, *body.Amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, coinsResponse{Coins: coins})
}

func (h *UserHandler) SetCoins(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var body setCoinsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	coins, err := h.users.SetCoins(c.Request.Context(), userID, *body.Coins)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, coinsResponse{Coins: coins})
}

func (h *UserHandler) OwnedItems(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	items, err := h.users.OwnedItems(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, items)
}

// AddOwnedItem answers 200 whether the item was new or already owned.
func (h *UserHandler) AddOwnedItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var body addOwnedItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	item, _, err := h.users.AddOwnedItem(c.Request.Context(), userID, body.ItemID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, item)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	profile, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, profile)
}

func (h *UserHandler) PublicProfile(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	userID, ok := pathID(c, "id", "user id")
	if !ok {
		return
	}
	summary, err := h.users.PublicProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(nethttp.StatusOK, summary)
}

// profileField exposes one column of the profile as GET and PUT handlers
// speaking {"<json>": value}.
type profileField struct {
	json   string
	max    int
	get    func(models.Profile) *string
	update func(*string) models.ProfileUpdate
}

var (
	bioField = profileField{
		json:   "bio",
		max:    500,
		get:    func(p models.Profile) *string { return p.Bio },
		update: func(v *string) models.ProfileUpdate { return models.ProfileUpdate{Bio: v} },
	}
	displayNameField = profileField{
		json:   "display_name",
		max:    50,
		get:    func(p models.Profile) *string { return p.DisplayName },
		update: func(v *string) models.ProfileUpdate { return models.ProfileUpdate{DisplayName: v} },
	}
	backgroundField = profileField{
		json:   "profile_background",
		max:    100,
		get:    func(p models.Profile) *string { return p.ProfileBackground },
		update: func(v *string) models.ProfileUpdate { return models.ProfileUpdate{ProfileBackground: v} },
	}
	showcaseField = profileField{
		json:   "showcased_badges",
		max:    200,
		get:    func(p models.Profile) *string { return p.ShowcasedBadges },
		update: func(v *string) models.ProfileUpdate { return models.ProfileUpdate{ShowcasedBadges: v} },
	}
)

func (h *UserHandler) getField(f profileField) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		profile, err := h.users.Profile(c.Request.Context(), userID)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(nethttp.StatusOK, gin.H{f.json: f.get(*profile)})
	}
}

func (h *UserHandler) putField(f profileField) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var body map[string]*string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		value, present := body[f.json]
		if !present || value == nil {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": f.json + " is required"})
			return
		}
		if len([]rune(*value)) > f.max {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": f.json + " is too long"})
			return
		}

		profile, err := h.users.UpdateProfile(c.Request.Context(), userID, f.update(value))
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(nethttp.StatusOK, gin.H{f.json: f.get(*profile)})
	}
}
