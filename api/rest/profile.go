package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xploralabs/xplora/server/middleware"
	"github.com/xploralabs/xplora/server/quest/profile"
)

type ProfileHandler struct {
	profiles *profile.Service
}

func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type initProfileRequest struct {
	Username string `json:"username" binding:"required"`
}

// Initialize creates the caller's progression record.
func (h *ProfileHandler) Initialize(c *gin.Context) {
	var req initProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := h.profiles.Initialize(c.Request.Context(), middleware.GetAccountID(c), req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get returns the caller's progression record.
func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
