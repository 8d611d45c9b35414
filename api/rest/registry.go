package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xploralabs/xplora/server/quest/catalog"
)

// AdminAuth guards the registry bootstrap with a deployment-scoped
// admin key. An empty configured key disables the endpoint entirely.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" || c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin key required"})
			return
		}
		c.Next()
	}
}

type RegistryHandler struct {
	catalogs *catalog.Service
}

func NewRegistryHandler(catalogs *catalog.Service) *RegistryHandler {
	return &RegistryHandler{catalogs: catalogs}
}

type initRegistryRequest struct {
	AuthorityID int64 `json:"authority_id" binding:"required"`
}

// Initialize creates the singleton registry, naming the authority
// account that may manage catalogs and validate submissions.
func (h *RegistryHandler) Initialize(c *gin.Context) {
	var req initRegistryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	reg, err := h.catalogs.InitializeRegistry(c.Request.Context(), req.AuthorityID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// Get returns the registry state.
func (h *RegistryHandler) Get(c *gin.Context) {
	reg, err := h.catalogs.Registry(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}
