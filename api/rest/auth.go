package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/config"
	"github.com/xploralabs/xplora/server/middleware"
	"github.com/xploralabs/xplora/server/model"
)

// AuthHandler serves login, logout, and token refresh. Login
// auto-registers unknown usernames so a new explorer needs a single
// call to get started.
type AuthHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

func NewAuthHandler(gdb *gorm.DB, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: gdb, cache: c, sec: sec, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
}

type loginResponse struct {
	Token     string `json:"token"`
	AccountID int64  `json:"account_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login authenticates an account, creating it on first use.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var acc model.Account
	err := h.db.Where("username = ?", req.Username).First(&acc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		acc = model.Account{Username: req.Username, PasswordHash: string(hash)}
		if err := h.db.Create(&acc).Error; err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
			return
		}
		h.logger.Info("account registered", zap.Int64("account_id", acc.ID), zap.String("username", acc.Username))
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	default:
		if acc.Status == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
			return
		}
	}

	token, err := middleware.GenerateToken(acc.ID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if err := h.cache.Set(c.Request.Context(), "session:"+token, "1", h.sec.JWTTTLH); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	now := time.Now()
	h.db.Model(&acc).Updates(map[string]any{
		"last_login_at": &now,
		"last_login_ip": c.ClientIP(),
	})

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		AccountID: acc.ID,
		ExpiresIn: int64(h.sec.JWTTTLH.Seconds()),
	})
}

// Logout invalidates the current session token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token != "" {
		_ = h.cache.Del(c.Request.Context(), "session:"+token)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh issues a fresh token and retires the old session.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	token, err := middleware.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if err := h.cache.Set(c.Request.Context(), "session:"+token, "1", h.sec.JWTTTLH); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if old := bearerToken(c); old != "" {
		_ = h.cache.Del(c.Request.Context(), "session:"+old)
	}
	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		AccountID: accountID,
		ExpiresIn: int64(h.sec.JWTTTLH.Seconds()),
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
