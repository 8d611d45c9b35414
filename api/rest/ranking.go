package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xploralabs/xplora/server/quest/ranking"
)

const maxRankingLimit = 100

type RankingHandler struct {
	rankings *ranking.Service
}

func NewRankingHandler(rankings *ranking.Service) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// XP returns the experience leaderboard.
func (h *RankingHandler) XP(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRankingLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	entries, err := h.rankings.Top(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}
