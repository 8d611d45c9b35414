package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xploralabs/xplora/server/audit"
	"github.com/xploralabs/xplora/server/middleware"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/catalog"
)

type CatalogHandler struct {
	catalogs *catalog.Service
	audits   *audit.Service
}

func NewCatalogHandler(catalogs *catalog.Service, audits *audit.Service) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs, audits: audits}
}

// questPayload mirrors model.Quest minus the server-assigned fields.
type questPayload struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Type               string  `json:"quest_type"`
	Difficulty         string  `json:"difficulty"`
	TimeToLiveHours    int     `json:"time_to_live_hours"`
	VerifiableLandmark string  `json:"verifiable_landmark"`
	LandmarkName       string  `json:"landmark_name"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
}

func (p questPayload) toModel() model.Quest {
	return model.Quest{
		Title:              p.Title,
		Description:        p.Description,
		Type:               model.QuestType(p.Type),
		Difficulty:         model.Difficulty(p.Difficulty),
		TimeToLiveHours:    p.TimeToLiveHours,
		VerifiableLandmark: p.VerifiableLandmark,
		LandmarkName:       p.LandmarkName,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
	}
}

type createCatalogRequest struct {
	Location string         `json:"location" binding:"required"`
	Quests   []questPayload `json:"quests" binding:"required"`
}

func (h *CatalogHandler) record(c *gin.Context, action, location string, questIndex *int, req any, err error, start time.Time) {
	actorID := middleware.GetAccountID(c)
	h.audits.Record(audit.Entry{
		TraceID:    middleware.GetTraceID(c),
		ActorID:    &actorID,
		Action:     action,
		Location:   location,
		QuestIndex: questIndex,
		Request:    req,
		Err:        err,
		IP:         c.ClientIP(),
		Duration:   time.Since(start),
	})
}

// Create publishes a catalog of quests for a new location.
func (h *CatalogHandler) Create(c *gin.Context) {
	start := time.Now()
	var req createCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	quests := make([]model.Quest, len(req.Quests))
	for i, q := range req.Quests {
		quests[i] = q.toModel()
	}
	cat, err := h.catalogs.Create(c.Request.Context(), middleware.GetAccountID(c), req.Location, quests)
	h.record(c, "catalog.create", req.Location, nil, req, err, start)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// Get returns a location's catalog with its decoded quest list.
func (h *CatalogHandler) Get(c *gin.Context) {
	location := c.Param("location")
	cat, quests, err := h.catalogs.Get(c.Request.Context(), location)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         cat.ID,
		"location":   cat.Location,
		"quests":     quests,
		"created_at": cat.CreatedAt,
		"updated_at": cat.UpdatedAt,
	})
}

// AddQuest appends one quest to an existing catalog.
func (h *CatalogHandler) AddQuest(c *gin.Context) {
	start := time.Now()
	location := c.Param("location")
	var req questPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cat, err := h.catalogs.AddQuest(c.Request.Context(), middleware.GetAccountID(c), location, req.toModel())
	h.record(c, "catalog.add_quest", location, nil, req, err, start)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func questIndexParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest index"})
		return 0, false
	}
	return idx, true
}

// UpdateQuest replaces the quest at an index.
func (h *CatalogHandler) UpdateQuest(c *gin.Context) {
	start := time.Now()
	location := c.Param("location")
	idx, ok := questIndexParam(c)
	if !ok {
		return
	}
	var req questPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cat, err := h.catalogs.UpdateQuest(c.Request.Context(), middleware.GetAccountID(c), location, idx, req.toModel())
	h.record(c, "catalog.update_quest", location, &idx, req, err, start)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// DeleteQuest removes the quest at an index.
func (h *CatalogHandler) DeleteQuest(c *gin.Context) {
	start := time.Now()
	location := c.Param("location")
	idx, ok := questIndexParam(c)
	if !ok {
		return
	}
	cat, err := h.catalogs.DeleteQuest(c.Request.Context(), middleware.GetAccountID(c), location, idx)
	h.record(c, "catalog.delete_quest", location, &idx, nil, err, start)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}
