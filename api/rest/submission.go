package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xploralabs/xplora/server/audit"
	"github.com/xploralabs/xplora/server/middleware"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/ranking"
	"github.com/xploralabs/xplora/server/quest/submission"
)

type SubmissionHandler struct {
	submissions *submission.Service
	rankings    *ranking.Service
	audits      *audit.Service
}

func NewSubmissionHandler(submissions *submission.Service, rankings *ranking.Service, audits *audit.Service) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, rankings: rankings, audits: audits}
}

type submitRequest struct {
	Location    string `json:"location" binding:"required"`
	QuestIndex  int    `json:"quest_index"`
	ProofHash   string `json:"proof_hash" binding:"required"`
	Description string `json:"description"`
}

// Submit records a proof-of-completion claim for the caller.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sub, err := h.submissions.Submit(c.Request.Context(), submission.SubmitInput{
		UserID:      middleware.GetAccountID(c),
		Location:    req.Location,
		QuestIndex:  req.QuestIndex,
		ProofHash:   req.ProofHash,
		Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// List returns submissions, filterable by user, location, and status.
func (h *SubmissionHandler) List(c *gin.Context) {
	var f submission.ListFilter
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		f.UserID = id
	}
	f.Location = c.Query("location")
	if v := c.Query("status"); v != "" {
		status, err := strconv.Atoi(v)
		if err != nil || status < model.SubmissionPending || status > model.SubmissionRejected {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		f.Status = &status
	}
	subs, err := h.submissions.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

// Get returns one submission.
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	sub, err := h.submissions.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Approve validates a pending submission and grants its reward.
func (h *SubmissionHandler) Approve(c *gin.Context) {
	start := time.Now()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	validatorID := middleware.GetAccountID(c)
	sub, prof, err := h.submissions.Approve(c.Request.Context(), validatorID, id)
	h.recordAudit(c, "submission.approve", id, nil, err, start)
	if err != nil {
		fail(c, err)
		return
	}
	h.rankings.Record(c.Request.Context(), prof)
	c.JSON(http.StatusOK, gin.H{"submission": sub, "profile": prof})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject marks a pending submission rejected.
func (h *SubmissionHandler) Reject(c *gin.Context) {
	start := time.Now()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sub, err := h.submissions.Reject(c.Request.Context(), middleware.GetAccountID(c), id, req.Reason)
	h.recordAudit(c, "submission.reject", id, req, err, start)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubmissionHandler) recordAudit(c *gin.Context, action string, subID int64, req any, err error, start time.Time) {
	actorID := middleware.GetAccountID(c)
	h.audits.Record(audit.Entry{
		TraceID:  middleware.GetTraceID(c),
		ActorID:  &actorID,
		Action:   action,
		Location: "submission:" + strconv.FormatInt(subID, 10),
		Request:  req,
		Err:      err,
		IP:       c.ClientIP(),
		Duration: time.Since(start),
	})
}

func submissionIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return 0, false
	}
	return id, true
}
