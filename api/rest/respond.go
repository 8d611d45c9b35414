package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xploralabs/xplora/server/quest/policy"
)

// fail translates a service error into an HTTP response. Domain errors
// map by class; state errors that mean "no such record" become 404,
// the rest 409. Anything else is an internal error.
func fail(c *gin.Context, err error) {
	var derr *policy.Error
	if !errors.As(err, &derr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch derr.Class {
	case policy.ClassValidation:
		status = http.StatusBadRequest
	case policy.ClassAuthorization:
		status = http.StatusForbidden
	case policy.ClassState:
		if isNotFound(derr) {
			status = http.StatusNotFound
		} else {
			status = http.StatusConflict
		}
	case policy.ClassArithmetic:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": derr.Code, "message": derr.Message})
}

func isNotFound(err *policy.Error) bool {
	switch err {
	case policy.ErrLocationNotFound,
		policy.ErrProfileNotFound,
		policy.ErrSubmissionNotFound,
		policy.ErrNotInitialized:
		return true
	}
	return false
}
