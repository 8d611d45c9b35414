// Package policy holds the shared field-bounds checks, authorization
// predicates, and the domain error taxonomy used by the catalog,
// profile, and submission services.
package policy

import "math"

// Class groups domain errors for transport mapping.
type Class string

const (
	ClassValidation    Class = "validation"
	ClassState         Class = "state"
	ClassAuthorization Class = "authorization"
	ClassArithmetic    Class = "arithmetic"
)

// Error is a domain error with a stable machine code and a class.
// Services return these unchanged; the REST layer maps Class to an
// HTTP status and serializes Code + Message.
type Error struct {
	Code    string
	Class   Class
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func validation(code, msg string) *Error {
	return &Error{Code: code, Class: ClassValidation, Message: msg}
}

func state(code, msg string) *Error {
	return &Error{Code: code, Class: ClassState, Message: msg}
}

// Validation errors: bad field bounds.
var (
	ErrInvalidLocation     = validation("invalid_location", "location must be 1 to 64 characters")
	ErrInvalidTitle        = validation("invalid_title", "title must be 1 to 32 characters")
	ErrInvalidDescription  = validation("invalid_description", "description exceeds allowed length or is empty")
	ErrInvalidLandmark     = validation("invalid_landmark", "verifiable landmark must be 1 to 64 characters")
	ErrInvalidLandmarkName = validation("invalid_landmark_name", "landmark name must be 1 to 32 characters")
	ErrInvalidLatitude     = validation("invalid_latitude", "latitude must be between 26.0 and 31.0")
	ErrInvalidLongitude    = validation("invalid_longitude", "longitude must be between 80.0 and 89.0")
	ErrInvalidTimeToLive   = validation("invalid_time_to_live", "time to live must be 1 to 168 hours")
	ErrInvalidQuestType    = validation("invalid_quest_type", "unknown quest type")
	ErrInvalidDifficulty   = validation("invalid_difficulty", "unknown difficulty level")
	ErrInvalidUsername     = validation("invalid_username", "username must be 1 to 32 characters")
	ErrInvalidProofHash    = validation("invalid_proof_hash", "proof hash must be a Qm-prefixed content address of at least 46 characters")
)

// State errors: wrong lifecycle state, capacity, or addressing.
var (
	ErrEmptyQuests          = state("empty_quests", "quest list must not be empty")
	ErrTooManyQuests        = state("too_many_quests", "a location holds at most 10 quests")
	ErrInvalidQuestIndex    = state("invalid_quest_index", "quest index out of range")
	ErrNotInitialized       = state("not_initialized", "record not initialized")
	ErrAlreadyInitialized   = state("already_initialized", "record already initialized")
	ErrLocationExists       = state("location_exists", "a catalog already exists for this location")
	ErrLocationNotFound     = state("location_not_found", "no catalog exists for this location")
	ErrProfileExists        = state("profile_exists", "a profile already exists for this user")
	ErrProfileNotFound      = state("profile_not_found", "no profile exists for this user")
	ErrSubmissionExists     = state("submission_exists", "a submission already exists for this quest")
	ErrSubmissionNotFound   = state("submission_not_found", "submission not found")
	ErrSubmissionNotPending = state("submission_not_pending", "submission is not pending")
)

// ErrUnauthorized rejects callers that are neither the registry
// authority (catalog and validation operations) nor the record owner.
var ErrUnauthorized = &Error{
	Code:    "unauthorized",
	Class:   ClassAuthorization,
	Message: "caller is not permitted to perform this operation",
}

// ErrOverflow is returned by checked arithmetic instead of wrapping.
var ErrOverflow = &Error{
	Code:    "overflow",
	Class:   ClassArithmetic,
	Message: "arithmetic overflow",
}

// CheckedAdd adds a non-negative delta to a counter, failing with ErrOverflow
// instead of wrapping past the maximum representable value.
func CheckedAdd(counter, delta int64) (int64, error) {
	if counter > math.MaxInt64-delta {
		return 0, ErrOverflow
	}
	return counter + delta, nil
}
