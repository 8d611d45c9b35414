package policy

import (
	"strings"

	"github.com/xploralabs/xplora/server/model"
)

// Field bounds. Coordinate bounds are Nepal's approximate bounding box;
// quests outside it cannot be published.
const (
	MaxLocationLen     = 64
	MaxTitleLen        = 32
	MaxDescriptionLen  = 128
	MaxLandmarkLen     = 64
	MaxLandmarkNameLen = 32
	MaxUsernameLen     = 32
	MaxNoteLen         = 200 // submission description / rejection reason

	MinTimeToLiveHours = 1
	MaxTimeToLiveHours = 168 // one week

	MinLatitude  = 26.0
	MaxLatitude  = 31.0
	MinLongitude = 80.0
	MaxLongitude = 89.0

	MaxQuestsPerLocation = 10

	MinProofHashLen = 46
	ProofHashPrefix = "Qm"
)

// ValidateLocation checks the location identifier bounds.
func ValidateLocation(location string) error {
	if location == "" || len(location) > MaxLocationLen {
		return ErrInvalidLocation
	}
	return nil
}

// ValidateQuest checks every field bound of a quest. The first
// violated field decides the returned error.
func ValidateQuest(q model.Quest) error {
	if q.Title == "" || len(q.Title) > MaxTitleLen {
		return ErrInvalidTitle
	}
	if q.Description == "" || len(q.Description) > MaxDescriptionLen {
		return ErrInvalidDescription
	}
	switch q.Type {
	case model.QuestTypeDiscovery, model.QuestTypeExploration, model.QuestTypeChallenge:
	default:
		return ErrInvalidQuestType
	}
	switch q.Difficulty {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		return ErrInvalidDifficulty
	}
	if q.TimeToLiveHours < MinTimeToLiveHours || q.TimeToLiveHours > MaxTimeToLiveHours {
		return ErrInvalidTimeToLive
	}
	if q.VerifiableLandmark == "" || len(q.VerifiableLandmark) > MaxLandmarkLen {
		return ErrInvalidLandmark
	}
	if q.LandmarkName == "" || len(q.LandmarkName) > MaxLandmarkNameLen {
		return ErrInvalidLandmarkName
	}
	if q.Latitude < MinLatitude || q.Latitude > MaxLatitude {
		return ErrInvalidLatitude
	}
	if q.Longitude < MinLongitude || q.Longitude > MaxLongitude {
		return ErrInvalidLongitude
	}
	return nil
}

// ValidateUsername checks the profile username bounds.
func ValidateUsername(username string) error {
	if username == "" || len(username) > MaxUsernameLen {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateProofHash performs the minimal content-address sanity check:
// length and prefix only, not cryptographic validation.
func ValidateProofHash(hash string) error {
	if len(hash) < MinProofHashLen || !strings.HasPrefix(hash, ProofHashPrefix) {
		return ErrInvalidProofHash
	}
	return nil
}

// ValidateSubmissionNote bounds a submission description. Empty is
// allowed; only the upper bound applies.
func ValidateSubmissionNote(note string) error {
	if len(note) > MaxNoteLen {
		return ErrInvalidDescription
	}
	return nil
}

// ValidateRejectionReason bounds a rejection reason, which must be
// present.
func ValidateRejectionReason(reason string) error {
	if reason == "" || len(reason) > MaxNoteLen {
		return ErrInvalidDescription
	}
	return nil
}
