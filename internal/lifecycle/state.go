package lifecycle

import "dubber/internal/models"

// transitions lists, per status, every status an explicit update may request.
// Terminal statuses have no entry.
var transitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusQueued:     {models.JobStatusProcessing, models.JobStatusFailed},
	models.JobStatusProcessing: {models.JobStatusProcessing, models.JobStatusCompleted, models.JobStatusFailed},
}

// CanTransition reports whether an explicit move from -> to is allowed.
func CanTransition(from, to models.JobStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition records a status change applied by the engine.
type Transition struct {
	From models.JobStatus
	To   models.JobStatus
}
