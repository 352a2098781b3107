package tasks

// Task types used on the delivery channel.

const (
	// TypeJobCreated is published once per newly created job and on
	// reconciliation of jobs that were never picked up.
	TypeJobCreated = "job.created"
)

// JobCreatedPayload is the body of a TypeJobCreated task. Field names are the
// wire contract with external workers.
type JobCreatedPayload struct {
	JobID           string `json:"jobId"`
	SourceObjectKey string `json:"sourceObjectKey"`
	TargetLanguage  string `json:"targetLanguage"`
	OptionsJSON     string `json:"optionsJson"`
	Status          string `json:"status"`
}
