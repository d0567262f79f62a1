package messaging

import (
	"github.com/cozmic/studysafe/internal/moderation"
	"github.com/cozmic/studysafe/internal/output"
)

// CheckMessage is published to moderation.check by a caller that needs a
// student question reviewed before it reaches the generation engine.
type CheckMessage struct {
	RequestID   string `json:"request_id"`
	RequesterID string `json:"requester_id,omitempty"`
	Context     string `json:"context,omitempty"`
	Text        string `json:"text"`
}

// ResultMessage is published back with the input moderation verdict.
type ResultMessage struct {
	RequestID string `json:"request_id"`
	moderation.Verdict
}

// OutputCheckMessage is published to moderation.output.check with a
// generated response before it is rendered to the student.
type OutputCheckMessage struct {
	RequestID        string `json:"request_id"`
	RequesterID      string `json:"requester_id,omitempty"`
	Text             string `json:"text"`
	OriginalQuestion string `json:"original_question,omitempty"`
}

// OutputResultMessage carries the output verdict. RequiresRegeneration
// signals the caller to retry generation under a stricter directive a
// bounded number of times before falling back to a generic reply.
type OutputResultMessage struct {
	RequestID string `json:"request_id"`
	output.Verdict
}
