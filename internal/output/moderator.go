// Package output moderates AI-generated responses before they are shown
// to a student. It is an independent pipeline from input moderation with
// a different scope: redact leaked PII, re-check the text against the
// classifier's critical categories, and detect responses that completed a
// homework assignment or narrate a compromised system prompt.
package output

import (
	"context"

	"github.com/cozmic/studysafe/internal/classify"
	"github.com/cozmic/studysafe/internal/patterns"
)

const (
	reasonPIIRedacted    = "Response contained personal information (redacted)"
	reasonUnsafeContent  = "AI generated unsafe content - regenerating with stricter guidelines"
	reasonHomework       = "AI attempted to complete homework instead of tutoring"
	reasonPromptInjected = "AI system prompt may have been compromised"
)

// criticalCategories hard-blocks a generated response. Narrower than the
// input-side subset: a tutor answer mentioning violence in a history
// lesson is fine, graphic or sexual output is not.
var criticalCategories = []classify.Category{
	classify.CategoryViolenceGraphic,
	classify.CategorySexual,
	classify.CategorySexualMinors,
	classify.CategorySelfHarmInstructions,
}

// Verdict is the output moderation result. RequiresRegeneration signals
// the caller to re-invoke the generation engine under a stricter
// directive; it is always accompanied by Flagged=true but not necessarily
// by Allowed=false (a homework-shaped answer is shown and logged, a
// compromised answer is not shown at all).
type Verdict struct {
	Allowed              bool   `json:"allowed"`
	Flagged              bool   `json:"flagged"`
	SanitizedText        string `json:"sanitized_text"`
	Reason               string `json:"reason,omitempty"`
	RequiresRegeneration bool   `json:"requires_regeneration"`
}

// Classifier is the external content classifier used for the re-check.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Verdict
}

// Moderator screens generated responses.
type Moderator struct {
	classifier Classifier
}

// NewModerator creates an output moderator using the given classifier.
func NewModerator(classifier Classifier) *Moderator {
	return &Moderator{classifier: classifier}
}

// ModerateResponse runs the output pipeline on a generated response. The
// original question is accepted for future context-aware checks and audit
// logging; the current rules do not consult it.
func (m *Moderator) ModerateResponse(ctx context.Context, generated, originalQuestion string) Verdict {
	_ = originalQuestion

	verdict := Verdict{Allowed: true, SanitizedText: generated}

	// Step 1: PII redaction. Non-fatal: the redacted response is still
	// shown, but the leak is flagged for review.
	sanitized := generated
	for _, redaction := range patterns.PII {
		if redaction.Pattern.MatchString(sanitized) {
			verdict.Flagged = true
			verdict.Reason = reasonPIIRedacted
			sanitized = redaction.Pattern.ReplaceAllString(sanitized, redaction.Token)
		}
	}
	verdict.SanitizedText = sanitized

	// Step 2: classifier re-check on the redacted text. A fail-closed
	// verdict is skipped here: generated content is not blocked solely
	// because the classifier is down, unlike the input path.
	classifierVerdict := m.classifier.Classify(ctx, sanitized)
	if classifierVerdict.Flagged && !classifierVerdict.FailClosed {
		for _, category := range criticalCategories {
			if classifierVerdict.Categories[category] {
				verdict.Allowed = false
				verdict.Flagged = true
				verdict.RequiresRegeneration = true
				verdict.Reason = reasonUnsafeContent
				return verdict
			}
		}
	}

	// Step 3: homework completion. Soft warning: still shown to the
	// student, but flagged for review and queued for regeneration.
	if patterns.MatchAny(patterns.HomeworkCompletion, sanitized) {
		verdict.Flagged = true
		verdict.RequiresRegeneration = true
		verdict.Reason = reasonHomework
	}

	// Step 4: injection success. The response narrating that it dropped
	// its guardrails is a hard block.
	if patterns.MatchAny(patterns.InjectionSuccess, sanitized) {
		verdict.Allowed = false
		verdict.Flagged = true
		verdict.RequiresRegeneration = true
		verdict.Reason = reasonPromptInjected
		return verdict
	}

	return verdict
}
