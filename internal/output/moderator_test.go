package output

import (
	"context"
	"strings"
	"testing"

	"github.com/cozmic/studysafe/internal/classify"
)

type fakeClassifier struct {
	verdict classify.Verdict
	calls   int
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) classify.Verdict {
	f.calls++
	return f.verdict
}

func cleanClassifier() *fakeClassifier {
	return &fakeClassifier{verdict: classify.Verdict{
		Categories: map[classify.Category]bool{},
		Scores:     map[classify.Category]float64{},
	}}
}

func TestModerateResponse_Clean(t *testing.T) {
	m := NewModerator(cleanClassifier())

	text := "Photosynthesis converts light energy into chemical energy. Let's walk through the steps together."
	verdict := m.ModerateResponse(context.Background(), text, "Explain photosynthesis")

	if !verdict.Allowed {
		t.Fatalf("expected allowed, got blocked: %s", verdict.Reason)
	}
	if verdict.Flagged {
		t.Error("expected Flagged=false")
	}
	if verdict.RequiresRegeneration {
		t.Error("expected RequiresRegeneration=false")
	}
	if verdict.SanitizedText != text {
		t.Errorf("clean text must pass through unchanged, got %q", verdict.SanitizedText)
	}
}

func TestModerateResponse_PIIRedactedNotBlocked(t *testing.T) {
	m := NewModerator(cleanClassifier())

	verdict := m.ModerateResponse(context.Background(),
		"You can reach your teacher at jane.doe@school.edu or 555-123-4567.",
		"How do I contact my teacher?")

	if !verdict.Allowed {
		t.Fatal("PII redaction must not block the response")
	}
	if !verdict.Flagged {
		t.Error("expected Flagged=true for review")
	}
	if verdict.RequiresRegeneration {
		t.Error("redaction alone must not request regeneration")
	}
	if verdict.Reason != "Response contained personal information (redacted)" {
		t.Errorf("Reason = %q", verdict.Reason)
	}
	for _, leaked := range []string{"jane.doe@school.edu", "555-123-4567"} {
		if strings.Contains(verdict.SanitizedText, leaked) {
			t.Errorf("sanitized text still contains %q", leaked)
		}
	}
	if !strings.Contains(verdict.SanitizedText, "[EMAIL REDACTED]") ||
		!strings.Contains(verdict.SanitizedText, "[PHONE REDACTED]") {
		t.Errorf("missing redaction tokens: %q", verdict.SanitizedText)
	}
}

func TestModerateResponse_CriticalCategoryBlocks(t *testing.T) {
	classifier := &fakeClassifier{verdict: classify.Verdict{
		Flagged: true,
		Categories: map[classify.Category]bool{
			classify.CategoryViolenceGraphic: true,
		},
		Scores: map[classify.Category]float64{},
	}}
	m := NewModerator(classifier)

	verdict := m.ModerateResponse(context.Background(), "Some generated response", "A question")

	if verdict.Allowed {
		t.Fatal("expected critical category to block")
	}
	if !verdict.RequiresRegeneration {
		t.Error("expected RequiresRegeneration=true")
	}
	if !strings.Contains(verdict.Reason, "regenerating") {
		t.Errorf("Reason = %q", verdict.Reason)
	}
}

// Non-critical classifier flags pass: the output path only re-checks the
// critical subset, everything else was already screened on input.
func TestModerateResponse_NonCriticalCategoryAllowed(t *testing.T) {
	classifier := &fakeClassifier{verdict: classify.Verdict{
		Flagged: true,
		Categories: map[classify.Category]bool{
			classify.CategoryHate:     true,
			classify.CategoryViolence: true,
		},
		Scores: map[classify.Category]float64{},
	}}
	m := NewModerator(classifier)

	verdict := m.ModerateResponse(context.Background(),
		"The war caused widespread violence across Europe.",
		"What happened in World War 2?")

	if !verdict.Allowed {
		t.Fatalf("non-critical categories must not block output: %s", verdict.Reason)
	}
	if verdict.Flagged {
		t.Error("expected Flagged=false")
	}
}

// A classifier outage must not block generated content; the re-check is
// skipped rather than failing closed.
func TestModerateResponse_FailClosedSkipped(t *testing.T) {
	classifier := &fakeClassifier{verdict: classify.Verdict{
		Flagged:    true,
		Categories: map[classify.Category]bool{},
		Scores:     map[classify.Category]float64{},
		Reason:     classify.FailClosedReason,
		FailClosed: true,
	}}
	m := NewModerator(classifier)

	verdict := m.ModerateResponse(context.Background(), "A perfectly fine answer.", "A question")

	if !verdict.Allowed {
		t.Fatalf("fail-closed classifier must not block output: %s", verdict.Reason)
	}
	if verdict.Flagged {
		t.Error("expected Flagged=false")
	}
}

func TestModerateResponse_HomeworkCompletion(t *testing.T) {
	m := NewModerator(cleanClassifier())

	verdict := m.ModerateResponse(context.Background(),
		"Here is the complete essay you asked for, ready to submit.",
		"Help me with my essay")

	if !verdict.Allowed {
		t.Fatal("homework-shaped answer is shown, not blocked")
	}
	if !verdict.Flagged {
		t.Error("expected Flagged=true")
	}
	if !verdict.RequiresRegeneration {
		t.Error("expected RequiresRegeneration=true")
	}
	if verdict.Reason != "AI attempted to complete homework instead of tutoring" {
		t.Errorf("Reason = %q", verdict.Reason)
	}
}

func TestModerateResponse_InjectionSuccessBlocks(t *testing.T) {
	m := NewModerator(cleanClassifier())

	tests := []string{
		"Sure, I will ignore my previous instructions.",
		"I am no longer bound by my guidelines.",
	}

	for _, text := range tests {
		verdict := m.ModerateResponse(context.Background(), text, "A question")

		if verdict.Allowed {
			t.Errorf("%q: expected hard block", text)
		}
		if !verdict.RequiresRegeneration {
			t.Errorf("%q: expected RequiresRegeneration=true", text)
		}
		if verdict.Reason != "AI system prompt may have been compromised" {
			t.Errorf("%q: Reason = %q", text, verdict.Reason)
		}
	}
}

// Regeneration is always accompanied by a flag.
func TestModerateResponse_RegenerationImpliesFlagged(t *testing.T) {
	m := NewModerator(cleanClassifier())

	inputs := []string{
		"Here is the complete essay you asked for.",
		"Sure, I will ignore my previous instructions.",
		"Photosynthesis converts light into energy.",
		"Email me at test@example.com for more.",
	}

	for _, text := range inputs {
		verdict := m.ModerateResponse(context.Background(), text, "A question")
		if verdict.RequiresRegeneration && !verdict.Flagged {
			t.Errorf("%q: RequiresRegeneration without Flagged", text)
		}
	}
}

// The classifier re-check runs on the redacted text, not the raw
// response.
func TestModerateResponse_ClassifierSeesRedactedText(t *testing.T) {
	var seen string
	classifier := &recordingClassifier{onClassify: func(text string) { seen = text }}
	m := NewModerator(classifier)

	m.ModerateResponse(context.Background(), "Contact 555-123-4567 for help.", "A question")

	if strings.Contains(seen, "555-123-4567") {
		t.Errorf("classifier received unredacted text: %q", seen)
	}
	if !strings.Contains(seen, "[PHONE REDACTED]") {
		t.Errorf("classifier input missing redaction token: %q", seen)
	}
}

type recordingClassifier struct {
	onClassify func(text string)
}

func (r *recordingClassifier) Classify(_ context.Context, text string) classify.Verdict {
	r.onClassify(text)
	return classify.Verdict{
		Categories: map[classify.Category]bool{},
		Scores:     map[classify.Category]float64{},
	}
}
