// Package moderation implements the input moderation pipeline for student
// questions. The Engine sequences the stages (input validation, the
// religious-content arbiter, the keyword filter, and the external
// classifier), short-circuits on the first failure, and aggregates the
// intermediate results into a single Verdict.
//
// Recognized Christian educational content takes a separate path: the
// hand-authored red-flag patterns gate it, and only a narrow
// critical-safety subset of classifier categories can block it. This
// keeps classifier false positives on doctrinal language (exclusive
// salvation claims read as "hate") from blocking legitimate religious
// education. All other content runs the keyword filter and the full
// classifier, with fail-closed behavior when the classifier is
// unreachable.
package moderation

import (
	"context"
	"fmt"
	"log"

	"github.com/cozmic/studysafe/internal/arbiter"
	"github.com/cozmic/studysafe/internal/classify"
	"github.com/cozmic/studysafe/internal/ratelimit"
	"github.com/cozmic/studysafe/internal/validate"
)

// User-facing reason and warning strings. Internal pattern names and
// category keys never appear here; they go to the audit bag only.
const (
	reasonDisrespectful    = "Religious content must be respectful and educational."
	reasonSafetyFilter     = "Content blocked by safety filter"
	reasonCriticalCategory = "Content contains inappropriate material"
	reasonKeywordBlocked   = "Your question contains inappropriate content. Please ask educational questions only."
	reasonFailClosed       = "Our safety system is temporarily unavailable. Please try again in a few minutes."

	warningChristianApproved = "Christian educational content approved"
	warningGuidelines        = "This type of content violates our community guidelines. Please keep questions educational and respectful."
)

// criticalCategories is the subset of classifier categories that blocks
// Christian educational content. Generic "hate" is deliberately absent:
// the classifier raises it on exclusivity doctrine, and the red-flag
// patterns already cover real hate speech on this path.
var criticalCategories = []classify.Category{
	classify.CategoryViolence,
	classify.CategoryViolenceGraphic,
	classify.CategorySelfHarm,
	classify.CategorySelfHarmIntent,
	classify.CategorySelfHarmInstructions,
	classify.CategorySexual,
	classify.CategorySexualMinors,
}

// Classifier is the external content classifier consulted by the engine.
// Implementations must resolve every failure to a fail-closed verdict
// rather than returning an error.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Verdict
}

// Engine is the moderation decision engine. It holds no per-request
// state, so one Engine serves concurrent requests without locking; the
// optional rate limiter is the only shared mutable state and synchronizes
// internally.
type Engine struct {
	classifier Classifier
	limiter    ratelimit.Limiter
	limitRule  ratelimit.Rule
	maxLength  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRateLimit enables the per-requester pre-check between validation
// and path selection. Without this option the engine never consults a
// limiter.
func WithRateLimit(limiter ratelimit.Limiter, rule ratelimit.Rule) Option {
	return func(e *Engine) {
		e.limiter = limiter
		e.limitRule = rule
	}
}

// WithMaxLength overrides the input length cap.
func WithMaxLength(n int) Option {
	return func(e *Engine) { e.maxLength = n }
}

// NewEngine creates a moderation engine using the given classifier.
func NewEngine(classifier Classifier, opts ...Option) *Engine {
	e := &Engine{
		classifier: classifier,
		maxLength:  validate.DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Moderate runs the full input pipeline on the request and returns the
// aggregate verdict. The verdict is complete when returned and is never
// mutated afterwards.
func (e *Engine) Moderate(ctx context.Context, req Request) Verdict {
	verdict := Verdict{Allowed: true, SanitizedText: req.Text}

	// Stage 1: input validation.
	validation := validate.Validate(req.Text, e.maxLength)
	verdict.Data.Validation = &validation
	verdict.SanitizedText = validation.SanitizedText

	if !validation.Valid {
		verdict.Allowed = false
		verdict.Flagged = true
		verdict.Reason = validation.Reason
		return verdict
	}

	// Optional rate-limit pre-check. Disabled unless a limiter was
	// injected; quota policy is expected to move to plan-based limits.
	if e.limiter != nil && req.RequesterID != "" {
		if blocked, ok := e.checkRateLimit(ctx, req.RequesterID, &verdict); ok {
			return blocked
		}
	}

	// Stage 2: religious-content arbiter selects the path.
	assessment := arbiter.Evaluate(verdict.SanitizedText)
	verdict.ChristianEducation = assessment.ChristianEducation
	verdict.Data.ChristianEducation = assessment.ChristianEducation

	if assessment.ChristianEducation {
		return e.religiousPath(ctx, verdict, assessment)
	}
	return e.generalPath(ctx, verdict)
}

// checkRateLimit consults the limiter and, when the requester is over
// budget, returns the terminal blocked verdict with ok=true. Limiter
// errors fail open inside the limiter implementations.
func (e *Engine) checkRateLimit(ctx context.Context, requesterID string, verdict *Verdict) (Verdict, bool) {
	allowed, err := e.limiter.Allow(ctx, requesterID, e.limitRule)
	if err != nil {
		log.Printf("[moderation] rate limiter error for requester=%s: %v", requesterID, err)
	}

	rl := &RateLimitVerdict{Allowed: allowed}
	verdict.Data.RateLimit = rl
	if allowed {
		return Verdict{}, false
	}

	rl.Reason = fmt.Sprintf("Rate limit exceeded. Maximum %d questions per %s.",
		e.limitRule.Limit, e.limitRule.Window)
	verdict.Allowed = false
	verdict.Flagged = true
	verdict.Reason = rl.Reason
	return *verdict, true
}

// religiousPath moderates recognized Christian educational content. The
// red-flag veto decides respectfulness; the classifier is consulted only
// for the critical-safety subset, and a classifier outage degrades to the
// keyword filter instead of hard-blocking, reflecting that doctrinal
// content is lower systemic risk.
func (e *Engine) religiousPath(ctx context.Context, verdict Verdict, assessment arbiter.Assessment) Verdict {
	if !assessment.Respectful {
		verdict.Allowed = false
		verdict.Flagged = true
		verdict.Reason = reasonDisrespectful
		verdict.Severity = SeverityHigh
		return verdict
	}

	classifierVerdict := e.classifier.Classify(ctx, verdict.SanitizedText)
	verdict.Data.Classifier = &classifierVerdict

	if classifierVerdict.Flagged {
		if classifierVerdict.FailClosed {
			// Classifier unreachable: fall back to the keyword filter
			// instead of blocking outright.
			keyword := checkKeywords(verdict.SanitizedText)
			verdict.Data.KeywordFilter = &keyword

			if keyword.Flagged {
				verdict.Allowed = false
				verdict.Flagged = true
				verdict.Reason = reasonSafetyFilter
				verdict.Severity = assessSeverity(verdict.Data)
				return verdict
			}

			verdict.Warning = warningChristianApproved
			return verdict
		}

		for _, category := range criticalCategories {
			if classifierVerdict.Categories[category] {
				verdict.Allowed = false
				verdict.Flagged = true
				verdict.Reason = reasonCriticalCategory
				verdict.Severity = SeverityHigh
				return verdict
			}
		}
	}

	// Non-critical classifier flags (e.g. generic hate on exclusivity
	// language) are deliberately ignored for this path.
	verdict.Warning = warningChristianApproved
	return verdict
}

// generalPath moderates everything that is not Christian educational
// content: keyword filter first, then the full classifier with
// fail-closed blocking.
func (e *Engine) generalPath(ctx context.Context, verdict Verdict) Verdict {
	keyword := checkKeywords(verdict.SanitizedText)
	verdict.Data.KeywordFilter = &keyword

	if keyword.Flagged {
		verdict.Allowed = false
		verdict.Flagged = true
		verdict.Reason = reasonKeywordBlocked
		verdict.Severity = assessSeverity(verdict.Data)
		return verdict
	}

	classifierVerdict := e.classifier.Classify(ctx, verdict.SanitizedText)
	verdict.Data.Classifier = &classifierVerdict

	if classifierVerdict.Flagged {
		if classifierVerdict.FailClosed {
			verdict.Allowed = false
			verdict.Flagged = true
			verdict.Reason = reasonFailClosed
			verdict.Severity = SeverityMedium
			return verdict
		}

		verdict.Allowed = false
		verdict.Flagged = true
		categories := classifierVerdict.Reason
		if categories == "" {
			categories = "policy violations"
		}
		verdict.Reason = fmt.Sprintf("Your question was flagged for: %s. Please ask appropriate educational questions.", categories)
		verdict.Warning = warningGuidelines
	}

	verdict.Severity = assessSeverity(verdict.Data)
	return verdict
}
