// Package validate normalizes and bounds-checks raw question text before
// any semantic moderation runs. It is a pure function of its input: no
// network calls, no shared state.
package validate

import (
	"fmt"
	"strings"
)

const (
	// DefaultMaxLength is the question length cap applied when the caller
	// does not supply one.
	DefaultMaxLength = 1000

	// MinLength is the minimum normalized question length.
	MinLength = 3

	// spamRunThreshold is the number of consecutive identical characters
	// that marks a question as spam.
	spamRunThreshold = 21
)

// Result is the outcome of input validation. SanitizedText is the
// whitespace-normalized text, truncated to the length cap when the input
// was too long.
type Result struct {
	Valid         bool   `json:"valid"`
	SanitizedText string `json:"sanitized_text"`
	Reason        string `json:"reason,omitempty"`
}

// Validate checks raw text against the input rules and returns the
// normalized form. maxLength <= 0 selects DefaultMaxLength.
func Validate(text string, maxLength int) Result {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if strings.TrimSpace(text) == "" {
		return Result{Reason: "Question cannot be empty"}
	}

	// Collapse whitespace runs to single spaces and trim.
	sanitized := strings.Join(strings.Fields(text), " ")

	if len(sanitized) < MinLength {
		return Result{
			SanitizedText: sanitized,
			Reason:        fmt.Sprintf("Question is too short (minimum %d characters)", MinLength),
		}
	}

	if len(sanitized) > maxLength {
		return Result{
			SanitizedText: sanitized[:maxLength],
			Reason:        fmt.Sprintf("Question is too long (maximum %d characters)", maxLength),
		}
	}

	if hasSpamRun(sanitized) {
		return Result{
			SanitizedText: sanitized,
			Reason:        "Question contains spam or invalid patterns",
		}
	}

	return Result{Valid: true, SanitizedText: sanitized}
}

// hasSpamRun returns true if text contains spamRunThreshold or more
// consecutive identical characters. Go's regexp package (RE2) does not
// support backreferences, so this is a simple linear scan.
func hasSpamRun(text string) bool {
	count := 1
	prev := rune(-1)
	for _, r := range text {
		if r == prev {
			count++
			if count >= spamRunThreshold {
				return true
			}
		} else {
			count = 1
			prev = r
		}
	}
	return false
}
