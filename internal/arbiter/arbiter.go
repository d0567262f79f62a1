// Package arbiter decides whether text is Christian educational content,
// and if so, whether it is a respectful doctrinal statement or hate
// speech disguised as doctrine.
//
// External classifiers routinely flag exclusive-salvation claims ("Jesus
// is the only way to heaven") as hate or exclusionary speech. Those false
// positives must not block legitimate religious education, so recognized
// Christian content bypasses the classifier's generic hate categories and
// is gated instead by the narrow, hand-authored red-flag patterns: a
// group mention alone never blocks, a group mention plus a harmful
// predicate always does.
package arbiter

import "github.com/cozmic/studysafe/internal/patterns"

// Assessment is the arbiter's two-part decision. Respectful is only
// meaningful when ChristianEducation is true.
type Assessment struct {
	ChristianEducation bool
	Respectful         bool
}

// Evaluate classifies sanitized text. ChristianEducation is true if any
// allowlist keyword appears as a substring or any doctrine pattern
// matches. For recognized content, Respectful applies the red-flag veto
// first, then the educational green flags, and defaults to allow when
// neither matches.
func Evaluate(sanitized string) Assessment {
	if !isChristianEducation(sanitized) {
		return Assessment{}
	}
	return Assessment{
		ChristianEducation: true,
		Respectful:         isRespectful(sanitized),
	}
}

func isChristianEducation(text string) bool {
	return patterns.ContainsKeyword(patterns.ChristianKeywords, text) ||
		patterns.MatchAny(patterns.DoctrinePatterns, text)
}

// isRespectful distinguishes educational doctrine from hate speech.
//
//	Allows: "Jesus is the only way to heaven" (doctrine)
//	Blocks: "Non-Christians deserve to die" (hate speech)
//
// Red flags are a hard veto regardless of any other signal. Green flags
// only break ties toward allowing; with no red flag matched the default
// is allow, because the red flags are the actual safety gate for this
// category.
func isRespectful(text string) bool {
	if patterns.MatchAny(patterns.HateRedFlags, text) {
		return false
	}
	if patterns.MatchAny(patterns.EducationalGreenFlags, text) {
		return true
	}
	return true
}
