package moderation

import "github.com/cozmic/studysafe/internal/patterns"

// checkKeywords runs the ordered blocked-content rule list against the
// sanitized text. Stateless and synchronous; the first matching rule
// wins.
func checkKeywords(text string) KeywordVerdict {
	rule, matched := patterns.MatchBlocked(text)
	if !matched {
		return KeywordVerdict{}
	}
	return KeywordVerdict{
		Flagged:     true,
		MatchedRule: rule.Name,
		RuleClass:   rule.Class.String(),
		Reason:      "Contains inappropriate or blocked content",
	}
}
