package moderation

import (
	"github.com/cozmic/studysafe/internal/classify"
	"github.com/cozmic/studysafe/internal/patterns"
)

// highSeverityCategories escalate a flagged verdict straight to
// SeverityHigh regardless of confidence scores.
var highSeverityCategories = []classify.Category{
	classify.CategorySexualMinors,
	classify.CategoryViolenceGraphic,
	classify.CategorySelfHarmIntent,
	classify.CategorySelfHarmInstructions,
	classify.CategoryHateThreatening,
}

// assessSeverity derives the verdict severity from the intermediate stage
// results, in order: nothing flagged is low; a high-severity classifier
// category is high; otherwise the maximum classifier confidence score
// (>0.8 high, >0.5 medium); otherwise the matched keyword rule's class
// (profanity medium, everything else low).
func assessSeverity(data Data) Severity {
	classifierFlagged := data.Classifier != nil && data.Classifier.Flagged
	keywordFlagged := data.KeywordFilter != nil && data.KeywordFilter.Flagged

	if !classifierFlagged && !keywordFlagged {
		return SeverityLow
	}

	if classifierFlagged {
		for _, category := range highSeverityCategories {
			if data.Classifier.Categories[category] {
				return SeverityHigh
			}
		}

		var maxScore float64
		for _, score := range data.Classifier.Scores {
			if score > maxScore {
				maxScore = score
			}
		}
		if maxScore > 0.8 {
			return SeverityHigh
		}
		if maxScore > 0.5 {
			return SeverityMedium
		}
	}

	if keywordFlagged {
		if data.KeywordFilter.RuleClass == patterns.ClassProfanity.String() {
			return SeverityMedium
		}
		return SeverityLow
	}

	return SeverityLow
}
