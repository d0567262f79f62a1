package patterns

import (
	"regexp"
	"strings"
)

// ChristianKeywords are bare terms that mark a question as Christian
// educational content. Matched as substrings of the lower-cased text, so
// "Christ" also covers "Christian" and "non-Christians".
var ChristianKeywords = []string{
	// Bible study
	"bible", "scripture", "verse", "testament", "psalm", "proverb",
	"gospel", "biblical", "bible study", "what does the bible say",
	"scripture says", "god's word",

	// Christian worldview and doctrine
	"christian worldview", "faith perspective", "god's design",
	"christian view", "how does god", "what does god",
	"jesus is the way", "jesus is the only way", "salvation through christ",
	"born again", "saved by grace", "faith alone",

	// Core beliefs
	"jesus", "christ", "holy spirit", "trinity", "salvation",
	"grace", "faith", "prayer", "worship", "creation",
	"sin", "redemption", "forgiveness", "heaven", "eternal life",
	"resurrection", "crucifixion", "atonement", "justification",

	// Biblical figures and books
	"moses", "david", "abraham", "paul", "peter", "mary", "noah",
	"genesis", "exodus", "matthew", "john", "romans", "revelation",

	// Christian subjects
	"theology", "doctrine", "church history", "apologetics",
	"christian ethics", "biblical worldview", "intelligent design",
}

// DoctrinePatterns are phrase-level expressions of Christian doctrine,
// including exclusive-salvation claims that a generic hate-speech
// classifier tends to flag as exclusionary.
var DoctrinePatterns = compileAll(
	// Salvation doctrine
	`jesus is the (only )?way`,
	`salvation (through|in|by) (jesus|christ) (alone)?`,
	`no one comes to (the father|heaven) (except|but) (through|by) (jesus|christ)`,
	`jesus (is )?the way,? the truth,? and the life`,
	`saved by grace (through faith)?`,
	`born again`,

	// Trinity and deity of Christ
	`jesus is god`,
	`trinity`,
	`father,? son,? and holy spirit`,

	// Creation and worldview
	`god created`,
	`intelligent design`,
	`christian (worldview|perspective) (on|of)`,

	// Comparative worldview questions
	`christian (and|vs|versus|compared to) (secular|atheist|humanist|scientific)`,
	`biblical (vs|versus|compared to) (secular|scientific)`,
	`how (is|does).*different.*from.*(secular|atheist)`,
)

// HateRedFlags detect hate speech and self-harm hiding behind religious
// language. Each pattern requires both a group or self-referential term
// AND a violence or dehumanization predicate, which keeps them much
// narrower than the keyword allowlist: mentioning a group is fine,
// wishing harm on one is not. A match is a hard veto.
var HateRedFlags = compileAll(
	// Violence against people
	`(kill|hurt|attack|murder|harm).*\b(muslims?|jews?|hindus?|atheists?|non-?christians?|non-?believers?)`,
	`\b(muslims?|jews?|hindus?|atheists?|non-?christians?|non-?believers?).*\b(should|deserve|must|need)\s+(to\s+)?(die|be killed|suffer|burn)`,

	// Dehumanizing language
	`\b(muslims?|jews?|hindus?|atheists?).*\b(are|is)\s+(evil|demons?|satanic|wicked)`,
	`(god|jesus|bible)\s+(hates|curses|condemns)\s+(muslims?|jews?|hindus?|atheists?|gays?|lgbt)`,

	// Violence in God's name
	`(kill|attack|hurt).*in.*(god'?s?|jesus|christ'?s?).*name`,
	`god (wants|commands|tells) (us|you|me) to (kill|hurt|attack)`,

	// Self-harm with religious framing
	`(god wants|jesus wants|i should|i need to).*\b(kill|hurt|harm|cut) (myself|me)`,
	`(sinned|sin) so (i should|i must|i deserve to) (die|hurt myself)`,
)

// EducationalGreenFlags mark clearly educational or theological inquiry.
// They are only consulted after the red flags have been cleared, as a
// tie-breaker toward allowing.
var EducationalGreenFlags = compileAll(
	`what does (the )?bible say`,
	`christian (worldview|perspective|view|doctrine|belief) (on|about|of)`,
	`(how|why) (do |does )(christians?|jesus|god|the bible)`,
	`explain.*christian`,
	`bible (verse|study|lesson|passage)`,
	`scripture (about|on|says)`,
	`jesus (is|taught|said)`,
	`salvation (through|in|by)`,
	// "Are there other ways to heaven?" is theological inquiry, not an
	// attack on doctrine.
	`(is|are) there.*other ways? to`,
)

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// MatchAny reports whether any of the patterns matches the lower-cased
// text.
func MatchAny(res []*regexp.Regexp, text string) bool {
	lower := strings.ToLower(text)
	for _, re := range res {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// ContainsKeyword reports whether any keyword appears as a substring of
// the lower-cased text.
func ContainsKeyword(keywords []string, text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
