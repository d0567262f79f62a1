// Package patterns holds the static rule sets used by the moderation
// pipelines: blocked general content, the Christian-education allowlist
// and its hate-speech red flags, PII redaction pairs, and the output-side
// homework/injection detectors. Every pattern is compiled once at package
// init and is safe for concurrent use.
package patterns

import (
	"regexp"
	"strings"
)

// Class identifies the family a blocked-content rule belongs to. The
// orchestrator maps classes to severity levels, so membership is an
// explicit property of each rule rather than something inferred from the
// pattern text.
type Class int

const (
	ClassProfanity Class = iota
	ClassSexual
	ClassViolence
	ClassDrugs
	ClassCheating
	ClassInjection
	ClassPhishing
)

// String returns a stable label for logging and audit records.
func (c Class) String() string {
	switch c {
	case ClassProfanity:
		return "profanity"
	case ClassSexual:
		return "sexual"
	case ClassViolence:
		return "violence"
	case ClassDrugs:
		return "drugs"
	case ClassCheating:
		return "cheating"
	case ClassInjection:
		return "injection"
	case ClassPhishing:
		return "phishing"
	}
	return "unknown"
}

// BlockedRule is a single blocked-content detection rule. Most rules are
// backed by one regex; a few need a custom match function because RE2 has
// no negative lookahead (e.g. blocking "damn" while allowing "damnation").
type BlockedRule struct {
	Name  string
	Class Class
	match func(lower string) bool
}

func regexRule(name string, class Class, expr string) BlockedRule {
	re := regexp.MustCompile(expr)
	return BlockedRule{Name: name, Class: class, match: re.MatchString}
}

// exceptRule matches expr unless every occurrence is covered by one of the
// exception words. RE2 does not support lookahead, so exceptions are
// checked by stripping the allowed words before matching.
func exceptRule(name string, class Class, expr string, exceptions ...string) BlockedRule {
	re := regexp.MustCompile(expr)
	return BlockedRule{Name: name, Class: class, match: func(lower string) bool {
		stripped := lower
		for _, word := range exceptions {
			stripped = strings.ReplaceAll(stripped, word, "")
		}
		return re.MatchString(stripped)
	}}
}

// Blocked is the ordered blocked-content rule list. Evaluation is
// top-to-bottom with first match wins, so precedence between overlapping
// rules is part of the contract: profanity before sexual content before
// violence, with injection and phishing phrasing last.
var Blocked = []BlockedRule{
	// Profanity, tolerant of letter repetition ("fuuuck").
	regexRule("profanity_f", ClassProfanity, `\bf+u+c+k+`),
	regexRule("profanity_s", ClassProfanity, `\bs+h+i+t+`),
	regexRule("profanity_b", ClassProfanity, `\bb+i+t+c+h+`),
	regexRule("profanity_a", ClassProfanity, `\ba+s+s+h+o+l+e+`),
	// "damnation" is legitimate in a theology question.
	exceptRule("profanity_d", ClassProfanity, `\bd+a+m+n+`, "damnation"),
	regexRule("profanity_c", ClassProfanity, `\bc+r+a+p+`),
	regexRule("profanity_p", ClassProfanity, `\bp+i+s+s+`),
	regexRule("profanity_ck", ClassProfanity, `\bc+o+c+k+`),
	regexRule("profanity_py", ClassProfanity, `\bp+u+s+s+y+`),
	regexRule("profanity_ct", ClassProfanity, `\bc+u+n+t+`),
	regexRule("profanity_mf", ClassProfanity, `\bm+o+t+h+e+r+f+`),
	regexRule("profanity_bd", ClassProfanity, `\bb+a+s+t+a+r+d+`),

	// Explicit sexual content.
	regexRule("sexual_sexy", ClassSexual, `\bsex+y+`),
	regexRule("sexual_porn", ClassSexual, `\bp+o+r+n+`),
	regexRule("sexual_nude", ClassSexual, `\bn+u+d+e+`),
	regexRule("sexual_naked", ClassSexual, `\bn+a+k+e+d+`),
	regexRule("sexual_mast", ClassSexual, `\bm+a+s+t+u+r+b+`),
	regexRule("sexual_org", ClassSexual, `\bo+r+g+a+s+m+`),
	regexRule("sexual_erotic", ClassSexual, `\be+r+o+t+i+c+`),

	// Weapon construction and violence against people.
	regexRule("violence_bomb", ClassViolence, `\b(how to |make a )bomb`),
	regexRule("violence_weapon", ClassViolence, `\b(build|create|make).*(gun|weapon|explosive)`),
	regexRule("violence_harm", ClassViolence, `(kill|murder|hurt).*(people|someone|yourself)`),

	// Drug acquisition and use.
	regexRule("drugs_high", ClassDrugs, `\bget+ing?\s+high`),
	regexRule("drugs_smoke", ClassDrugs, `\bsmoke\s+(weed|pot|marijuana)`),
	regexRule("drugs_doing", ClassDrugs, `\bdo+ing?\s+drugs`),
	regexRule("drugs_buy", ClassDrugs, `(buy|sell|get).*(cocaine|heroin|meth|lsd)`),

	// Academic dishonesty.
	regexRule("cheating_essay", ClassCheating, `write.{0,20}essay.{0,20}for.{0,20}me`),
	regexRule("cheating_homework", ClassCheating, `do.{0,20}homework.{0,20}for.{0,20}me`),
	regexRule("cheating_assignment", ClassCheating, `complete.{0,20}assignment.{0,20}for`),
	regexRule("cheating_answers", ClassCheating, `give.{0,20}me.{0,20}(the\s+)?answers?`),
	regexRule("cheating_test", ClassCheating, `test.{0,20}answers?`),
	// "cheetah" is a perfectly good science question.
	exceptRule("cheating_cheat", ClassCheating, `\bcheat`, "cheetah"),
	regexRule("cheating_solve", ClassCheating, `solve.{0,20}(this|these|my).{0,20}problems?.{0,20}for.{0,20}me`),

	// Prompt injection and jailbreak phrasing.
	regexRule("injection_hack", ClassInjection, `\bhack`),
	regexRule("injection_exploit", ClassInjection, `\bexploit`),
	regexRule("injection_jailbreak", ClassInjection, `\bjailbreak`),
	regexRule("injection_ignore", ClassInjection, `ignore.{0,20}(previous|above|prior|system|all).{0,20}(instructions|prompts?|rules|commands?)`),
	regexRule("injection_pretend", ClassInjection, `pretend.{0,20}(you.{0,20})?are.{0,20}(not\s+)?a`),
	regexRule("injection_actas", ClassInjection, `act.{0,20}as.{0,20}(if|though)`),
	regexRule("injection_disregard", ClassInjection, `disregard.{0,20}(previous|system|safety)`),
	regexRule("injection_forget", ClassInjection, `forget.{0,20}(your|the).{0,20}(rules|instructions|guidelines)`),
	regexRule("injection_younow", ClassInjection, `you.{0,20}are.{0,20}now.{0,20}(a|in)`),

	// PII phishing aimed at the tutor or other students.
	regexRule("phishing_credentials", ClassPhishing, `(give|tell).{0,20}me.{0,20}your.{0,20}(password|email|phone)`),
	regexRule("phishing_name", ClassPhishing, `what.{0,20}is.{0,20}your.{0,20}(real\s+)?name`),
}

// MatchBlocked evaluates the blocked-content rules top-to-bottom against
// the lower-cased text and returns the first matching rule.
func MatchBlocked(text string) (BlockedRule, bool) {
	lower := strings.ToLower(text)
	for _, rule := range Blocked {
		if rule.match(lower) {
			return rule, true
		}
	}
	return BlockedRule{}, false
}
