package patterns

import "regexp"

// Redaction pairs a PII detection pattern with the literal token that
// replaces every match. Patterns run against the original-case text so the
// redacted output preserves the response's casing.
type Redaction struct {
	Name    string
	Pattern *regexp.Regexp
	Token   string
}

// PII is the output-side redaction table: email addresses, NANP-style
// phone numbers, SSN-shaped digit groups, and payment-card-shaped digit
// groups.
var PII = []Redaction{
	{
		Name:    "email",
		Pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		Token:   "[EMAIL REDACTED]",
	},
	{
		Name:    "phone",
		Pattern: regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
		Token:   "[PHONE REDACTED]",
	},
	{
		Name:    "ssn",
		Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Token:   "[SSN REDACTED]",
	},
	{
		Name:    "card",
		Pattern: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
		Token:   "[CARD REDACTED]",
	},
}

// HomeworkCompletion detects a generated response that delivered a
// finished assignment instead of tutoring toward one.
var HomeworkCompletion = compileAll(
	`here (is|are) (the|your) (complete|full) (essay|assignment|homework)`,
	`i (have|'ve) (written|completed|done) (the|your) (essay|homework|assignment) for you`,
	`(essay|assignment) (is )?complete(d)?:`,
)

// InjectionSuccess detects a generated response narrating that it dropped
// its guardrails, which indicates the system prompt was overridden.
var InjectionSuccess = compileAll(
	`(sure|ok|yes),? i (will|can|'ll) (ignore|disregard|forget)`,
	`i am (now|no longer)`,
	`(entering|switching to|acting as)`,
)
