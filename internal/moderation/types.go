package moderation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cozmic/studysafe/internal/classify"
	"github.com/cozmic/studysafe/internal/validate"
)

// Request is a single piece of text submitted for moderation, with the
// optional requester identity used for rate limiting and audit, and a
// freeform context tag describing the call site ("question", "chat",
// "practice").
type Request struct {
	Text        string `json:"text"`
	RequesterID string `json:"requester_id,omitempty"`
	Context     string `json:"context,omitempty"`
}

// Severity is the ordered severity scale of a moderation verdict.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	}
	return "low"
}

// MarshalJSON encodes the severity as its string label, which is what the
// wire format and audit records use.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its string label.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch label {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	default:
		return fmt.Errorf("moderation: unknown severity %q", label)
	}
	return nil
}

// KeywordVerdict is the result of the blocked-content keyword filter.
type KeywordVerdict struct {
	Flagged     bool   `json:"flagged"`
	MatchedRule string `json:"matched_rule,omitempty"`
	RuleClass   string `json:"rule_class,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// RateLimitVerdict records the outcome of the optional rate-limit
// pre-check.
type RateLimitVerdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Data is the nested bag of intermediate stage results attached to every
// verdict for audit logging. Stages that did not run are nil.
type Data struct {
	Validation         *validate.Result  `json:"validation,omitempty"`
	ChristianEducation bool              `json:"christian_education"`
	RateLimit          *RateLimitVerdict `json:"rate_limit,omitempty"`
	KeywordFilter      *KeywordVerdict   `json:"keyword_filter,omitempty"`
	Classifier         *classify.Verdict `json:"classifier,omitempty"`
}

// Verdict is the aggregate moderation result, constructed once per
// request and never mutated after return. Allowed=true never carries
// SeverityHigh. Internal category names and pattern strings appear only
// in Data, never in the user-facing Reason or Warning.
type Verdict struct {
	Allowed            bool     `json:"allowed"`
	Flagged            bool     `json:"flagged"`
	SanitizedText      string   `json:"sanitized_text"`
	Reason             string   `json:"reason,omitempty"`
	Severity           Severity `json:"severity"`
	Warning            string   `json:"warning,omitempty"`
	ChristianEducation bool     `json:"christian_education"`
	Data               Data     `json:"moderation_data"`
}

// Summary renders a short log line describing which stages flagged the
// request.
func (v *Verdict) Summary() string {
	if !v.Flagged {
		return "Passed all checks"
	}

	var parts []string
	if val := v.Data.Validation; val != nil && !val.Valid {
		parts = append(parts, "Validation: "+val.Reason)
	}
	if rl := v.Data.RateLimit; rl != nil && !rl.Allowed {
		parts = append(parts, "Rate limit exceeded")
	}
	if kw := v.Data.KeywordFilter; kw != nil && kw.Flagged {
		parts = append(parts, "Keyword filter: "+kw.MatchedRule)
	}
	if cl := v.Data.Classifier; cl != nil && cl.Flagged {
		parts = append(parts, "Classifier: "+cl.Reason)
	}
	if len(parts) == 0 {
		return "Unknown reason"
	}
	return strings.Join(parts, " | ")
}
