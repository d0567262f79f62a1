package classify

import "strings"

// Category is a safety category in the external classifier's taxonomy.
// The canonical form uses "/" between a category and its subtype
// ("self-harm/intent"). Wire responses are normalized through
// ParseCategory at the boundary, so the rest of the system never touches
// the "_"-separated variants some classifier versions emit.
type Category string

const (
	CategoryHarassment            Category = "harassment"
	CategoryHarassmentThreatening Category = "harassment/threatening"
	CategoryHate                  Category = "hate"
	CategoryHateThreatening       Category = "hate/threatening"
	CategoryIllicit               Category = "illicit"
	CategoryIllicitViolent        Category = "illicit/violent"
	CategorySelfHarm              Category = "self-harm"
	CategorySelfHarmIntent        Category = "self-harm/intent"
	CategorySelfHarmInstructions  Category = "self-harm/instructions"
	CategorySexual                Category = "sexual"
	CategorySexualMinors          Category = "sexual/minors"
	CategoryViolence              Category = "violence"
	CategoryViolenceGraphic       Category = "violence/graphic"
)

// wireAliases maps every separator variant observed on the wire to its
// canonical category. Both the "/" and "_" subtype separators appear
// depending on the classifier API version.
var wireAliases = map[string]Category{}

func init() {
	for _, c := range []Category{
		CategoryHarassment, CategoryHarassmentThreatening,
		CategoryHate, CategoryHateThreatening,
		CategoryIllicit, CategoryIllicitViolent,
		CategorySelfHarm, CategorySelfHarmIntent, CategorySelfHarmInstructions,
		CategorySexual, CategorySexualMinors,
		CategoryViolence, CategoryViolenceGraphic,
	} {
		wireAliases[string(c)] = c
		// Subtype separator variant: "self-harm_intent".
		wireAliases[strings.ReplaceAll(string(c), "/", "_")] = c
		// Fully underscored variant: "self_harm_intent".
		wireAliases[strings.NewReplacer("/", "_", "-", "_").Replace(string(c))] = c
	}
}

// ParseCategory normalizes a wire-format category name. Unknown names
// return ok=false so callers can log them instead of silently dropping
// a flag.
func ParseCategory(wire string) (Category, bool) {
	c, ok := wireAliases[strings.ToLower(strings.TrimSpace(wire))]
	return c, ok
}

// Display renders a category for user-facing reason strings:
// "self-harm/intent" becomes "self-harm or intent".
func (c Category) Display() string {
	return strings.ReplaceAll(string(c), "/", " or ")
}
