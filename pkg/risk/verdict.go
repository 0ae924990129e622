package risk

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	// InvalidFormatMessage is the justification of verdicts that could not be decoded.
	InvalidFormatMessage = "Invalid response format."
	// UnidentifiedCategoryLabel is shown instead of the category for such verdicts.
	UnidentifiedCategoryLabel = "Risk associated to the system unidentified"
)

// Verdict is the decoded classifier answer.
type Verdict struct {
	Category      Tier   `json:"category"`
	Justification string `json:"justification"`
	// Raw keeps the reply as returned by the classifier.
	Raw string `json:"raw,omitempty"`
}

// Label is the heading shown on the risk banner.
func (v Verdict) Label() string {
	if v.Category == TierUnknown {
		return UnidentifiedCategoryLabel
	}
	return string(v.Category)
}

type verdictPayload struct {
	Category      string `json:"Category"`
	Justification string `json:"Justification"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseVerdict decodes a classifier reply. A reply that is not the expected
// JSON object, or names a category outside the four tiers, yields an
// Unknown verdict instead of an error.
func ParseVerdict(text string) Verdict {
	raw := strings.TrimSpace(text)
	body := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		body = m[1]
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Unknown(raw)
	}

	tier := Tier(strings.TrimSpace(payload.Category))
	if !tier.Valid() {
		return Unknown(raw)
	}
	return Verdict{
		Category:      tier,
		Justification: strings.TrimSpace(payload.Justification),
		Raw:           raw,
	}
}

// Unknown builds the sentinel verdict for unusable classifier replies.
func Unknown(raw string) Verdict {
	return Verdict{Category: TierUnknown, Justification: InvalidFormatMessage, Raw: raw}
}

// FormatVerdictJSON renders a verdict in the classifier output shape.
func FormatVerdictJSON(tier Tier, justification string) string {
	b, _ := json.Marshal(verdictPayload{Category: string(tier), Justification: justification})
	return string(b)
}
