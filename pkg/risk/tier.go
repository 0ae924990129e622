package risk

// Tier is an EU AI Act risk category as spelled in classifier verdicts.
type Tier string

const (
	TierUnacceptable Tier = "Unacceptable Risk"
	TierHigh         Tier = "High Risk"
	TierLimited      Tier = "Limited Risk"
	TierMinimal      Tier = "Minimal Risk"
	TierUnknown      Tier = "Unknown Risk"
)

// Tiers lists the four categories a classifier may return, most severe first.
var Tiers = []Tier{TierUnacceptable, TierHigh, TierLimited, TierMinimal}

var tierColors = map[Tier]string{
	TierUnacceptable: "#B22222", // dark red
	TierHigh:         "#FF8C00", // dark orange
	TierLimited:      "#40E0D0", // teal
	TierMinimal:      "#228B22", // green
	TierUnknown:      "#A9A9A9", // gray
}

// Valid reports whether t is one of the four classifier categories.
func (t Tier) Valid() bool {
	for _, v := range Tiers {
		if t == v {
			return true
		}
	}
	return false
}

// Color returns the banner colour of the tier.
func (t Tier) Color() string {
	if c, ok := tierColors[t]; ok {
		return c
	}
	return tierColors[TierUnknown]
}

// BlocksConversation reports whether the multi-agent discussion must not run.
func (t Tier) BlocksConversation() bool {
	return t == TierUnacceptable
}

func (t Tier) String() string {
	return string(t)
}
