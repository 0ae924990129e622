package risk

import (
	"regexp"
)

var (
	realTime  = regexp.MustCompile(`(?i)\breal[\s-]?time\b`)
	biometric = regexp.MustCompile(`(?i)\b(facial|face)[\s-]recognition\b|\bbiometric[\s-]identification\b`)
	public    = regexp.MustCompile(`(?i)\bpublic(ly accessible)?\s+(spaces?|areas?|places?)\b`)
)

const prescreenJustification = "The system performs real-time remote biometric identification (facial recognition) " +
	"in publicly accessible spaces, a practice prohibited by Article 5(1)(h) of the European Union's AI Act."

// PreScreen flags descriptions that match a prohibited practice without
// asking the classifier: real-time facial recognition or biometric
// identification in publicly accessible spaces.
func PreScreen(description string) (bool, string) {
	if realTime.MatchString(description) && biometric.MatchString(description) && public.MatchString(description) {
		return true, prescreenJustification
	}
	return false, ""
}
