package email

import "strings"

type Label string

const (
	LabelNone          Label = ""
	LabelInformational Label = "Informational"
	LabelPromotional   Label = "Promotional/Marketing"
	LabelPersonal      Label = "Personal"
	LabelOther         Label = "Other"
	// LabelUnknown marks a local classification failure. The remote
	// classifier never produces it.
	LabelUnknown Label = "Unknown"
)

// RemoteLabels are the categories the classifier is asked to choose from.
var RemoteLabels = []Label{
	LabelInformational,
	LabelPromotional,
	LabelPersonal,
	LabelOther,
}

func (l Label) IsValid() bool {
	switch l {
	case LabelInformational, LabelPromotional, LabelPersonal, LabelOther, LabelUnknown:
		return true
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// ParseLabel maps a free-text classifier response onto the closed label set.
// Exact matches win; otherwise the keyword checks run in order and the first
// hit is returned, so "personal marketing" maps to Promotional/Marketing.
func ParseLabel(response string) Label {
	response = strings.TrimSpace(response)
	for _, l := range RemoteLabels {
		if response == string(l) {
			return l
		}
	}

	lower := strings.ToLower(response)
	switch {
	case containsAny(lower, "informational", "info"):
		return LabelInformational
	case containsAny(lower, "promotional", "marketing"):
		return LabelPromotional
	case containsAny(lower, "personal", "work", "correspondence"):
		return LabelPersonal
	}
	return LabelOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
