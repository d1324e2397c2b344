package dataprocessing

import (
	"strings"

	"papertrack/pkg/contracts/domain"
)

// statusRules are tried in order; the first keyword contained in the text wins
var statusRules = []struct {
	keyword string
	kind    domain.StatusKind
}{
	{"published", domain.StatusPublished},
	{"accepted", domain.StatusAccepted},
	{"communicated", domain.StatusCommunicatedToReviewer},
	{"review", domain.StatusUnderReview},
	{"rejected", domain.StatusRejected},
}

// ClassifyStatus maps free-text status to a status variant.
// Unmatched text is kept verbatim as a custom status; blank text is in progress.
func ClassifyStatus(raw string) domain.Status {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	for _, rule := range statusRules {
		if strings.Contains(lower, rule.keyword) {
			return domain.NewStatus(rule.kind)
		}
	}

	if trimmed != "" {
		return domain.CustomStatus(trimmed)
	}
	return domain.NewStatus(domain.StatusInProgress)
}
