package domain

import (
	"strings"
)

// StatusKind is the normalized publication stage of a paper
type StatusKind int

const (
	StatusInProgress StatusKind = iota
	StatusPublished
	StatusAccepted
	StatusCommunicatedToReviewer
	StatusUnderReview
	StatusRejected
	// StatusCustom carries free text that matched no known stage
	StatusCustom
)

// Canonical status labels
const (
	LabelInProgress             = "In Progress"
	LabelPublished              = "Published"
	LabelAccepted               = "Accepted"
	LabelCommunicatedToReviewer = "Communicated to Reviewer"
	LabelUnderReview            = "Under Review"
	LabelRejected               = "Rejected"
)

var kindLabels = map[StatusKind]string{
	StatusInProgress:             LabelInProgress,
	StatusPublished:              LabelPublished,
	StatusAccepted:               LabelAccepted,
	StatusCommunicatedToReviewer: LabelCommunicatedToReviewer,
	StatusUnderReview:            LabelUnderReview,
	StatusRejected:               LabelRejected,
}

// Status is a closed status variant. Raw is only set for StatusCustom.
type Status struct {
	Kind StatusKind
	Raw  string
}

// NewStatus returns a status of a known kind
func NewStatus(kind StatusKind) Status {
	return Status{Kind: kind}
}

// CustomStatus returns the free-text variant
func CustomStatus(raw string) Status {
	return Status{Kind: StatusCustom, Raw: raw}
}

// Label returns the display label used for grouping and filtering
func (s Status) Label() string {
	if s.Kind == StatusCustom {
		return s.Raw
	}
	if label, ok := kindLabels[s.Kind]; ok {
		return label
	}
	return LabelInProgress
}

// String implements fmt.Stringer
func (s Status) String() string {
	return s.Label()
}

// IsCustom reports whether the status is free text
func (s Status) IsCustom() bool {
	return s.Kind == StatusCustom
}

// MarshalText encodes the status as its label
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

// UnmarshalText decodes a label. Unknown labels become custom statuses.
func (s *Status) UnmarshalText(text []byte) error {
	*s = StatusFromLabel(string(text))
	return nil
}

// StatusFromLabel is the inverse of Label
func StatusFromLabel(label string) Status {
	label = strings.TrimSpace(label)
	if label == "" {
		return NewStatus(StatusInProgress)
	}
	for kind, l := range kindLabels {
		if l == label {
			return NewStatus(kind)
		}
	}
	return CustomStatus(label)
}

// KnownStatusLabels lists the labels of every non-custom kind in pipeline order
func KnownStatusLabels() []string {
	return []string{
		LabelPublished,
		LabelAccepted,
		LabelCommunicatedToReviewer,
		LabelUnderReview,
		LabelRejected,
		LabelInProgress,
	}
}
