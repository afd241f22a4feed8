package models

import (
	"maps"
	"slices"
	"time"
)

// Synthetic steps that exist outside every flow definition.
const (
	StepChooseCategory = "choose_category"
	StepReview         = "review"
)

// Session is one user's questionnaire in progress.
type Session struct {
	UserID   int64    `json:"userId"`
	UserName string   `json:"userName"`
	Category Category `json:"category,omitempty"`
	Step     string   `json:"step"`

	// Confirming marks the <step>-confirm sub-state of a fuzzy step.
	// PendingCandidates is non-empty only while Confirming is set.
	Confirming        bool     `json:"confirming,omitempty"`
	PendingCandidates []string `json:"pendingCandidates,omitempty"`

	Fields map[string]string `json:"fields"`

	// EditMenu is set while the review screen shows the per-field menu.
	EditMenu bool `json:"editMenu,omitempty"`
	// Submitting is set while the coordinator runs for this session.
	Submitting bool `json:"submitting,omitempty"`
	// OrphanBroadcasts counts reports already posted to the channel whose
	// row was never appended.
	OrphanBroadcasts int `json:"orphanBroadcasts,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession starts a session at the category choice.
func NewSession(u User, now time.Time) *Session {
	return &Session{
		UserID:    u.ID,
		UserName:  u.Name,
		Step:      StepChooseCategory,
		Fields:    map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State renders the step including the confirm sub-state.
func (s *Session) State() string {
	if s.Confirming {
		return s.Step + "-confirm"
	}
	return s.Step
}

func (s *Session) Value(field string) (string, bool) {
	v, ok := s.Fields[field]
	return v, ok
}

// ClearCandidates leaves the confirm sub-state.
func (s *Session) ClearCandidates() {
	s.Confirming = false
	s.PendingCandidates = nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Fields = maps.Clone(s.Fields)
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	c.PendingCandidates = slices.Clone(s.PendingCandidates)
	return &c
}
