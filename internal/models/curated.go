package models

// Holding is one curated entry of the admin's holdings list. The list is
// ordered (display order = insertion order) and duplicates are allowed.
// ID is generated at creation and is the only mutation address; slice
// position carries no identity.
type Holding struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Note   string `json:"note"`
}

// SuggestionStatus is the admin-set workflow state of a suggestion. Any
// state is reachable from any other; there is no terminal state.
type SuggestionStatus string

const (
	StatusNew        SuggestionStatus = "new"
	StatusInProgress SuggestionStatus = "in_progress"
	StatusDone       SuggestionStatus = "done"
)

// Valid reports whether s is one of the known workflow states.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Suggestion is a visitor-submitted message reviewed by the admin.
type Suggestion struct {
	ID      string           `json:"id"`
	Email   string           `json:"email"`
	Message string           `json:"message"`
	Created string           `json:"created"`
	Status  SuggestionStatus `json:"status"`
}
