package store

import (
	"time"

	"github.com/google/uuid"

	"cryptotools/internal/models"
)

// createdFormat matches the display timestamps the site has always shown.
const createdFormat = "2006-01-02 15:04 UTC"

// Holdings returns the curated holdings list in display order.
func (s *Store) Holdings() []models.Holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.Holding
	s.readJSON(holdingsFile, &items)
	return items
}

// AppendHolding adds a holding to the end of the list, assigning it a
// stable identifier. Duplicates are permitted.
func (s *Store) AppendHolding(h models.Holding) (models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.Holding
	s.readJSON(holdingsFile, &items)

	h.ID = uuid.NewString()
	items = append(items, h)
	if err := s.writeJSON(holdingsFile, items); err != nil {
		return models.Holding{}, err
	}
	return h, nil
}

// RemoveHolding deletes the holding with the given id, preserving the
// relative order of the rest. Unknown ids are a no-op.
func (s *Store) RemoveHolding(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.Holding
	s.readJSON(holdingsFile, &items)

	for i, item := range items {
		if item.ID == id {
			items = append(items[:i], items[i+1:]...)
			if err := s.writeJSON(holdingsFile, items); err != nil {
				s.log.WithComponent("store").WithError(err).Error("failed to persist holdings")
				return false
			}
			return true
		}
	}
	return false
}

// Suggestions returns all suggestions in submission order.
func (s *Store) Suggestions() []models.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.Suggestion
	s.readJSON(suggestionsFile, &items)
	return items
}

// AppendSuggestion records a visitor submission with status "new".
func (s *Store) AppendSuggestion(email, message string) (models.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.Suggestion
	s.readJSON(suggestionsFile, &items)

	suggestion := models.Suggestion{
		ID:      uuid.NewString(),
		Email:   email,
		Message: message,
		Created: time.Now().UTC().Format(createdFormat),
		Status:  models.StatusNew,
	}
	items = append(items, suggestion)
	if err := s.writeJSON(suggestionsFile, items); err != nil {
		return models.Suggestion{}, err
	}
	return suggestion, nil
}

// SetSuggestionStatus moves the suggestion with the given id to status.
// Any state is reachable from any other. Unknown ids and invalid statuses
// are a no-op.
func (s *Store) SetSuggestionStatus(id string, status models.SuggestionStatus) bool {
	if !status.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.Suggestion
	s.readJSON(suggestionsFile, &items)

	for i := range items {
		if items[i].ID == id {
			items[i].Status = status
			if err := s.writeJSON(suggestionsFile, items); err != nil {
				s.log.WithComponent("store").WithError(err).Error("failed to persist suggestions")
				return false
			}
			return true
		}
	}
	return false
}

// RemoveSuggestion deletes the suggestion with the given id.
func (s *Store) RemoveSuggestion(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.Suggestion
	s.readJSON(suggestionsFile, &items)

	for i, item := range items {
		if item.ID == id {
			items = append(items[:i], items[i+1:]...)
			if err := s.writeJSON(suggestionsFile, items); err != nil {
				s.log.WithComponent("store").WithError(err).Error("failed to persist suggestions")
				return false
			}
			return true
		}
	}
	return false
}
