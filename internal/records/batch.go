package records

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/models"
)

// Batch collects whole-collection replacements that are written together.
type Batch struct {
	entries map[string]any
}

func NewBatch() *Batch {
	return &Batch{entries: make(map[string]any)}
}

func (b *Batch) PutHabits(habits []models.Habit) *Batch {
	b.entries[constants.CollectionHabits] = nonNil(habits)
	return b
}

func (b *Batch) PutSessions(sessions []models.TimerSession) *Batch {
	b.entries[constants.CollectionTimerSessions] = nonNil(sessions)
	return b
}

func (b *Batch) PutCompletions(completions []models.CompletionRecord) *Batch {
	b.entries[constants.CollectionCompletions] = nonNil(completions)
	return b
}

func (b *Batch) PutPostpones(postpones []models.PostponeRecord) *Batch {
	b.entries[constants.CollectionPostpones] = nonNil(postpones)
	return b
}

// Len reports how many collections the batch replaces.
func (b *Batch) Len() int {
	return len(b.entries)
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Commit writes every collection in b with a single provider write, so either
// all of them are replaced or none is.
func (s *Store) Commit(b *Batch) error {
	if b == nil || b.Len() == 0 {
		return nil
	}

	encoded := make(map[string][]byte, len(b.entries))
	for key, value := range b.entries {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = data
	}

	if err := s.provider.PutBatch(encoded); err != nil {
		return fmt.Errorf("failed to write collections: %w", err)
	}
	return nil
}
