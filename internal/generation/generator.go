package generation

import "context"

// DraftCard is a generated question/answer pair before it is persisted as a
// flashcard.
type DraftCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Generator defines the interface for drafting flashcards from a topic
// prompt. It serves as a boundary between the application core and external
// AI/LLM services.
type Generator interface {
	// GenerateDrafts creates up to count question/answer drafts for the
	// given topic.
	//
	// Returns:
	//   - ErrEmptyTopic if topic is empty
	//   - ErrContentBlocked if the model refuses the prompt
	//   - ErrInvalidResponse if the model output cannot be parsed
	//   - ErrTransientFailure for retryable upstream failures
	GenerateDrafts(ctx context.Context, topic string, count int) ([]DraftCard, error)
}
