package ports

import (
	"context"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

// CompleteOptions tunes one remote completion call.
type CompleteOptions struct {
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// ModelClient is the single remote capability the assistant is built on:
// given a prompt pair, return the model's text.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompleteOptions) (string, error)
}

// DocumentAssistant covers the five prompt operations over a document.
type DocumentAssistant interface {
	Summarize(ctx context.Context, documentText string) (string, error)
	Answer(ctx context.Context, question, documentText string, history []domain.QAEntry) (*domain.QAEntry, error)
	GenerateChallengeQuestions(ctx context.Context, documentText string) ([]domain.ChallengeQuestion, error)
	EvaluateAnswer(ctx context.Context, question, userAnswer, expectedAnswer, documentText string) (*domain.Evaluation, error)
	ExtractRelevantPassages(ctx context.Context, question, documentText string, count int) []string
}

// TextExtractor turns uploaded bytes into an extracted document.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*domain.Document, error)
}

// SessionStore holds live sessions for the duration of the process.
type SessionStore interface {
	Put(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// PassageChunker splits text into paragraph-level units for relevance ranking.
type PassageChunker interface {
	Split(text string) []string
}
