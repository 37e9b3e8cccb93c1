package ports

import (
	"context"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

// SessionService is the inbound contract for the session event loop. Each
// method maps to one user-triggered event; every call blocks until its
// remote model work completes.
type SessionService interface {
	Create(ctx context.Context) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	UploadDocument(ctx context.Context, sessionID, filename string, data []byte) (*domain.Session, error)
	ClearDocument(ctx context.Context, sessionID string) (*domain.Session, error)
	SelectMode(ctx context.Context, sessionID string, mode domain.Mode) (*domain.Session, error)
	SubmitQuestion(ctx context.Context, sessionID, question string) (*domain.QAEntry, error)
	SubmitChallengeAnswer(ctx context.Context, sessionID string, index int, answer string) (*domain.ChallengeAnswer, error)
	RegenerateChallenge(ctx context.Context, sessionID string) ([]domain.ChallengeQuestion, error)
	RelevantPassages(ctx context.Context, sessionID, question string, count int) ([]string, error)
}
