package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/research-assistant/internal/core/domain"
	"github.com/kirillkom/research-assistant/internal/core/ports"
)

// SessionUseCase sequences extraction and assistant calls in response to
// the session events. Each event blocks until its model work completes; a
// failed operation leaves prior state untouched except for the events that
// clear state up front (upload and regenerate both clear before calling out).
type SessionUseCase struct {
	store     ports.SessionStore
	extractor ports.TextExtractor
	assistant ports.DocumentAssistant
	logger    *slog.Logger
}

func NewSessionUseCase(
	store ports.SessionStore,
	extractor ports.TextExtractor,
	assistant ports.DocumentAssistant,
	logger *slog.Logger,
) *SessionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionUseCase{
		store:     store,
		extractor: extractor,
		assistant: assistant,
		logger:    logger,
	}
}

func (uc *SessionUseCase) Create(ctx context.Context) (*domain.Session, error) {
	sess := domain.NewSession(uuid.NewString(), time.Now().UTC())
	if err := uc.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (uc *SessionUseCase) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return uc.store.Get(ctx, sessionID)
}

// UploadDocument replaces the session's document. Re-uploading the file the
// session already holds is a no-op; a different file clears all derived
// state before processing, and on failure the document stays cleared.
func (uc *SessionUseCase) UploadDocument(ctx context.Context, sessionID, filename string, data []byte) (*domain.Session, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "upload document", "filename is required")
	}
	if sess.Document != nil && sess.Document.Name == filename {
		return sess, nil
	}

	sess.Reset()
	uc.touch(ctx, sess)

	doc, err := uc.extractor.Extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if !doc.Substantial() {
		uc.logger.Warn("thin_document",
			"session_id", sess.ID,
			"filename", filename,
			"words", doc.Stats.Words,
			"characters", doc.Stats.Characters,
		)
	}

	summary, err := uc.assistant.Summarize(ctx, doc.Text)
	if err != nil {
		return nil, err
	}

	sess.Document = doc
	sess.Summary = summary
	uc.touch(ctx, sess)
	return sess, nil
}

func (uc *SessionUseCase) ClearDocument(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	uc.touch(ctx, sess)
	return sess, nil
}

func (uc *SessionUseCase) SelectMode(ctx context.Context, sessionID string, mode domain.Mode) (*domain.Session, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if mode != domain.ModeAskAnything && mode != domain.ModeChallengeMe {
		return nil, domain.NewError(domain.ErrInvalidInput, "select mode", string(mode))
	}
	if !sess.HasDocument() {
		return nil, domain.NewError(domain.ErrNoDocument, "select mode", "upload a document first")
	}

	sess.Mode = mode
	uc.touch(ctx, sess)

	if mode == domain.ModeChallengeMe && len(sess.ChallengeQuestions) == 0 {
		// Generation failure leaves the mode set with an empty question list.
		if err := uc.generateChallenge(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (uc *SessionUseCase) SubmitQuestion(ctx context.Context, sessionID, question string) (*domain.QAEntry, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Mode != domain.ModeAskAnything {
		return nil, domain.NewError(domain.ErrInvalidInput, "submit question", "ask_anything mode is not active")
	}
	if !sess.HasDocument() {
		return nil, domain.NewError(domain.ErrNoDocument, "submit question", "upload a document first")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "submit question", "question is required")
	}

	entry, err := uc.assistant.Answer(ctx, question, sess.Document.Text, sess.QAHistory)
	if err != nil {
		return nil, err
	}

	sess.QAHistory = append(sess.QAHistory, *entry)
	uc.touch(ctx, sess)
	return entry, nil
}

func (uc *SessionUseCase) SubmitChallengeAnswer(ctx context.Context, sessionID string, index int, answer string) (*domain.ChallengeAnswer, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Mode != domain.ModeChallengeMe {
		return nil, domain.NewError(domain.ErrInvalidInput, "submit challenge answer", "challenge_me mode is not active")
	}
	if !sess.HasDocument() {
		return nil, domain.NewError(domain.ErrNoDocument, "submit challenge answer", "upload a document first")
	}
	if index < 0 || index >= len(sess.ChallengeQuestions) {
		return nil, domain.NewError(domain.ErrInvalidInput, "submit challenge answer", "question index out of range")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "submit challenge answer", "answer is required")
	}

	question := sess.ChallengeQuestions[index]
	evaluation, err := uc.assistant.EvaluateAnswer(ctx, question.Question, answer, question.ExpectedAnswer, sess.Document.Text)
	if err != nil {
		return nil, err
	}

	// Resubmission overwrites any prior answer for the same question.
	result := domain.ChallengeAnswer{UserAnswer: answer, Evaluation: *evaluation}
	sess.ChallengeAnswers[index] = result
	uc.touch(ctx, sess)
	return &result, nil
}

func (uc *SessionUseCase) RegenerateChallenge(ctx context.Context, sessionID string) ([]domain.ChallengeQuestion, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Mode != domain.ModeChallengeMe {
		return nil, domain.NewError(domain.ErrInvalidInput, "regenerate challenge", "challenge_me mode is not active")
	}
	if !sess.HasDocument() {
		return nil, domain.NewError(domain.ErrNoDocument, "regenerate challenge", "upload a document first")
	}

	sess.ChallengeQuestions = []domain.ChallengeQuestion{}
	sess.ChallengeAnswers = map[int]domain.ChallengeAnswer{}
	uc.touch(ctx, sess)

	if err := uc.generateChallenge(ctx, sess); err != nil {
		return nil, err
	}
	return sess.ChallengeQuestions, nil
}

func (uc *SessionUseCase) RelevantPassages(ctx context.Context, sessionID, question string, count int) ([]string, error) {
	sess, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasDocument() {
		return nil, domain.NewError(domain.ErrNoDocument, "relevant passages", "upload a document first")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "relevant passages", "question is required")
	}

	return uc.assistant.ExtractRelevantPassages(ctx, question, sess.Document.Text, count), nil
}

func (uc *SessionUseCase) generateChallenge(ctx context.Context, sess *domain.Session) error {
	questions, err := uc.assistant.GenerateChallengeQuestions(ctx, sess.Document.Text)
	if err != nil {
		return err
	}
	sess.ChallengeQuestions = questions
	sess.ChallengeAnswers = map[int]domain.ChallengeAnswer{}
	uc.touch(ctx, sess)
	return nil
}

func (uc *SessionUseCase) touch(ctx context.Context, sess *domain.Session) {
	sess.UpdatedAt = time.Now().UTC()
	if err := uc.store.Put(ctx, sess); err != nil {
		uc.logger.Error("persist_session", "session_id", sess.ID, "error", err)
	}
}
