package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/research-assistant/internal/core/domain"
	"github.com/kirillkom/research-assistant/internal/core/ports"
)

// Config bounds how much document text each operation ships to the model.
type Config struct {
	SummaryInputLimit    int
	EvaluationInputLimit int
	HistoryWindow        int
	RankedChunkLimit     int
	DefaultPassageCount  int
}

func DefaultConfig() Config {
	return Config{
		SummaryInputLimit:    8000,
		EvaluationInputLimit: 6000,
		HistoryWindow:        3,
		RankedChunkLimit:     20,
		DefaultPassageCount:  3,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.SummaryInputLimit <= 0 {
		out.SummaryInputLimit = def.SummaryInputLimit
	}
	if out.EvaluationInputLimit <= 0 {
		out.EvaluationInputLimit = def.EvaluationInputLimit
	}
	if out.HistoryWindow <= 0 {
		out.HistoryWindow = def.HistoryWindow
	}
	if out.RankedChunkLimit <= 0 {
		out.RankedChunkLimit = def.RankedChunkLimit
	}
	if out.DefaultPassageCount <= 0 {
		out.DefaultPassageCount = def.DefaultPassageCount
	}
	return out
}

// Assistant builds task-specific prompts and parses the model's replies
// into typed results. It tolerates the model's non-determinism but not its
// malformedness: a reply that fails the expected JSON shape surfaces as
// domain.ErrMalformedResponse with the raw body attached.
type Assistant struct {
	model   ports.ModelClient
	chunker ports.PassageChunker
	logger  *slog.Logger
	cfg     Config
}

func New(model ports.ModelClient, chunker ports.PassageChunker, logger *slog.Logger, cfg Config) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		model:   model,
		chunker: chunker,
		logger:  logger,
		cfg:     cfg.normalize(),
	}
}

func (a *Assistant) Summarize(ctx context.Context, documentText string) (string, error) {
	prompt := buildSummaryPrompt(truncate(documentText, a.cfg.SummaryInputLimit))

	reply, err := a.model.Complete(ctx, summarySystemPrompt, prompt, ports.CompleteOptions{
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrModelFailure, "generate summary", err)
	}

	summary := strings.TrimSpace(reply)
	if summary == "" {
		return "", domain.NewError(domain.ErrModelFailure, "generate summary", "model returned empty text")
	}
	return summary, nil
}

func (a *Assistant) Answer(ctx context.Context, question, documentText string, history []domain.QAEntry) (*domain.QAEntry, error) {
	prompt := buildAnswerPrompt(question, documentText, lastEntries(history, a.cfg.HistoryWindow))

	reply, err := a.model.Complete(ctx, answerSystemPrompt, prompt, ports.CompleteOptions{
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelFailure, "answer question", err)
	}

	var parsed struct {
		Answer     *string `json:"answer"`
		Citation   *string `json:"citation"`
		Confidence string  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &parsed); err != nil {
		return nil, malformed("answer question", reply, err)
	}
	if parsed.Answer == nil || strings.TrimSpace(*parsed.Answer) == "" {
		return nil, malformed("answer question", reply, fmt.Errorf("missing answer field"))
	}
	if parsed.Citation == nil {
		return nil, malformed("answer question", reply, fmt.Errorf("missing citation field"))
	}

	return &domain.QAEntry{
		Question:   question,
		Answer:     strings.TrimSpace(*parsed.Answer),
		Citation:   strings.TrimSpace(*parsed.Citation),
		Confidence: strings.TrimSpace(parsed.Confidence),
	}, nil
}

const challengeQuestionCount = 3

func (a *Assistant) GenerateChallengeQuestions(ctx context.Context, documentText string) ([]domain.ChallengeQuestion, error) {
	prompt := buildChallengePrompt(documentText, challengeQuestionCount)

	reply, err := a.model.Complete(ctx, challengeSystemPrompt, prompt, ports.CompleteOptions{
		Temperature: 0.4,
		JSONMode:    true,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelFailure, "generate challenge questions", err)
	}

	var parsed struct {
		Questions []domain.ChallengeQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &parsed); err != nil {
		return nil, malformed("generate challenge questions", reply, err)
	}
	if len(parsed.Questions) != challengeQuestionCount {
		return nil, malformed("generate challenge questions", reply,
			fmt.Errorf("expected %d questions, got %d", challengeQuestionCount, len(parsed.Questions)))
	}
	for i, q := range parsed.Questions {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.ExpectedAnswer) == "" {
			return nil, malformed("generate challenge questions", reply, fmt.Errorf("question %d is incomplete", i))
		}
	}
	return parsed.Questions, nil
}

func (a *Assistant) EvaluateAnswer(ctx context.Context, question, userAnswer, expectedAnswer, documentText string) (*domain.Evaluation, error) {
	prompt := buildEvaluationPrompt(question, userAnswer, expectedAnswer, truncate(documentText, a.cfg.EvaluationInputLimit))

	reply, err := a.model.Complete(ctx, evaluationSystemPrompt, prompt, ports.CompleteOptions{
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelFailure, "evaluate answer", err)
	}

	var parsed struct {
		Score               *int   `json:"score"`
		Feedback            string `json:"feedback"`
		Strengths           string `json:"strengths"`
		AreasForImprovement string `json:"areas_for_improvement"`
		Citation            string `json:"citation"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &parsed); err != nil {
		return nil, malformed("evaluate answer", reply, err)
	}
	if parsed.Score == nil {
		return nil, malformed("evaluate answer", reply, fmt.Errorf("missing score field"))
	}
	if strings.TrimSpace(parsed.Feedback) == "" {
		return nil, malformed("evaluate answer", reply, fmt.Errorf("missing feedback field"))
	}

	return &domain.Evaluation{
		Score:               clampScore(*parsed.Score),
		Feedback:            strings.TrimSpace(parsed.Feedback),
		Strengths:           strings.TrimSpace(parsed.Strengths),
		AreasForImprovement: strings.TrimSpace(parsed.AreasForImprovement),
		Citation:            strings.TrimSpace(parsed.Citation),
	}, nil
}

// ExtractRelevantPassages ranks paragraph chunks by relevance to the
// question. Unlike the other operations it never propagates failure: any
// transport or parse problem degrades to the unranked chunk prefix.
func (a *Assistant) ExtractRelevantPassages(ctx context.Context, question, documentText string, count int) []string {
	if count <= 0 {
		count = a.cfg.DefaultPassageCount
	}

	chunks := a.chunker.Split(documentText)
	if len(chunks) <= count {
		return chunks
	}

	candidates := chunks
	if len(candidates) > a.cfg.RankedChunkLimit {
		candidates = candidates[:a.cfg.RankedChunkLimit]
	}

	ranked, err := a.rankChunks(ctx, question, candidates, count)
	if err != nil {
		a.logger.Warn("passage_ranking_fallback", "error", err, "chunks", len(candidates))
		return chunks[:count]
	}
	return ranked
}

func (a *Assistant) rankChunks(ctx context.Context, question string, chunks []string, count int) ([]string, error) {
	prompt, err := buildPassagePrompt(question, chunks, count)
	if err != nil {
		return nil, err
	}

	reply, err := a.model.Complete(ctx, passageSystemPrompt, prompt, ports.CompleteOptions{
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		RelevantChunkIndices []int `json:"relevant_chunk_indices"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &parsed); err != nil {
		return nil, fmt.Errorf("parse chunk indices: %w", err)
	}

	out := make([]string, 0, count)
	seen := make(map[int]bool, count)
	for _, idx := range parsed.RelevantChunkIndices {
		if idx < 0 || idx >= len(chunks) || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, chunks[idx])
		if len(out) == count {
			break
		}
	}
	// Pad from the unranked prefix when the model returned too few usable indices.
	for idx := 0; len(out) < count && idx < len(chunks); idx++ {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, chunks[idx])
	}
	return out, nil
}

func malformed(operation, raw string, cause error) error {
	return fmt.Errorf("%s: %w: %w: raw response: %s", operation, domain.ErrMalformedResponse, cause, snippet(raw, 500))
}

func snippet(raw string, max int) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= max {
		return raw
	}
	return raw[:max] + "..."
}

// truncate cuts text to at most limit bytes without splitting a rune.
func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func lastEntries(history []domain.QAEntry, n int) []domain.QAEntry {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
