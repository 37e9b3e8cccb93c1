package httpadapter

import (
	"time"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

// View types shape what leaves the API. Two things never leave: the full
// document text and the expected answers of pending challenge questions.

type documentView struct {
	Name        string               `json:"name"`
	Stats       domain.DocumentStats `json:"stats"`
	Substantial bool                 `json:"substantial"`
}

type qaEntryView struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Citation   string `json:"citation"`
	Confidence string `json:"confidence,omitempty"`
}

type challengeQuestionView struct {
	Index             int    `json:"index"`
	Question          string `json:"question"`
	ReasoningRequired string `json:"reasoning_required,omitempty"`
	Answered          bool   `json:"answered"`
}

type evaluationView struct {
	Score               int    `json:"score"`
	Feedback            string `json:"feedback"`
	Strengths           string `json:"strengths,omitempty"`
	AreasForImprovement string `json:"areas_for_improvement,omitempty"`
	Citation            string `json:"citation,omitempty"`
}

type challengeAnswerView struct {
	Question   string         `json:"question"`
	UserAnswer string         `json:"user_answer"`
	Evaluation evaluationView `json:"evaluation"`
}

type sessionView struct {
	ID                 string                      `json:"id"`
	Mode               string                      `json:"mode"`
	Document           *documentView               `json:"document,omitempty"`
	Summary            string                      `json:"summary,omitempty"`
	History            []qaEntryView               `json:"history"`
	ChallengeQuestions []challengeQuestionView     `json:"challenge_questions"`
	ChallengeAnswers   map[int]challengeAnswerView `json:"challenge_answers"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// formatCitation renders a citation the way the chat surface displays it.
func formatCitation(citation string) string {
	if citation == "" {
		return ""
	}
	return "Source: " + citation
}

func newEvaluationView(e domain.Evaluation) evaluationView {
	return evaluationView{
		Score:               e.Score,
		Feedback:            e.Feedback,
		Strengths:           e.Strengths,
		AreasForImprovement: e.AreasForImprovement,
		Citation:            formatCitation(e.Citation),
	}
}

func newQAEntryView(e domain.QAEntry) qaEntryView {
	return qaEntryView{
		Question:   e.Question,
		Answer:     e.Answer,
		Citation:   formatCitation(e.Citation),
		Confidence: e.Confidence,
	}
}

func newChallengeQuestionViews(sess *domain.Session) []challengeQuestionView {
	views := make([]challengeQuestionView, 0, len(sess.ChallengeQuestions))
	for i, q := range sess.ChallengeQuestions {
		_, answered := sess.ChallengeAnswers[i]
		views = append(views, challengeQuestionView{
			Index:             i,
			Question:          q.Question,
			ReasoningRequired: q.ReasoningRequired,
			Answered:          answered,
		})
	}
	return views
}

func newSessionView(sess *domain.Session) sessionView {
	view := sessionView{
		ID:                 sess.ID,
		Mode:               string(sess.Mode),
		Summary:            sess.Summary,
		History:            make([]qaEntryView, 0, len(sess.QAHistory)),
		ChallengeQuestions: newChallengeQuestionViews(sess),
		ChallengeAnswers:   make(map[int]challengeAnswerView, len(sess.ChallengeAnswers)),
		CreatedAt:          sess.CreatedAt,
		UpdatedAt:          sess.UpdatedAt,
	}
	if sess.Document != nil {
		view.Document = &documentView{
			Name:        sess.Document.Name,
			Stats:       sess.Document.Stats,
			Substantial: sess.Document.Substantial(),
		}
	}
	for _, e := range sess.QAHistory {
		view.History = append(view.History, newQAEntryView(e))
	}
	for idx, answer := range sess.ChallengeAnswers {
		question := ""
		if idx >= 0 && idx < len(sess.ChallengeQuestions) {
			question = sess.ChallengeQuestions[idx].Question
		}
		view.ChallengeAnswers[idx] = challengeAnswerView{
			Question:   question,
			UserAnswer: answer.UserAnswer,
			Evaluation: newEvaluationView(answer.Evaluation),
		}
	}
	return view
}
