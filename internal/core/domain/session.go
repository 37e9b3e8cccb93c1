package domain

import "time"

type Mode string

const (
	ModeNone        Mode = "none"
	ModeAskAnything Mode = "ask_anything"
	ModeChallengeMe Mode = "challenge_me"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeAskAnything, ModeChallengeMe, ModeNone:
		return Mode(raw), true
	default:
		return ModeNone, false
	}
}

// QAEntry is one answered question. QAHistory is append-only; the most
// recent entries feed the context window of follow-up prompts.
type QAEntry struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Citation   string `json:"citation"`
	Confidence string `json:"confidence,omitempty"`
}

type ChallengeQuestion struct {
	Question          string `json:"question"`
	ExpectedAnswer    string `json:"expected_answer"`
	ReasoningRequired string `json:"reasoning_required"`
}

type Evaluation struct {
	Score               int    `json:"score"`
	Feedback            string `json:"feedback"`
	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
	Citation            string `json:"citation"`
}

type ChallengeAnswer struct {
	UserAnswer string     `json:"user_answer"`
	Evaluation Evaluation `json:"evaluation"`
}

// Session is the root aggregate of one interactive document session.
// All derived state (summary, history, challenge state) is cleared whenever
// the document is replaced or cleared.
type Session struct {
	ID                 string                  `json:"id"`
	Document           *Document               `json:"document,omitempty"`
	Summary            string                  `json:"summary,omitempty"`
	QAHistory          []QAEntry               `json:"qa_history"`
	ChallengeQuestions []ChallengeQuestion     `json:"challenge_questions"`
	ChallengeAnswers   map[int]ChallengeAnswer `json:"challenge_answers"`
	Mode               Mode                    `json:"mode"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:                 id,
		QAHistory:          []QAEntry{},
		ChallengeQuestions: []ChallengeQuestion{},
		ChallengeAnswers:   map[int]ChallengeAnswer{},
		Mode:               ModeNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ClearDerived drops document-derived state while keeping session identity.
func (s *Session) ClearDerived() {
	s.Document = nil
	s.Summary = ""
	s.QAHistory = []QAEntry{}
	s.ChallengeQuestions = []ChallengeQuestion{}
	s.ChallengeAnswers = map[int]ChallengeAnswer{}
}

// Reset returns the session to its empty initial state.
func (s *Session) Reset() {
	s.ClearDerived()
	s.Mode = ModeNone
}

func (s *Session) HasDocument() bool {
	return s.Document != nil && s.Document.Text != ""
}
