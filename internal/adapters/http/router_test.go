package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

type svcFake struct {
	sess      *domain.Session
	entry     *domain.QAEntry
	answer    *domain.ChallengeAnswer
	questions []domain.ChallengeQuestion
	passages  []string
	err       error

	gotFilename string
	gotData     []byte
	gotMode     domain.Mode
	gotIndex    int
}

func (f *svcFake) Create(context.Context) (*domain.Session, error) {
	return f.sess, f.err
}

func (f *svcFake) Get(context.Context, string) (*domain.Session, error) {
	return f.sess, f.err
}

func (f *svcFake) UploadDocument(_ context.Context, _, filename string, data []byte) (*domain.Session, error) {
	f.gotFilename = filename
	f.gotData = data
	return f.sess, f.err
}

func (f *svcFake) ClearDocument(context.Context, string) (*domain.Session, error) {
	return f.sess, f.err
}

func (f *svcFake) SelectMode(_ context.Context, _ string, mode domain.Mode) (*domain.Session, error) {
	f.gotMode = mode
	return f.sess, f.err
}

func (f *svcFake) SubmitQuestion(context.Context, string, string) (*domain.QAEntry, error) {
	return f.entry, f.err
}

func (f *svcFake) SubmitChallengeAnswer(_ context.Context, _ string, index int, _ string) (*domain.ChallengeAnswer, error) {
	f.gotIndex = index
	return f.answer, f.err
}

func (f *svcFake) RegenerateChallenge(context.Context, string) ([]domain.ChallengeQuestion, error) {
	return f.questions, f.err
}

func (f *svcFake) RelevantPassages(context.Context, string, string, int) ([]string, error) {
	return f.passages, f.err
}

type usageFake struct {
	extractions []string
	words       []int
	scores      []int
}

func (f *usageFake) RecordExtraction(format string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	f.extractions = append(f.extractions, format+":"+status)
}

func (f *usageFake) ObserveDocumentWords(words int) { f.words = append(f.words, words) }
func (f *usageFake) ObserveChallengeScore(s int)    { f.scores = append(f.scores, s) }

func newTestRouter(svc *svcFake, usage UsageMetrics) http.Handler {
	return NewRouter(svc, nil, usage, nil, 1<<20).Handler()
}

func sessionWithDocument() *domain.Session {
	sess := domain.NewSession("sess-1", time.Now().UTC())
	sess.Document = &domain.Document{
		Name: "paper.pdf",
		Text: "document body",
		Stats: domain.DocumentStats{
			Lines: 10, Words: 120, Characters: 800, ReadingTimeMinutes: 1,
		},
	}
	sess.Summary = "a short summary"
	return sess
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestRouter(&svcFake{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestCreateSessionReturns201(t *testing.T) {
	handler := newTestRouter(&svcFake{sess: domain.NewSession("sess-1", time.Now().UTC())}, nil)
	res := postJSON(t, handler, "/v1/sessions", map[string]any{})

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["id"] != "sess-1" || body["mode"] != "none" {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestGetUnknownSessionReturns404(t *testing.T) {
	handler := newTestRouter(&svcFake{
		err: domain.WrapError(domain.ErrSessionNotFound, "get session", errors.New("id=missing")),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestUploadDocumentSuccess(t *testing.T) {
	svc := &svcFake{sess: sessionWithDocument()}
	usage := &usageFake{}
	handler := newTestRouter(svc, usage)

	body, contentType := multipartBody(t, "paper.pdf", []byte("%PDF-fake"))
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/document", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if svc.gotFilename != "paper.pdf" || string(svc.gotData) != "%PDF-fake" {
		t.Fatalf("service got filename=%q data=%q", svc.gotFilename, svc.gotData)
	}

	resp := decodeBody(t, res)
	doc, ok := resp["document"].(map[string]any)
	if !ok {
		t.Fatalf("expected document in response: %+v", resp)
	}
	if doc["name"] != "paper.pdf" {
		t.Fatalf("unexpected document view: %+v", doc)
	}
	if _, leaked := doc["text"]; leaked {
		t.Fatalf("document text must not leave the API")
	}
	if resp["summary"] != "a short summary" {
		t.Fatalf("expected summary in response: %+v", resp)
	}
	if len(usage.extractions) != 1 || usage.extractions[0] != "pdf:success" {
		t.Fatalf("unexpected extraction observations: %v", usage.extractions)
	}
	if len(usage.words) != 1 || usage.words[0] != 120 {
		t.Fatalf("unexpected word observations: %v", usage.words)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestRouter(&svcFake{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/document", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentRejectsOversizedBody(t *testing.T) {
	svc := &svcFake{sess: sessionWithDocument()}
	handler := NewRouter(svc, nil, nil, nil, 64).Handler()

	body, contentType := multipartBody(t, "big.txt", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/document", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
	if svc.gotFilename != "" {
		t.Fatalf("service must not be called for oversized uploads")
	}
}

func TestUploadUnsupportedFormatReturns422(t *testing.T) {
	usage := &usageFake{}
	handler := newTestRouter(&svcFake{
		err: domain.WrapError(domain.ErrUnsupportedFormat, "extract", errors.New(".docx")),
	}, usage)

	body, contentType := multipartBody(t, "report.docx", []byte("zip-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/document", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
	if len(usage.extractions) != 1 || usage.extractions[0] != "docx:error" {
		t.Fatalf("unexpected extraction observations: %v", usage.extractions)
	}
}

func TestSelectModeRejectsUnknownMode(t *testing.T) {
	handler := newTestRouter(&svcFake{}, nil)
	res := postJSON(t, handler, "/v1/sessions/sess-1/mode", map[string]string{"mode": "quiz_mode"})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSelectModeWithoutDocumentReturns409(t *testing.T) {
	handler := newTestRouter(&svcFake{
		err: domain.NewError(domain.ErrNoDocument, "select mode", "no document uploaded"),
	}, nil)
	res := postJSON(t, handler, "/v1/sessions/sess-1/mode", map[string]string{"mode": "ask_anything"})

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestSubmitQuestionFormatsCitation(t *testing.T) {
	handler := newTestRouter(&svcFake{
		entry: &domain.QAEntry{
			Question:   "what?",
			Answer:     "that",
			Citation:   "paragraph 2",
			Confidence: "high",
		},
	}, nil)
	res := postJSON(t, handler, "/v1/sessions/sess-1/questions", map[string]string{"question": "what?"})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["citation"] != "Source: paragraph 2" {
		t.Fatalf("unexpected citation: %+v", body)
	}
	if body["answer"] != "that" || body["confidence"] != "high" {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestSubmitQuestionMapsModelFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "malformed reply",
			err:    domain.WrapError(domain.ErrMalformedResponse, "answer question", errors.New("not json")),
			status: http.StatusBadGateway,
		},
		{
			name:   "temporary outage",
			err:    domain.WrapError(domain.ErrModelFailure, "answer question", domain.ErrTemporary),
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "permanent failure",
			err:    domain.WrapError(domain.ErrModelFailure, "answer question", errors.New("401 unauthorized")),
			status: http.StatusBadGateway,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestRouter(&svcFake{err: tc.err}, nil)
			res := postJSON(t, handler, "/v1/sessions/sess-1/questions", map[string]string{"question": "q"})
			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, res.Code)
			}
		})
	}
}

func TestSubmitChallengeAnswer(t *testing.T) {
	usage := &usageFake{}
	svc := &svcFake{
		answer: &domain.ChallengeAnswer{
			UserAnswer: "my answer",
			Evaluation: domain.Evaluation{
				Score:    85,
				Feedback: "solid",
				Citation: "section 3",
			},
		},
	}
	handler := newTestRouter(svc, usage)
	res := postJSON(t, handler, "/v1/sessions/sess-1/challenge/1", map[string]string{"answer": "my answer"})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if svc.gotIndex != 1 {
		t.Fatalf("expected index 1, got %d", svc.gotIndex)
	}
	body := decodeBody(t, res)
	evaluation, ok := body["evaluation"].(map[string]any)
	if !ok {
		t.Fatalf("expected evaluation in response: %+v", body)
	}
	if evaluation["score"] != float64(85) || evaluation["citation"] != "Source: section 3" {
		t.Fatalf("unexpected evaluation: %+v", evaluation)
	}
	if len(usage.scores) != 1 || usage.scores[0] != 85 {
		t.Fatalf("unexpected score observations: %v", usage.scores)
	}
}

func TestSubmitChallengeAnswerRejectsNonIntegerIndex(t *testing.T) {
	handler := newTestRouter(&svcFake{}, nil)
	res := postJSON(t, handler, "/v1/sessions/sess-1/challenge/first", map[string]string{"answer": "a"})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRegenerateChallengeHidesExpectedAnswers(t *testing.T) {
	handler := newTestRouter(&svcFake{
		questions: []domain.ChallengeQuestion{
			{Question: "q1", ExpectedAnswer: "secret-1", ReasoningRequired: "inference"},
			{Question: "q2", ExpectedAnswer: "secret-2", ReasoningRequired: "synthesis"},
			{Question: "q3", ExpectedAnswer: "secret-3", ReasoningRequired: "analysis"},
		},
	}, nil)
	res := postJSON(t, handler, "/v1/sessions/sess-1/challenge:regenerate", map[string]any{})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	raw := res.Body.String()
	if strings.Contains(raw, "secret-1") || strings.Contains(raw, "expected_answer") {
		t.Fatalf("expected answers must not leave the API: %s", raw)
	}

	body := decodeBody(t, res)
	questions, ok := body["questions"].([]any)
	if !ok || len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %+v", body)
	}
}

func TestRelevantPassages(t *testing.T) {
	handler := newTestRouter(&svcFake{passages: []string{"p1", "p2"}}, nil)
	res := postJSON(t, handler, "/v1/sessions/sess-1/passages", map[string]any{"question": "q", "count": 2})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	passages, ok := body["passages"].([]any)
	if !ok || len(passages) != 2 {
		t.Fatalf("unexpected passages: %+v", body)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	handler := newTestRouter(&svcFake{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected %s header on every response", requestIDHeader)
	}
}

func TestRequestIDHeaderIsPropagated(t *testing.T) {
	handler := newTestRouter(&svcFake{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}
