package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kirillkom/research-assistant/internal/core/domain"
	"github.com/kirillkom/research-assistant/internal/core/ports"
)

// UsageMetrics receives domain-level observations from the handlers.
// A nil recorder disables them.
type UsageMetrics interface {
	RecordExtraction(format string, err error)
	ObserveDocumentWords(words int)
	ObserveChallengeScore(score int)
}

type Router struct {
	svc            ports.SessionService
	logger         *slog.Logger
	usage          UsageMetrics
	metricsHandler http.Handler
	maxUploadBytes int64
}

func NewRouter(
	svc ports.SessionService,
	logger *slog.Logger,
	usage UsageMetrics,
	metricsHandler http.Handler,
	maxUploadBytes int64,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		svc:            svc,
		logger:         logger,
		usage:          usage,
		metricsHandler: metricsHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metricsHandler != nil {
		mux.Handle("GET /metrics", rt.metricsHandler)
	}
	mux.HandleFunc("POST /v1/sessions", rt.createSession)
	mux.HandleFunc("GET /v1/sessions/{id}", rt.getSession)
	mux.HandleFunc("POST /v1/sessions/{id}/document", rt.uploadDocument)
	mux.HandleFunc("DELETE /v1/sessions/{id}/document", rt.clearDocument)
	mux.HandleFunc("POST /v1/sessions/{id}/mode", rt.selectMode)
	mux.HandleFunc("POST /v1/sessions/{id}/questions", rt.submitQuestion)
	mux.HandleFunc("POST /v1/sessions/{id}/challenge/{index}", rt.submitChallengeAnswer)
	mux.HandleFunc("POST /v1/sessions/{id}/challenge:regenerate", rt.regenerateChallenge)
	mux.HandleFunc("POST /v1/sessions/{id}/passages", rt.relevantPassages)

	return requestIDMiddleware(accessLogMiddleware(rt.logger, mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := rt.svc.Create(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := rt.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("uploaded file exceeds the size limit"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if tooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("uploaded file exceeds the size limit"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("could not read uploaded file"))
		return
	}

	sess, err := rt.svc.UploadDocument(r.Context(), r.PathValue("id"), fileHeader.Filename, data)
	rt.recordUpload(fileHeader.Filename, sess, err)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (rt *Router) recordUpload(filename string, sess *domain.Session, err error) {
	if rt.usage == nil {
		return
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	rt.usage.RecordExtraction(format, err)
	if err == nil && sess != nil && sess.Document != nil {
		rt.usage.ObserveDocumentWords(sess.Document.Stats.Words)
	}
}

func (rt *Router) clearDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := rt.svc.ClearDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (rt *Router) selectMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	mode, ok := domain.ParseMode(req.Mode)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be 'ask_anything' or 'challenge_me'"))
		return
	}

	sess, err := rt.svc.SelectMode(r.Context(), r.PathValue("id"), mode)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (rt *Router) submitQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	entry, err := rt.svc.SubmitQuestion(r.Context(), r.PathValue("id"), req.Question)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQAEntryView(*entry))
}

func (rt *Router) submitChallengeAnswer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("question index must be an integer"))
		return
	}

	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	answer, err := rt.svc.SubmitChallengeAnswer(r.Context(), r.PathValue("id"), index, req.Answer)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.usage != nil {
		rt.usage.ObserveChallengeScore(answer.Evaluation.Score)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_answer": answer.UserAnswer,
		"evaluation":  newEvaluationView(answer.Evaluation),
	})
}

func (rt *Router) regenerateChallenge(w http.ResponseWriter, r *http.Request) {
	questions, err := rt.svc.RegenerateChallenge(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	views := make([]challengeQuestionView, 0, len(questions))
	for i, q := range questions {
		views = append(views, challengeQuestionView{
			Index:             i,
			Question:          q.Question,
			ReasoningRequired: q.ReasoningRequired,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

func (rt *Router) relevantPassages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		Count    int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	passages, err := rt.svc.RelevantPassages(r.Context(), r.PathValue("id"), req.Question, req.Count)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if passages == nil {
		passages = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"passages": passages})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func tooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	// The multipart reader can swallow the typed error.
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
