package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yolodolo42/mockchat/internal/answer"
	"github.com/yolodolo42/mockchat/internal/chat"
	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/session"
)

type startResponse struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

type askRequest struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

type feedbackRequest struct {
	SessionID string `json:"sessionId"`
	AnswerID  string `json:"answerId"`
	Type      string `json:"type"`
}

type feedbackResponse struct {
	Feedback session.Feedback `json:"feedback"`
}

type renderRequest struct {
	Answer json.RawMessage `json:"answer"`
	Theme  string          `json:"theme,omitempty"`
}

type renderResponse struct {
	HTML string `json:"html"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps service errors to a status code and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrQuestionRequired):
		return http.StatusBadRequest, chat.ErrQuestionRequired.Error()
	case errors.Is(err, chat.ErrInvalidFeedback):
		return http.StatusBadRequest, chat.ErrInvalidFeedback.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, session.ErrSessionNotFound.Error()
	case errors.Is(err, session.ErrEntryNotFound):
		return http.StatusNotFound, session.ErrEntryNotFound.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Start(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(EventSessionUpdated, sess.ID)
	writeJSON(w, http.StatusOK, startResponse{SessionID: sess.ID, Title: sess.Title})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := s.svc.Ask(r.Context(), req.SessionID, req.Question)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(EventSessionUpdated, req.SessionID)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []session.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(r.Context(), r.PathValue("id"))
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(EventSessionDeleted, id)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fb, err := s.svc.Feedback(r.Context(), req.SessionID, req.AnswerID, req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.notify(EventSessionUpdated, req.SessionID)
	writeJSON(w, http.StatusOK, feedbackResponse{Feedback: fb})
}

// handleRender renders any answer value, stored or not, to an HTML fragment.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	theme := s.theme
	if req.Theme != "" {
		theme = render.ParseTheme(req.Theme)
	}
	tree := render.Answer(answer.Decode(req.Answer))
	writeJSON(w, http.StatusOK, renderResponse{HTML: string(render.HTML(tree, theme))})
}
