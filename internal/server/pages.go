package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yolodolo42/mockchat/internal/chat"
	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/session"
)

const themeCookie = "theme"

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Theme    render.Theme
	Sessions []session.Summary
	Current  *pageSession
	Error    string
}

type pageSession struct {
	ID      string
	Title   string
	Entries []pageEntry
}

type pageEntry struct {
	ID       string
	User     bool
	Question string
	Answer   template.HTML
	Feedback session.Feedback
}

func (s *Server) themeFor(r *http.Request) render.Theme {
	if c, err := r.Cookie(themeCookie); err == nil && c.Value != "" {
		return render.ParseTheme(c.Value)
	}
	return s.theme
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Theme = s.themeFor(r)
	if data.Sessions == nil {
		list, err := s.svc.Listing(r.Context())
		if err != nil {
			s.logger.Error("failed to list sessions", "error", err)
		}
		data.Sessions = list
	}

	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		s.logger.Error("template error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func newPageSession(sess session.Session, theme render.Theme) *pageSession {
	ps := &pageSession{ID: sess.ID, Title: chat.DisplayTitle(sess)}
	for _, e := range sess.History {
		pe := pageEntry{ID: e.ID}
		if e.EffectiveRole() == session.RoleUser {
			pe.User = true
			pe.Question = e.Question
		} else {
			pe.Answer = render.HTML(render.Answer(e.Answer()), theme)
			if e.Feedback != nil {
				pe.Feedback = *e.Feedback
			}
		}
		ps.Entries = append(ps.Entries, pe)
	}
	return ps
}

func (s *Server) pageIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, pageData{})
}

func (s *Server) pageChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		status, msg := errorStatus(err)
		s.renderPage(w, r, status, pageData{Error: msg})
		return
	}
	s.renderPage(w, r, http.StatusOK, pageData{Current: newPageSession(sess, s.themeFor(r))})
}

func (s *Server) pageNew(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Start(r.Context())
	if err != nil {
		status, msg := errorStatus(err)
		s.renderPage(w, r, status, pageData{Error: msg})
		return
	}
	s.notify(EventSessionUpdated, sess.ID)
	http.Redirect(w, r, chatPath(sess.ID, ""), http.StatusSeeOther)
}

func (s *Server) pageAsk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, err := s.svc.Ask(r.Context(), id, r.FormValue("question"))
	if errors.Is(err, chat.ErrQuestionRequired) {
		http.Redirect(w, r, chatPath(id, ""), http.StatusSeeOther)
		return
	}
	if err != nil {
		status, msg := errorStatus(err)
		s.renderPage(w, r, status, pageData{Error: msg})
		return
	}
	s.notify(EventSessionUpdated, id)
	http.Redirect(w, r, chatPath(id, entry.ID), http.StatusSeeOther)
}

func (s *Server) pageDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		status, msg := errorStatus(err)
		s.renderPage(w, r, status, pageData{Error: msg})
		return
	}
	s.notify(EventSessionDeleted, id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) pageFeedback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	answerID := r.FormValue("answerId")
	if _, err := s.svc.Feedback(r.Context(), id, answerID, r.FormValue("type")); err != nil {
		status, msg := errorStatus(err)
		s.renderPage(w, r, status, pageData{Error: msg})
		return
	}
	s.notify(EventSessionUpdated, id)
	http.Redirect(w, r, chatPath(id, answerID), http.StatusSeeOther)
}

// pageTheme flips the theme cookie and returns to the page it came from.
func (s *Server) pageTheme(w http.ResponseWriter, r *http.Request) {
	next := s.themeFor(r).Toggle()
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    string(next),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, localReturn(r.FormValue("return")), http.StatusSeeOther)
}

func chatPath(id, anchor string) string {
	p := "/chat/" + url.PathEscape(id)
	if anchor != "" {
		p += "#" + url.PathEscape(anchor)
	}
	return p
}

// localReturn accepts only same-site absolute paths.
func localReturn(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	return p
}

// spaHandler serves files from dir and falls back to index.html for paths
// that name no file, so client-side routes load the app.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil || info.IsDir() {
			index := filepath.Join(dir, "index.html")
			if _, err := os.Stat(index); err != nil {
				http.NotFound(w, r)
				return
			}
			http.ServeFile(w, r, index)
			return
		}
		files.ServeHTTP(w, r)
	})
}
