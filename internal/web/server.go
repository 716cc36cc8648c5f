// Package web serves the menu generator as server-rendered HTML.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/form"
	"seasonal-menu/internal/lifecycle"
	"seasonal-menu/internal/menu"
	"seasonal-menu/internal/metrics"
	"seasonal-menu/internal/notify"
	"seasonal-menu/internal/present"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	sessionCookie = "menu_session"
	maxFormBytes  = 64 << 10
)

// AppFactory builds the App for a new session. flash must receive the
// session's notifications.
type AppFactory func(flash notify.Notifier) *app.App

// Server handles HTTP requests for all sessions.
type Server struct {
	ctx       context.Context
	store     *sessionStore
	templates *template.Template
	logger    *zap.Logger
	dispatch  func(func())
	dataPath  string
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.store.ttl = ttl
		}
	}
}

// WithDispatcher replaces how outbound calls are started. The default runs
// each call on its own goroutine.
func WithDispatcher(fn func(func())) Option {
	return func(s *Server) { s.dispatch = fn }
}

// WithDataPath names the file or directory whose size /healthz reports.
func WithDataPath(path string) Option {
	return func(s *Server) { s.dataPath = path }
}

// NewServer creates a server. Calls started by any session run under ctx
// and stop when it is cancelled.
func NewServer(ctx context.Context, factory AppFactory, opts ...Option) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"selected": func(option any, current string) bool { return strings.EqualFold(fmt.Sprint(option), current) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		ctx:       ctx,
		store:     newSessionStore(30*time.Minute, factory),
		templates: tmpl,
		logger:    zap.NewNop(),
		dispatch:  func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /form", s.handleForm)
	mux.HandleFunc("POST /retry", s.handleRetry)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.store.sweep(); n > 0 {
				s.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.store.get(c.Value); ok {
			return sess
		}
	}
	id, sess := s.store.create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Debug("new session", zap.String("session", id))
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.mu.Lock()
	data := buildPage(sess.app.State(), sess.app.Form(), sess.flash.Drain())
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.templates.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	sess.mu.Lock()
	call, start, err := applyForm(sess.app, r)
	sess.mu.Unlock()

	if err != nil {
		s.logger.Debug("form action rejected", zap.Error(err))
	}
	if start {
		s.start(sess, call)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.mu.Lock()
	call, err := sess.app.Retry()
	sess.mu.Unlock()

	if err != nil {
		s.logger.Debug("retry rejected", zap.Error(err))
	} else {
		s.start(sess, call)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.mu.Lock()
	sess.app.Reset()
	sess.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := struct {
		Status   string            `json:"status"`
		Sessions int               `json:"sessions"`
		System   metrics.SysHealth `json:"system"`
	}{
		Status:   "ok",
		Sessions: s.store.len(),
		System:   metrics.GetSysHealth(s.dataPath),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write health response", zap.Error(err))
	}
}

func (s *Server) start(sess *session, call lifecycle.Call) {
	s.dispatch(func() {
		sess.app.Execute(s.ctx, call)
	})
}

// applyForm copies the posted fields into the form and performs the
// requested action. start reports whether call must be executed.
func applyForm(a *app.App, r *http.Request) (call lifecycle.Call, start bool, err error) {
	f := a.Form()
	for _, field := range []form.Field{form.FieldLocation, form.FieldSeason, form.FieldPlaceType} {
		if vals, ok := r.PostForm[string(field)]; ok && len(vals) > 0 {
			if err := f.UpdateField(field, vals[0]); err != nil {
				return lifecycle.Call{}, false, err
			}
		}
	}

	action, arg, _ := strings.Cut(r.PostFormValue("action"), ":")
	switch action {
	case "", "update":
		return lifecycle.Call{}, false, nil
	case "add_restriction":
		f.AddRestriction(r.PostFormValue("restriction"))
	case "add_preference":
		f.AddPreference(r.PostFormValue("preference"))
	case "remove_restriction", "remove_preference":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return lifecycle.Call{}, false, fmt.Errorf("invalid tag index %q: %w", arg, err)
		}
		if action == "remove_restriction" {
			return lifecycle.Call{}, false, f.RemoveRestriction(i)
		}
		return lifecycle.Call{}, false, f.RemovePreference(i)
	case "generate":
		return a.Generate()
	default:
		return lifecycle.Call{}, false, errors.New("unknown form action " + action)
	}
	return lifecycle.Call{}, false, nil
}

type formView struct {
	Request     menu.Request
	Seasons     []menu.Season
	PlaceTypes  []menu.PlaceType
	CanGenerate bool
}

type pageData struct {
	Phase  string
	Toasts []notify.Notification
	Form   formView
	Menu   *present.MenuView
	Error  string

	TitleLoading       string
	SubtitleLoading    string
	TitleFailed        string
	ActionRetry        string
	ActionBackToForm   string
	ActionGenerateMore string
	ActionGenerate     string
}

func buildPage(state lifecycle.State, f *form.Controller, toasts []notify.Notification) pageData {
	data := pageData{
		Phase:  state.Phase().String(),
		Toasts: toasts,
		Form: formView{
			Request:     f.Request(),
			Seasons:     menu.Seasons,
			PlaceTypes:  menu.PlaceTypes,
			CanGenerate: f.IsValid(),
		},
		TitleLoading:       present.TitleLoading,
		SubtitleLoading:    present.SubtitleLoading,
		TitleFailed:        present.TitleFailed,
		ActionRetry:        present.ActionRetry,
		ActionBackToForm:   present.ActionBackToForm,
		ActionGenerateMore: present.ActionGenerateMore,
		ActionGenerate:     present.ActionGenerate,
	}
	switch st := state.(type) {
	case lifecycle.Success:
		view := present.BuildMenu(st.Request, st.Response)
		data.Menu = &view
	case lifecycle.Failed:
		data.Error = st.Message
	}
	return data
}
