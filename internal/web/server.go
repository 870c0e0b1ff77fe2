package web

import (
	"net/http"

	"notebook/internal/config"
	"notebook/internal/mail"
	"notebook/internal/store"
)

type Server struct {
	cfg     config.Config
	store   *store.Store
	mux     *http.ServeMux
	views   *Templates
	mailer  mail.Mailer
	flashes *flashStore
}

func NewServer(cfg config.Config, st *store.Store, mailer mail.Mailer) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		mux:     http.NewServeMux(),
		views:   MustParseTemplates(),
		mailer:  mailer,
		flashes: newFlashStore(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.withUser(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/notes/create/", s.handleCreateNote)
	s.mux.HandleFunc("/notes/", s.handleNotes)
	s.mux.HandleFunc("/users/", s.handleUsers)
	s.mux.HandleFunc("/auth/register/", s.handleRegister)
	s.mux.HandleFunc("/auth/login/", s.handleLogin)
	s.mux.HandleFunc("/auth/logout/", s.handleLogout)
	s.mux.HandleFunc("/auth/password_reset/", s.handlePasswordReset)
	s.mux.HandleFunc("/auth/password_reset/done/", s.handlePasswordResetDone)
	s.mux.HandleFunc("/auth/reset/", s.handleResetConfirm)
	s.mux.HandleFunc("/auth/reset/done/", s.handleResetComplete)
	s.mux.HandleFunc("/accounts/profile/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})
	s.mux.Handle("/static/", s.staticHandler())
}

// render fills the ambient page context (current user, drained flashes) and
// writes the page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, data ViewData) {
	s.renderStatus(w, r, http.StatusOK, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, data ViewData) {
	data.CurrentUser = CurrentUser(r.Context())
	data.Flashes = s.flashes.Drain(flashKey(r))
	s.views.RenderPageStatus(w, status, data)
}
