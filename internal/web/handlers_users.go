package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"notebook/internal/store"
)

// handleUsers dispatches /users/ and /users/{id}/.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		s.handleUserList(w, r)
		return
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id < 1 || strings.Contains(rest, "/") {
		s.notFound(w, r)
		return
	}
	s.handleUserDetail(w, r, id)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, ViewData{
		Title:           "Users",
		ContentTemplate: "user_list",
		Users:           users,
	})
}

func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request, id int64) {
	user, err := s.store.UserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	notes, err := s.store.NotesByAuthor(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, ViewData{
		Title:           user.Username,
		ContentTemplate: "user_detail",
		PageUser:        user,
		Profile:         user.Profile,
		UserNotes:       notes,
	})
}
