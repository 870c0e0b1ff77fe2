package web

import (
	"errors"
	"net/http"

	"notebook/internal/auth"
	"notebook/internal/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	// Already signed in: straight back to the note list, form untouched.
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, ViewData{
			Title:           "Register",
			ContentTemplate: "register",
			Form:            map[string]string{},
			FormErrors:      map[string]string{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := parseRegisterForm(r)
		if form.Valid() {
			if _, err := s.store.UserByUsername(r.Context(), form.Username); err == nil {
				form.Errors["username"] = "This username is already taken."
			} else if !errors.Is(err, store.ErrNotFound) {
				s.serverError(w, r, err)
				return
			}
			if _, err := s.store.UserByEmail(r.Context(), form.Email); err == nil {
				form.Errors["email"] = "This email is already registered."
			} else if !errors.Is(err, store.ErrNotFound) {
				s.serverError(w, r, err)
				return
			}
		}
		if !form.Valid() {
			s.render(w, r, ViewData{
				Title:           "Register",
				ContentTemplate: "register",
				Form:            form.Values,
				FormErrors:      form.Errors,
			})
			return
		}
		hash, err := auth.HashPassword(form.Password)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		userID, err := s.store.CreateUser(r.Context(), form.Username, form.Email, hash, false)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		token, err := s.login(w, r, userID)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.addFlashForSession(token, "success", "Registration successful!")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	next := safeNext(r.URL.Query().Get("next"))

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, ViewData{
			Title:           "Log in",
			ContentTemplate: "login",
			Next:            next,
			Form:            map[string]string{},
			FormErrors:      map[string]string{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next = safeNext(r.PostFormValue("next"))
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		user, err := s.store.UserByUsername(r.Context(), username)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.serverError(w, r, err)
			return
		}
		authenticated := false
		if user != nil {
			hash, err := s.store.PasswordHash(r.Context(), user.ID)
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			authenticated = auth.VerifyPassword(hash, password)
		}
		if !authenticated {
			s.render(w, r, ViewData{
				Title:           "Log in",
				ContentTemplate: "login",
				Next:            next,
				Form:            map[string]string{"username": username},
				FormErrors:      map[string]string{"__all__": "Invalid username or password."},
			})
			return
		}
		if _, err := s.login(w, r, user.ID); err != nil {
			s.serverError(w, r, err)
			return
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
		if r.Method == http.MethodPost {
			s.logout(w, r)
		}
		// The logged-out page renders without a user either way.
		s.views.RenderPageStatus(w, http.StatusOK, ViewData{
			Title:           "Logged out",
			ContentTemplate: "logout",
		})
	default:
		s.methodNotAllowed(w)
	}
}
