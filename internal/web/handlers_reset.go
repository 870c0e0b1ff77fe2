package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"notebook/internal/auth"
	"notebook/internal/mail"
	"notebook/internal/store"
)

// handlePasswordReset serves the request-a-reset form. POST always lands on
// the done page, whether or not the email matched an account.
func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/auth/password_reset/" {
		s.notFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, ViewData{
			Title:           "Password reset",
			ContentTemplate: "password_reset_form",
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		if email != "" {
			if err := s.sendResetMail(r, email); err != nil {
				slog.Error("password reset mail", "err", err)
			}
		}
		http.Redirect(w, r, "/auth/password_reset/done/", http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) sendResetMail(r *http.Request, email string) error {
	user, err := s.store.UserByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.store.CreateResetToken(r.Context(), user.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/auth/reset/%d/%s/", strings.TrimRight(s.cfg.BaseURL, "/"), user.ID, token)
	body := fmt.Sprintf(
		"Hello %s,\n\nSomeone requested a password reset for your notebook account.\n"+
			"Follow this link to choose a new password:\n\n%s\n\n"+
			"If this was not you, you can ignore this message.\n",
		user.Username, link)
	return s.mailer.Send(r.Context(), mail.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body:    body,
	})
}

func (s *Server) handlePasswordResetDone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	s.render(w, r, ViewData{
		Title:           "Password reset sent",
		ContentTemplate: "password_reset_done",
	})
}

// handleResetConfirm serves /auth/reset/{uid}/{token}/: the choose-a-new-
// password form behind an emailed link.
func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/auth/reset/")
	rest = strings.TrimSuffix(rest, "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		s.notFound(w, r)
		return
	}
	uid, err := strconv.ParseInt(parts[0], 10, 64)
	token := parts[1]
	if err != nil || uid < 1 || token == "" {
		s.notFound(w, r)
		return
	}

	user, err := s.store.UserByResetToken(r.Context(), uid, token)
	if errors.Is(err, store.ErrNotFound) {
		s.render(w, r, ViewData{
			Title:           "Invalid reset link",
			ContentTemplate: "password_reset_invalid",
		})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, ViewData{
			Title:           "Choose a new password",
			ContentTemplate: "password_reset_confirm",
			ResetUID:        uid,
			ResetToken:      token,
			FormErrors:      map[string]string{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := parsePasswordForm(r)
		if !form.Valid() {
			s.render(w, r, ViewData{
				Title:           "Choose a new password",
				ContentTemplate: "password_reset_confirm",
				ResetUID:        uid,
				ResetToken:      token,
				FormErrors:      form.Errors,
			})
			return
		}
		hash, err := auth.HashPassword(form.Password)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		err = s.store.ResetPassword(r.Context(), user.ID, token, hash)
		if errors.Is(err, store.ErrNotFound) {
			s.render(w, r, ViewData{
				Title:           "Invalid reset link",
				ContentTemplate: "password_reset_invalid",
			})
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		http.Redirect(w, r, "/auth/reset/done/", http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	s.render(w, r, ViewData{
		Title:           "Password reset complete",
		ContentTemplate: "password_reset_complete",
	})
}
