package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"notebook/internal/store"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.notFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	notePage, err := s.store.ListNotes(r.Context(), page, s.cfg.NotesPerPage)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, ViewData{
		Title:           "Notes",
		ContentTemplate: "note_list",
		NotePage:        notePage,
	})
}

// handleNotes dispatches /notes/{id}/, /notes/{id}/edit/ and
// /notes/{id}/delete/.
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	id, action, ok := parseNotePath(r.URL.Path)
	if !ok {
		s.notFound(w, r)
		return
	}
	switch action {
	case "":
		s.handleNoteDetail(w, r, id)
	case "edit":
		s.handleEditNote(w, r, id)
	case "delete":
		s.handleDeleteNote(w, r, id)
	default:
		s.notFound(w, r)
	}
}

func parseNotePath(path string) (int64, string, bool) {
	rest := strings.TrimPrefix(path, "/notes/")
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return 0, "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) > 2 {
		return 0, "", false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id < 1 {
		return 0, "", false
	}
	if len(parts) == 1 {
		return id, "", true
	}
	return id, parts[1], true
}

func (s *Server) handleNoteDetail(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	note, err := s.store.NoteByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	author, err := s.store.UserByID(r.Context(), note.AuthorID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	var profile *store.UserProfile
	if author != nil {
		profile = author.Profile
	}
	bodyHTML, err := renderMarkdown(note.Body)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, ViewData{
		Title:           note.Title,
		ContentTemplate: "note_detail",
		Note:            note,
		NoteHTML:        template.HTML(bodyHTML),
		Profile:         profile,
		CanModify:       CanModify(CurrentUser(r.Context()), note),
	})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		s.redirectToLogin(w, r)
		return
	}
	statuses, categories, err := s.formChoices(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, ViewData{
			Title:           "New note",
			ContentTemplate: "note_form",
			Mode:            "create",
			Statuses:        statuses,
			Categories:      categories,
			Form:            map[string]string{},
			FormErrors:      map[string]string{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := parseNoteForm(r, statuses, categories)
		if !form.Valid() {
			s.render(w, r, ViewData{
				Title:              "New note",
				ContentTemplate:    "note_form",
				Mode:               "create",
				Statuses:           statuses,
				Categories:         categories,
				Form:               form.Values,
				FormErrors:         form.Errors,
				SelectedCategories: form.Selected,
			})
			return
		}
		// The author is always the acting user, whatever the form said.
		id, err := s.store.CreateNote(r.Context(), store.NoteInput{
			Title:       form.Title,
			Body:        form.Body,
			AuthorID:    user.ID,
			StatusID:    form.StatusID,
			CategoryIDs: form.CategoryIDs,
		})
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.addFlash(r, "success", fmt.Sprintf("Note #%d created.", id))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleEditNote(w http.ResponseWriter, r *http.Request, id int64) {
	note, ok := s.loadNoteForModify(w, r, id)
	if !ok {
		return
	}
	statuses, categories, err := s.formChoices(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		selected := make(map[int64]bool, len(note.Categories))
		for _, c := range note.Categories {
			selected[c.ID] = true
		}
		s.render(w, r, ViewData{
			Title:           "Edit: " + note.Title,
			ContentTemplate: "note_form",
			Mode:            "edit",
			Note:            note,
			Statuses:        statuses,
			Categories:      categories,
			Form: map[string]string{
				"title":  note.Title,
				"body":   note.Body,
				"status": strconv.FormatInt(note.StatusID, 10),
			},
			FormErrors:         map[string]string{},
			SelectedCategories: selected,
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := parseNoteForm(r, statuses, categories)
		if !form.Valid() {
			s.addFlash(r, "error", "Please correct the errors below.")
			s.render(w, r, ViewData{
				Title:              "Edit: " + note.Title,
				ContentTemplate:    "note_form",
				Mode:               "edit",
				Note:               note,
				Statuses:           statuses,
				Categories:         categories,
				Form:               form.Values,
				FormErrors:         form.Errors,
				SelectedCategories: form.Selected,
			})
			return
		}
		err := s.store.UpdateNote(r.Context(), note.ID, store.NoteInput{
			Title:       form.Title,
			Body:        form.Body,
			StatusID:    form.StatusID,
			CategoryIDs: form.CategoryIDs,
		})
		if errors.Is(err, store.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.addFlash(r, "success", fmt.Sprintf("Note #%d updated.", note.ID))
		http.Redirect(w, r, fmt.Sprintf("/notes/%d/", note.ID), http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, id int64) {
	note, ok := s.loadNoteForModify(w, r, id)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		// Confirmation page only; deletion needs a POST.
		s.render(w, r, ViewData{
			Title:           "Delete: " + note.Title,
			ContentTemplate: "note_confirm_delete",
			Note:            note,
		})
	case http.MethodPost:
		err := s.store.DeleteNote(r.Context(), note.ID)
		if errors.Is(err, store.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.addFlash(r, "success", "Note deleted.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		s.methodNotAllowed(w)
	}
}

// loadNoteForModify fetches the note and runs the authorization check shared
// by edit and delete. It writes the response on failure.
func (s *Server) loadNoteForModify(w http.ResponseWriter, r *http.Request, id int64) (*store.Note, bool) {
	// Anonymous visitors go to login before the note is even looked up, so
	// the redirect does not reveal whether the note exists.
	user := CurrentUser(r.Context())
	if user == nil {
		s.redirectToLogin(w, r)
		return nil, false
	}
	note, err := s.store.NoteByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r)
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return nil, false
	}
	if !CanModify(user, note) {
		s.permissionDenied(w, r)
		return nil, false
	}
	return note, true
}

func (s *Server) formChoices(r *http.Request) ([]store.Status, []store.Category, error) {
	statuses, err := s.store.Statuses(r.Context())
	if err != nil {
		return nil, nil, err
	}
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return statuses, categories, nil
}
