package web

import (
	"log/slog"
	"net/http"
)

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound, ViewData{
		Title:           "Not found",
		ContentTemplate: "not_found",
	})
}

// permissionDenied renders the 403 page. Authenticated-but-unauthorized is
// an error page, not a redirect.
func (s *Server) permissionDenied(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusForbidden, ViewData{
		Title:           "Access denied",
		ContentTemplate: "permission_denied",
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("handler error", "path", r.URL.Path, "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
