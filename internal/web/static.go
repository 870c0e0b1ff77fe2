package web

import (
	"net/http"
	"path/filepath"
	"runtime"
)

func staticDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("unable to resolve static path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	return filepath.Join(root, "static")
}

func (s *Server) staticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir())))
}
