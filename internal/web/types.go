package web

import (
	"html/template"

	"notebook/internal/store"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML

	CurrentUser *store.User
	Flashes     []Flash

	NotePage  store.NotePage
	Note      *store.Note
	NoteHTML  template.HTML
	CanModify bool

	Users     []store.User
	PageUser  *store.User
	Profile   *store.UserProfile
	UserNotes []store.Note

	Statuses           []store.Status
	Categories         []store.Category
	SelectedCategories map[int64]bool

	Form       map[string]string
	FormErrors map[string]string
	Mode       string
	Next       string

	ResetUID   int64
	ResetToken string
}
