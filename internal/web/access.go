package web

import "notebook/internal/store"

// CanModify reports whether user may edit or delete the note: the note's
// author and staff users may, anonymous visitors and everyone else may not.
func CanModify(user *store.User, note *store.Note) bool {
	if user == nil || note == nil {
		return false
	}
	return user.IsStaff || user.ID == note.AuthorID
}
