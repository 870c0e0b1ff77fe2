package web

import (
	"net/http"
	"strconv"
	"strings"

	"notebook/internal/store"
)

const (
	maxTitleLen    = 200
	maxUsernameLen = 150
	minPasswordLen = 8
)

type noteForm struct {
	Title       string
	Body        string
	StatusID    int64
	CategoryIDs []int64
	Values      map[string]string
	Selected    map[int64]bool
	Errors      map[string]string
}

func (f noteForm) Valid() bool { return len(f.Errors) == 0 }

// parseNoteForm validates the submitted note fields against the offered
// status and category sets. Any author field in the submission is ignored.
func parseNoteForm(r *http.Request, statuses []store.Status, categories []store.Category) noteForm {
	f := noteForm{
		Values:   map[string]string{},
		Selected: map[int64]bool{},
		Errors:   map[string]string{},
	}
	f.Title = strings.TrimSpace(r.PostFormValue("title"))
	f.Body = strings.TrimSpace(r.PostFormValue("body"))
	f.Values["title"] = f.Title
	f.Values["body"] = f.Body
	f.Values["status"] = r.PostFormValue("status")

	if f.Title == "" {
		f.Errors["title"] = "Title is required."
	} else if len(f.Title) > maxTitleLen {
		f.Errors["title"] = "Title is too long."
	}
	if f.Body == "" {
		f.Errors["body"] = "Body is required."
	}

	statusID, err := strconv.ParseInt(r.PostFormValue("status"), 10, 64)
	if err != nil || !validStatus(statusID, statuses) {
		f.Errors["status"] = "Choose a valid status."
	} else {
		f.StatusID = statusID
	}

	valid := make(map[int64]bool, len(categories))
	for _, c := range categories {
		valid[c.ID] = true
	}
	for _, raw := range r.PostForm["categories"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || !valid[id] {
			f.Errors["categories"] = "Choose valid categories."
			continue
		}
		if !f.Selected[id] {
			f.Selected[id] = true
			f.CategoryIDs = append(f.CategoryIDs, id)
		}
	}
	return f
}

func validStatus(id int64, statuses []store.Status) bool {
	for _, st := range statuses {
		if st.ID == id {
			return true
		}
	}
	return false
}

type registerForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	Values    map[string]string
	Errors    map[string]string
}

func (f registerForm) Valid() bool { return len(f.Errors) == 0 }

func parseRegisterForm(r *http.Request) registerForm {
	f := registerForm{
		Values: map[string]string{},
		Errors: map[string]string{},
	}
	f.Username = strings.TrimSpace(r.PostFormValue("username"))
	f.Email = strings.TrimSpace(r.PostFormValue("email"))
	f.Password = r.PostFormValue("password1")
	f.Password2 = r.PostFormValue("password2")
	f.Values["username"] = f.Username
	f.Values["email"] = f.Email

	if f.Username == "" {
		f.Errors["username"] = "Username is required."
	} else if len(f.Username) > maxUsernameLen {
		f.Errors["username"] = "Username is too long."
	} else if !validUsername(f.Username) {
		f.Errors["username"] = "Use letters, digits and ._- only."
	}
	if f.Email == "" || !strings.Contains(f.Email, "@") {
		f.Errors["email"] = "Enter a valid email address."
	}
	if len(f.Password) < minPasswordLen {
		f.Errors["password1"] = "Password must be at least 8 characters."
	}
	if f.Password != f.Password2 {
		f.Errors["password2"] = "Passwords do not match."
	}
	return f
}

func validUsername(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

type passwordForm struct {
	Password  string
	Password2 string
	Errors    map[string]string
}

func (f passwordForm) Valid() bool { return len(f.Errors) == 0 }

func parsePasswordForm(r *http.Request) passwordForm {
	f := passwordForm{Errors: map[string]string{}}
	f.Password = r.PostFormValue("password1")
	f.Password2 = r.PostFormValue("password2")
	if len(f.Password) < minPasswordLen {
		f.Errors["password1"] = "Password must be at least 8 characters."
	}
	if f.Password != f.Password2 {
		f.Errors["password2"] = "Passwords do not match."
	}
	return f
}
