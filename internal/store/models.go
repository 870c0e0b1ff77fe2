package store

import "time"

type User struct {
	ID        int64
	Username  string
	Email     string
	IsStaff   bool
	CreatedAt time.Time
	Profile   *UserProfile
}

// UserProfile is optional display data; a user without a profile row is a
// valid steady state.
type UserProfile struct {
	UserID      int64
	DisplayName string
	Bio         string
}

type Status struct {
	ID   int64
	Name string
}

type Category struct {
	ID   int64
	Name string
}

type Note struct {
	ID         int64
	Title      string
	Body       string
	AuthorID   int64
	AuthorName string
	StatusID   int64
	StatusName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Categories []Category
}

type NoteInput struct {
	Title       string
	Body        string
	AuthorID    int64
	StatusID    int64
	CategoryIDs []int64
}

type NotePage struct {
	Notes      []Note
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

func (p NotePage) HasPrev() bool { return p.Page > 1 }

func (p NotePage) HasNext() bool { return p.Page < p.TotalPages }

func (p NotePage) PrevPage() int { return p.Page - 1 }

func (p NotePage) NextPage() int { return p.Page + 1 }
