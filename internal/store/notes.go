package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ListNotes returns one page of the global note list, newest first. Author
// and status come from the same query; categories for the page are loaded
// in a single batched query.
func (s *Store) ListNotes(ctx context.Context, page, perPage int) (NotePage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int
	if err := s.queryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&total); err != nil {
		return NotePage{}, fmt.Errorf("count notes: %w", err)
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	rows, err := s.queryContext(ctx, `
		SELECT n.id, n.title, n.body, n.author_id, u.username, n.status_id, st.name, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.author_id
		JOIN statuses st ON st.id = n.status_id
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT ? OFFSET ?`, perPage, (page-1)*perPage)
	if err != nil {
		return NotePage{}, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return NotePage{}, err
	}
	if err := s.attachCategories(ctx, notes); err != nil {
		return NotePage{}, err
	}
	return NotePage{
		Notes:      notes,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// NotesByAuthor returns all notes by one author, newest first, unpaginated.
func (s *Store) NotesByAuthor(ctx context.Context, authorID int64) ([]Note, error) {
	rows, err := s.queryContext(ctx, `
		SELECT n.id, n.title, n.body, n.author_id, u.username, n.status_id, st.name, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.author_id
		JOIN statuses st ON st.id = n.status_id
		WHERE n.author_id = ?
		ORDER BY n.created_at DESC, n.id DESC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("notes by author: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *Store) NoteByID(ctx context.Context, id int64) (*Note, error) {
	var n Note
	var createdUnix, updatedUnix int64
	err := s.queryRowContext(ctx, `
		SELECT n.id, n.title, n.body, n.author_id, u.username, n.status_id, st.name, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.author_id
		JOIN statuses st ON st.id = n.status_id
		WHERE n.id = ?`, id).
		Scan(&n.ID, &n.Title, &n.Body, &n.AuthorID, &n.AuthorName, &n.StatusID, &n.StatusName, &createdUnix, &updatedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("note by id: %w", err)
	}
	n.CreatedAt = time.Unix(createdUnix, 0)
	n.UpdatedAt = time.Unix(updatedUnix, 0)

	notes := []Note{n}
	if err := s.attachCategories(ctx, notes); err != nil {
		return nil, err
	}
	return &notes[0], nil
}

// CreateNote inserts the note row and its category links in one transaction.
func (s *Store) CreateNote(ctx context.Context, in NoteInput) (int64, error) {
	tx, start, err := s.beginTx(ctx, "create note")
	if err != nil {
		return 0, err
	}
	defer s.rollbackTx(tx, "create note", start)

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes(title, body, author_id, status_id, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)`,
		in.Title, in.Body, in.AuthorID, in.StatusID, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertCategoryLinks(ctx, tx, id, in.CategoryIDs); err != nil {
		return 0, err
	}
	if err := s.commitTx(tx, "create note", start); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateNote applies field changes and replaces category links atomically.
// The author column is never touched.
func (s *Store) UpdateNote(ctx context.Context, id int64, in NoteInput) error {
	tx, start, err := s.beginTx(ctx, "update note")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "update note", start)

	res, err := tx.ExecContext(ctx, `
		UPDATE notes SET title = ?, body = ?, status_id = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Body, in.StatusID, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM note_categories WHERE note_id = ?", id); err != nil {
		return fmt.Errorf("clear note categories: %w", err)
	}
	if err := insertCategoryLinks(ctx, tx, id, in.CategoryIDs); err != nil {
		return err
	}
	return s.commitTx(tx, "update note", start)
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	tx, start, err := s.beginTx(ctx, "delete note")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "delete note", start)

	if _, err := tx.ExecContext(ctx, "DELETE FROM note_categories WHERE note_id = ?", id); err != nil {
		return fmt.Errorf("delete note categories: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return s.commitTx(tx, "delete note", start)
}

func (s *Store) Statuses(ctx context.Context) ([]Status, error) {
	rows, err := s.queryContext(ctx, "SELECT id, name FROM statuses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []Status
	for rows.Next() {
		var st Status
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.queryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func insertCategoryLinks(ctx context.Context, tx *sql.Tx, noteID int64, categoryIDs []int64) error {
	for _, catID := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO note_categories(note_id, category_id) VALUES(?, ?)", noteID, catID); err != nil {
			return fmt.Errorf("link category %d: %w", catID, err)
		}
	}
	return nil
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		var n Note
		var createdUnix, updatedUnix int64
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.AuthorID, &n.AuthorName, &n.StatusID, &n.StatusName, &createdUnix, &updatedUnix); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(createdUnix, 0)
		n.UpdatedAt = time.Unix(updatedUnix, 0)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// attachCategories fills Categories for every note in one IN(...) query.
func (s *Store) attachCategories(ctx context.Context, notes []Note) error {
	if len(notes) == 0 {
		return nil
	}
	placeholders := make([]string, len(notes))
	args := make([]any, len(notes))
	byID := make(map[int64]*Note, len(notes))
	for i := range notes {
		placeholders[i] = "?"
		args[i] = notes[i].ID
		byID[notes[i].ID] = &notes[i]
	}
	query := fmt.Sprintf(`
		SELECT nc.note_id, c.id, c.name
		FROM note_categories nc
		JOIN categories c ON c.id = nc.category_id
		WHERE nc.note_id IN (%s)
		ORDER BY c.name`, strings.Join(placeholders, ","))
	rows, err := s.queryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("note categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID int64
		var c Category
		if err := rows.Scan(&noteID, &c.ID, &c.Name); err != nil {
			return err
		}
		if note, ok := byID[noteID]; ok {
			note.Categories = append(note.Categories, c)
		}
	}
	return rows.Err()
}
