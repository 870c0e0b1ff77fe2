package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"notebook/internal/auth"
	"notebook/internal/config"
	"notebook/internal/mail"
	"notebook/internal/store"
)

type capturingMailer struct {
	messages []mail.Message
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

type testEnv struct {
	srv    *Server
	store  *store.Store
	mailer *capturingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "notebook.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Init(ctx); err != nil {
		t.Fatalf("init store: %v", err)
	}

	cfg := config.Config{
		ListenAddr:    "127.0.0.1:0",
		BaseURL:       "http://notebook.test",
		SessionTTL:    time.Hour,
		ResetTokenTTL: time.Hour,
		NotesPerPage:  10,
	}
	mailer := &capturingMailer{}
	return &testEnv{
		srv:    NewServer(cfg, st, mailer),
		store:  st,
		mailer: mailer,
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string, staff bool) int64 {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := e.store.CreateUser(context.Background(), username, username+"@example.com", hash, staff)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}

func (e *testEnv) sessionFor(t *testing.T, userID int64) *http.Cookie {
	t.Helper()
	token, err := e.store.CreateSession(context.Background(), userID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

func (e *testEnv) createNote(t *testing.T, authorID int64, title string) int64 {
	t.Helper()
	ctx := context.Background()
	statuses, err := e.store.Statuses(ctx)
	if err != nil || len(statuses) == 0 {
		t.Fatalf("statuses: %v", err)
	}
	id, err := e.store.CreateNote(ctx, store.NoteInput{
		Title:    title,
		Body:     "body of " + title,
		AuthorID: authorID,
		StatusID: statuses[0].ID,
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	return id
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestAnonymousCreateRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/notes/create/", nil)
	rec := env.do(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/auth/login/?next=") {
		t.Fatalf("expected redirect to login, got %q", loc)
	}
	if !strings.Contains(loc, url.QueryEscape("/notes/create/")) {
		t.Fatalf("expected next target in %q", loc)
	}
}

func TestCreateNoteForcesAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	cookie := env.sessionFor(t, alice)

	statuses, err := env.store.Statuses(context.Background())
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	rec := env.do(postForm("/notes/create/", url.Values{
		"title":  {"smuggled author"},
		"body":   {"text"},
		"status": {strconv.FormatInt(statuses[0].ID, 10)},
		"author": {"999"},
	}, cookie))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	notes, err := env.store.NotesByAuthor(context.Background(), alice)
	if err != nil {
		t.Fatalf("notes by author: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note for alice, got %d", len(notes))
	}
	if notes[0].AuthorID != alice {
		t.Fatalf("expected author %d, got %d", alice, notes[0].AuthorID)
	}
}

func TestCreateNoteInvalidRedisplaysForm(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	cookie := env.sessionFor(t, alice)

	rec := env.do(postForm("/notes/create/", url.Values{
		"title":  {""},
		"body":   {"text"},
		"status": {"1"},
	}, cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Title is required.") {
		t.Fatalf("expected field error in body")
	}
	notes, err := env.store.NotesByAuthor(context.Background(), alice)
	if err != nil {
		t.Fatalf("notes by author: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected no note written, got %d", len(notes))
	}
}

func TestGlobalListPageSize(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	for i := 0; i < 15; i++ {
		env.createNote(t, alice, "note "+strconv.Itoa(i))
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := strings.Count(rec.Body.String(), `class="note-title"`); got != 10 {
		t.Fatalf("expected 10 notes on page 1, got %d", got)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/?page=2", nil))
	if got := strings.Count(rec.Body.String(), `class="note-title"`); got != 5 {
		t.Fatalf("expected 5 notes on page 2, got %d", got)
	}
}

func TestDeleteRequiresPost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	cookie := env.sessionFor(t, alice)
	noteID := env.createNote(t, alice, "keep me")
	path := "/notes/" + strconv.FormatInt(noteID, 10) + "/delete/"

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected confirmation page, got %d", rec.Code)
	}
	if _, err := env.store.NoteByID(context.Background(), noteID); err != nil {
		t.Fatalf("GET must not delete the note: %v", err)
	}

	rec = env.do(postForm(path, url.Values{}, cookie))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after delete, got %d", rec.Code)
	}
	if _, err := env.store.NoteByID(context.Background(), noteID); err == nil {
		t.Fatal("expected note to be deleted after POST")
	}

	req = httptest.NewRequest(http.MethodGet, "/notes/"+strconv.FormatInt(noteID, 10)+"/", nil)
	if rec := env.do(req); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted note, got %d", rec.Code)
	}
}

func TestDeleteByNonAuthorDenied(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	bob := env.createUser(t, "bob", "password123", false)
	noteID := env.createNote(t, alice, "alice's note")
	path := "/notes/" + strconv.FormatInt(noteID, 10) + "/delete/"

	rec := env.do(postForm(path, url.Values{}, env.sessionFor(t, bob)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if _, err := env.store.NoteByID(context.Background(), noteID); err != nil {
		t.Fatalf("note must survive denied delete: %v", err)
	}
}

func TestDeleteByStaffAllowed(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	staff := env.createUser(t, "root", "password123", true)
	noteID := env.createNote(t, alice, "alice's note")
	path := "/notes/" + strconv.FormatInt(noteID, 10) + "/delete/"

	rec := env.do(postForm(path, url.Values{}, env.sessionFor(t, staff)))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
	if _, err := env.store.NoteByID(context.Background(), noteID); err == nil {
		t.Fatal("expected staff delete to remove the note")
	}
}

func TestEditByNonAuthorDenied(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	bob := env.createUser(t, "bob", "password123", false)
	noteID := env.createNote(t, alice, "alice's note")

	req := httptest.NewRequest(http.MethodGet, "/notes/"+strconv.FormatInt(noteID, 10)+"/edit/", nil)
	req.AddCookie(env.sessionFor(t, bob))
	rec := env.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestEditAnonymousRedirects(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	noteID := env.createNote(t, alice, "alice's note")

	req := httptest.NewRequest(http.MethodGet, "/notes/"+strconv.FormatInt(noteID, 10)+"/edit/", nil)
	rec := env.do(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect to login, got %d", rec.Code)
	}

	// A nonexistent note must look the same to an anonymous visitor: the
	// login redirect, not a 404 revealing whether the note exists.
	for _, path := range []string{"/notes/424242/edit/", "/notes/424242/delete/"} {
		rec := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect to login for %s, got %d", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/auth/login/?next=") {
			t.Fatalf("expected login redirect for %s, got %q", path, loc)
		}
	}
}

func TestUpdateInvalidLeavesNoteUnchanged(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	cookie := env.sessionFor(t, alice)
	noteID := env.createNote(t, alice, "stable title")

	before, err := env.store.NoteByID(context.Background(), noteID)
	if err != nil {
		t.Fatalf("load note: %v", err)
	}

	rec := env.do(postForm("/notes/"+strconv.FormatInt(noteID, 10)+"/edit/", url.Values{
		"title":  {""},
		"body":   {"tampered"},
		"status": {"1"},
	}, cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected redisplayed form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Title is required.") {
		t.Fatal("expected field error in body")
	}

	after, err := env.store.NoteByID(context.Background(), noteID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	if after.Title != before.Title || after.Body != before.Body || after.StatusID != before.StatusID {
		t.Fatalf("note changed on invalid update: %+v != %+v", after, before)
	}
}

func TestNoteDetailNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/notes/424242/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestUserPages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	env.createUser(t, "bob", "password123", false)
	env.createNote(t, alice, "alice note")
	if err := env.store.SaveProfile(context.Background(), alice, "Alice A.", "bio"); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/users/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alice") || !strings.Contains(body, "bob") {
		t.Fatal("expected both users listed")
	}
	if strings.Index(body, ">alice<") > strings.Index(body, ">bob<") {
		t.Fatal("expected alice before bob")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/users/"+strconv.FormatInt(alice, 10)+"/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body = rec.Body.String()
	if !strings.Contains(body, "Alice A.") {
		t.Fatal("expected profile display name on user page")
	}
	if !strings.Contains(body, "alice note") {
		t.Fatal("expected user's note on user page")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/users/9999/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestRegisterCreatesSessionAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(postForm("/auth/register/", url.Values{
		"username":  {"newuser"},
		"email":     {"newuser@example.com"},
		"password1": {"password123"},
		"password2": {"password123"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie after registration")
	}
	user, err := env.store.UserBySession(context.Background(), sessionCookie.Value)
	if err != nil {
		t.Fatalf("resolve session: %v", err)
	}
	if user.Username != "newuser" {
		t.Fatalf("expected session for newuser, got %q", user.Username)
	}

	// The flash queued against the fresh session shows on the next page.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie)
	rec = env.do(req)
	if !strings.Contains(rec.Body.String(), "Registration successful!") {
		t.Fatal("expected registration flash on next page")
	}
}

func TestRegisterInvalidRedisplays(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken", "password123", false)

	rec := env.do(postForm("/auth/register/", url.Values{
		"username":  {"taken"},
		"email":     {"x@example.com"},
		"password1": {"password123"},
		"password2": {"password123"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected redisplayed form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already taken") {
		t.Fatal("expected duplicate username error")
	}
}

func TestRegisterAuthenticatedRedirects(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)

	req := httptest.NewRequest(http.MethodGet, "/auth/register/", nil)
	req.AddCookie(env.sessionFor(t, alice))
	rec := env.do(req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "password123", false)

	rec := env.do(postForm("/auth/login/", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected redisplayed login form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username or password.") {
		t.Fatal("expected login error message")
	}

	rec = env.do(postForm("/auth/login/", url.Values{
		"username": {"alice"},
		"password": {"password123"},
		"next":     {"/users/"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/users/" {
		t.Fatalf("expected redirect to next target, got %q", loc)
	}
	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected session cookie after login")
	}

	rec = env.do(postForm("/auth/logout/", url.Values{}, sessionCookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected logged-out page, got %d", rec.Code)
	}
	if _, err := env.store.UserBySession(context.Background(), sessionCookie.Value); err == nil {
		t.Fatal("expected session to be deleted on logout")
	}
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "password123", false)

	rec := env.do(postForm("/auth/login/", url.Values{
		"username": {"alice"},
		"password": {"password123"},
		"next":     {"https://evil.example/"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected offsite next to fall back to /, got %q", loc)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "oldpassword1", false)

	rec := env.do(postForm("/auth/password_reset/", url.Values{
		"email": {"alice@example.com"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to done, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/password_reset/done/" {
		t.Fatalf("expected done redirect, got %q", loc)
	}
	if len(env.mailer.messages) != 1 {
		t.Fatalf("expected 1 reset mail, got %d", len(env.mailer.messages))
	}
	body := env.mailer.messages[0].Body
	idx := strings.Index(body, "/auth/reset/")
	if idx < 0 {
		t.Fatalf("expected reset link in mail body: %q", body)
	}
	link := body[idx:]
	link = strings.TrimSpace(strings.Split(link, "\n")[0])

	rec = env.do(httptest.NewRequest(http.MethodGet, link, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected confirm form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Choose a new password") {
		t.Fatal("expected password form")
	}

	rec = env.do(postForm(link, url.Values{
		"password1": {"newpassword1"},
		"password2": {"newpassword1"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to complete, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/reset/done/" {
		t.Fatalf("expected complete redirect, got %q", loc)
	}

	// New password works, old one does not.
	hash, err := env.store.PasswordHash(context.Background(), alice)
	if err != nil {
		t.Fatalf("password hash: %v", err)
	}
	if !verifyPassword(t, hash, "newpassword1") {
		t.Fatal("expected new password to verify")
	}
	if verifyPassword(t, hash, "oldpassword1") {
		t.Fatal("expected old password to fail")
	}

	// The link is single use.
	rec = env.do(httptest.NewRequest(http.MethodGet, link, nil))
	if !strings.Contains(rec.Body.String(), "invalid or has already been used") {
		t.Fatal("expected used link to be rejected")
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(postForm("/auth/password_reset/", url.Values{
		"email": {"nobody@example.com"},
	}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect regardless of match, got %d", rec.Code)
	}
	if len(env.mailer.messages) != 0 {
		t.Fatalf("expected no mail for unknown address, got %d", len(env.mailer.messages))
	}
}

func TestFlashShownOnceAfterDelete(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "password123", false)
	cookie := env.sessionFor(t, alice)
	noteID := env.createNote(t, alice, "short lived")

	rec := env.do(postForm("/notes/"+strconv.FormatInt(noteID, 10)+"/delete/", url.Values{}, cookie))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	if !strings.Contains(rec.Body.String(), "Note deleted.") {
		t.Fatal("expected delete flash on next page")
	}

	// Drained: a second render shows nothing.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	if strings.Contains(rec.Body.String(), "Note deleted.") {
		t.Fatal("expected flash to be shown only once")
	}
}

func TestAccountsProfileRedirect(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/accounts/profile/", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func verifyPassword(t *testing.T, phc, password string) bool {
	t.Helper()
	parsed, err := auth.ParseArgon2idHash(phc)
	if err != nil {
		t.Fatalf("parse hash: %v", err)
	}
	return parsed.Verify(password)
}
