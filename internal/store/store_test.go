// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "forms-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func createTestUser(t *testing.T, q *Queries, email, role string) User {
	t.Helper()
	now := time.Now()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		Name:         "User " + email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func createTestTemplate(t *testing.T, q *Queries, authorID int64, isPublic bool) Template {
	t.Helper()
	tmpl, err := q.CreateTemplate(context.Background(), CreateTemplateParams{
		Title:       "Survey",
		Description: "About things",
		Topic:       "Education",
		IsPublic:    isPublic,
		AuthorID:    authorID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	return tmpl
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	user := createTestUser(t, q, "test@example.com", "USER")

	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}

	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Email: "test@example.com", Name: "Dup", PasswordHash: "x", Role: "USER",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	created := createTestUser(t, q, "mixed@example.com", "USER")

	got, err := q.GetUserByEmail(context.Background(), "MIXED@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}

	_, err = q.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing user error = %v, want sql.ErrNoRows", err)
	}
}

func TestCreateUserEmailUniqueIgnoresCase(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "bob@example.com", "USER")

	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Email: "BOB@example.com", Name: "Bob", PasswordHash: "x", Role: "USER",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("case-variant email error = %v, want ErrConflict", err)
	}
}

func TestUpdateUserRoleAndActive(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	u := createTestUser(t, q, "a@example.com", "USER")

	promoted, err := q.UpdateUserRole(ctx, u.ID, "ADMIN", time.Now())
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	if promoted.Role != "ADMIN" {
		t.Errorf("Role = %q, want ADMIN", promoted.Role)
	}

	n, err := q.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("CountAdmins: %v", err)
	}
	if n != 1 {
		t.Errorf("CountAdmins = %d, want 1", n)
	}

	blocked, err := q.UpdateUserActive(ctx, u.ID, false, time.Now())
	if err != nil {
		t.Fatalf("UpdateUserActive: %v", err)
	}
	if blocked.IsActive {
		t.Error("user should be blocked")
	}

	if _, err := q.UpdateUserRole(ctx, 9999, "ADMIN", time.Now()); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown user error = %v, want sql.ErrNoRows", err)
	}
}

func TestToggleTemplateVisibility(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)

	got, err := q.ToggleTemplateVisibility(ctx, tmpl.ID, time.Now())
	if err != nil {
		t.Fatalf("ToggleTemplateVisibility: %v", err)
	}
	if got {
		t.Error("first toggle should make the template private")
	}

	got, err = q.ToggleTemplateVisibility(ctx, tmpl.ID, time.Now())
	if err != nil {
		t.Fatalf("ToggleTemplateVisibility: %v", err)
	}
	if !got {
		t.Error("second toggle should make the template public")
	}

	if _, err := q.ToggleTemplateVisibility(ctx, 9999, time.Now()); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown template error = %v, want sql.ErrNoRows", err)
	}
}

func TestToggleTemplateVisibilityConcurrent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)

	const toggles = 10
	var wg sync.WaitGroup
	errs := make(chan error, toggles)
	for range toggles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.ToggleTemplateVisibility(ctx, tmpl.ID, time.Now()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ToggleTemplateVisibility: %v", err)
	}

	v, err := q.GetTemplateVisibility(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("GetTemplateVisibility: %v", err)
	}
	// An even number of atomic flips returns to the start state.
	if !v.IsPublic {
		t.Error("template should be public after an even number of toggles")
	}
}

func TestSetTemplateVisibility(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)

	for _, want := range []bool{false, false, true} {
		got, err := q.SetTemplateVisibility(ctx, tmpl.ID, want, time.Now())
		if err != nil {
			t.Fatalf("SetTemplateVisibility(%v): %v", want, err)
		}
		if got != want {
			t.Errorf("SetTemplateVisibility(%v) = %v", want, got)
		}
	}
}

func TestTemplateTags(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	a := createTestTemplate(t, q, author.ID, true)
	b := createTestTemplate(t, q, author.ID, true)

	if err := q.SetTemplateTags(ctx, a.ID, []string{"go", "survey", "go"}); err != nil {
		t.Fatalf("SetTemplateTags: %v", err)
	}
	if err := q.SetTemplateTags(ctx, b.ID, []string{"go"}); err != nil {
		t.Fatalf("SetTemplateTags: %v", err)
	}

	tags, err := q.ListTagsForTemplates(ctx, []int64{a.ID, b.ID})
	if err != nil {
		t.Fatalf("ListTagsForTemplates: %v", err)
	}
	if len(tags[a.ID]) != 2 || tags[a.ID][0] != "go" || tags[a.ID][1] != "survey" {
		t.Errorf("tags[a] = %v, want [go survey]", tags[a.ID])
	}

	counts, err := q.ListTags(ctx, 10)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(counts) != 2 || counts[0].Tag != "go" || counts[0].Count != 2 {
		t.Errorf("ListTags = %+v", counts)
	}

	filtered, err := q.ListPublicTemplates(ctx, TemplateFilter{Tag: "survey", Limit: 10})
	if err != nil {
		t.Fatalf("ListPublicTemplates: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != a.ID {
		t.Errorf("tag filter returned %d templates", len(filtered))
	}
}

func TestListTemplatesByAuthor(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	other := createTestUser(t, q, "other@example.com", "USER")
	createTestTemplate(t, q, author.ID, true)
	createTestTemplate(t, q, author.ID, false)
	createTestTemplate(t, q, other.ID, true)

	all, err := q.ListTemplatesByAuthor(ctx, author.ID, nil)
	if err != nil {
		t.Fatalf("ListTemplatesByAuthor: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	private := false
	onlyPrivate, err := q.ListTemplatesByAuthor(ctx, author.ID, &private)
	if err != nil {
		t.Fatalf("ListTemplatesByAuthor: %v", err)
	}
	if len(onlyPrivate) != 1 || onlyPrivate[0].IsPublic {
		t.Errorf("private filter returned %+v", onlyPrivate)
	}
}

func TestAllowListIdempotent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	reader := createTestUser(t, q, "reader@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, false)

	added, err := q.AddAllowedUser(ctx, tmpl.ID, reader.ID, time.Now())
	if err != nil || !added {
		t.Fatalf("first AddAllowedUser = %v, %v", added, err)
	}
	added, err = q.AddAllowedUser(ctx, tmpl.ID, reader.ID, time.Now())
	if err != nil {
		t.Fatalf("second AddAllowedUser: %v", err)
	}
	if added {
		t.Error("second add should not insert a row")
	}

	ids, err := q.ListAllowedUserIDs(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("ListAllowedUserIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != reader.ID {
		t.Errorf("allow-list = %v, want [%d]", ids, reader.ID)
	}

	shared, err := q.ListTemplatesSharedWith(ctx, reader.ID)
	if err != nil {
		t.Fatalf("ListTemplatesSharedWith: %v", err)
	}
	if len(shared) != 1 {
		t.Errorf("shared templates = %d, want 1", len(shared))
	}

	for i := range 2 {
		removed, err := q.RemoveAllowedUser(ctx, tmpl.ID, reader.ID)
		if err != nil {
			t.Fatalf("RemoveAllowedUser #%d: %v", i, err)
		}
		if removed != (i == 0) {
			t.Errorf("RemoveAllowedUser #%d removed = %v", i, removed)
		}
	}

	ids, err = q.ListAllowedUserIDs(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("ListAllowedUserIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("allow-list = %v, want empty", ids)
	}
}

func TestCreateLikeUnique(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	fan := createTestUser(t, q, "fan@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- q.CreateLike(ctx, tmpl.ID, fan.ID, time.Now())
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("CreateLike: %v", err)
		}
	}
	if ok != 1 || conflicts != attempts-1 {
		t.Errorf("ok = %d, conflicts = %d", ok, conflicts)
	}

	n, err := q.CountLikes(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("CountLikes: %v", err)
	}
	if n != 1 {
		t.Errorf("CountLikes = %d, want 1", n)
	}

	if _, err := q.DeleteLike(ctx, tmpl.ID, fan.ID); err != nil {
		t.Fatalf("DeleteLike: %v", err)
	}
	if liked, _ := q.HasLiked(ctx, tmpl.ID, fan.ID); liked {
		t.Error("like should be gone")
	}
}

func TestQuestionOwnershipAndOrder(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)

	var ids []int64
	for _, text := range []string{"Name?", "Age?", "Agree?"} {
		qn, err := q.CreateQuestion(ctx, CreateQuestionParams{
			TemplateID: tmpl.ID, Text: text, Type: "SINGLE_LINE", ShowInTable: true, CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
		if qn.Position != int64(len(ids)) {
			t.Errorf("Position = %d, want %d", qn.Position, len(ids))
		}
		ids = append(ids, qn.ID)
	}

	own, err := q.GetQuestionOwnership(ctx, ids[1])
	if err != nil {
		t.Fatalf("GetQuestionOwnership: %v", err)
	}
	if own.AuthorID != author.ID || own.TemplateID != tmpl.ID {
		t.Errorf("ownership = %+v", own)
	}

	err = RunInTx(ctx, db, func(tx *Queries) error {
		for pos, id := range []int64{ids[2], ids[0], ids[1]} {
			if err := tx.SetQuestionPosition(ctx, tmpl.ID, id, pos, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	list, err := q.ListQuestionsByTemplate(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("ListQuestionsByTemplate: %v", err)
	}
	if list[0].ID != ids[2] || list[1].ID != ids[0] || list[2].ID != ids[1] {
		t.Errorf("order = %d,%d,%d", list[0].ID, list[1].ID, list[2].ID)
	}

	if err := q.SetQuestionPosition(ctx, tmpl.ID+1, ids[0], 0, time.Now()); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("foreign question error = %v, want sql.ErrNoRows", err)
	}
}

func TestFormSubmissionRollsBack(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	submitter := createTestUser(t, q, "sub@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)
	qn, err := q.CreateQuestion(ctx, CreateQuestionParams{
		TemplateID: tmpl.ID, Text: "Name?", Type: "SINGLE_LINE", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	err = RunInTx(ctx, db, func(tx *Queries) error {
		f, err := tx.CreateForm(ctx, tmpl.ID, submitter.ID, time.Now())
		if err != nil {
			return err
		}
		for range 2 {
			if _, err := tx.CreateAnswer(ctx, CreateAnswerParams{FormID: f.ID, QuestionID: qn.ID, Value: "x", CreatedAt: time.Now()}); err != nil {
				return err
			}
		}
		return nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate answer error = %v, want ErrConflict", err)
	}

	forms, err := q.ListFormsByUser(ctx, submitter.ID)
	if err != nil {
		t.Fatalf("ListFormsByUser: %v", err)
	}
	if len(forms) != 0 {
		t.Errorf("forms = %d, want 0 after rollback", len(forms))
	}
}

func TestAnswerOwnership(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	submitter := createTestUser(t, q, "sub@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)
	qn, err := q.CreateQuestion(ctx, CreateQuestionParams{
		TemplateID: tmpl.ID, Text: "Age?", Type: "INTEGER", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	f, err := q.CreateForm(ctx, tmpl.ID, submitter.ID, time.Now())
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	a, err := q.CreateAnswer(ctx, CreateAnswerParams{FormID: f.ID, QuestionID: qn.ID, Value: "42", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("CreateAnswer: %v", err)
	}

	own, err := q.GetAnswerOwnership(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAnswerOwnership: %v", err)
	}
	if own.UserID != submitter.ID || own.TemplateAuthorID != author.ID || own.FormID != f.ID {
		t.Errorf("ownership = %+v", own)
	}

	fo, err := q.GetFormOwnership(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFormOwnership: %v", err)
	}
	if fo.UserID != submitter.ID || fo.TemplateAuthorID != author.ID {
		t.Errorf("form ownership = %+v", fo)
	}

	updated, err := q.UpdateAnswer(ctx, a.ID, "43", time.Now())
	if err != nil {
		t.Fatalf("UpdateAnswer: %v", err)
	}
	if updated.Value != "43" {
		t.Errorf("Value = %q, want 43", updated.Value)
	}

	summary, err := q.GetTemplateSummary(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("GetTemplateSummary: %v", err)
	}
	if summary.FormCount != 1 {
		t.Errorf("FormCount = %d, want 1", summary.FormCount)
	}

	if _, err := q.DeleteTemplate(ctx, tmpl.ID); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := q.GetAnswerOwnership(ctx, a.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("answer should cascade with its template, got %v", err)
	}
}

func TestCommentsAndOwnership(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "author@example.com", "USER")
	tmpl := createTestTemplate(t, q, author.ID, true)

	c, err := q.CreateComment(ctx, tmpl.ID, author.ID, "Nice", time.Now())
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.UserName != author.Name {
		t.Errorf("UserName = %q, want %q", c.UserName, author.Name)
	}

	own, err := q.GetCommentOwnership(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCommentOwnership: %v", err)
	}
	if own.UserID != author.ID {
		t.Errorf("comment owner = %d, want %d", own.UserID, author.ID)
	}

	n, err := q.DeleteComment(ctx, c.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteComment = %d, %v", n, err)
	}
}

func TestCRMCredentialUpsert(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	u := createTestUser(t, q, "crm@example.com", "USER")
	soon := time.Now().Add(5 * time.Minute)

	_, err := q.UpsertCRMCredential(ctx, UpsertCRMCredentialParams{
		UserID: u.ID, Provider: "salesforce", AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer",
		Expiry: sql.NullTime{Time: soon, Valid: true}, InstanceURL: "https://example.my.salesforce.com", Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertCRMCredential: %v", err)
	}

	// A refresh response without refresh token keeps the stored one.
	cred, err := q.UpsertCRMCredential(ctx, UpsertCRMCredentialParams{
		UserID: u.ID, Provider: "salesforce", AccessToken: "a2", TokenType: "Bearer",
		Expiry: sql.NullTime{Time: soon, Valid: true}, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertCRMCredential: %v", err)
	}
	if cred.AccessToken != "a2" || cred.RefreshToken != "r1" || cred.InstanceURL == "" {
		t.Errorf("credential = %+v", cred)
	}

	expiring, err := q.ListCRMCredentialsExpiringBefore(ctx, time.Now().Add(15*time.Minute))
	if err != nil {
		t.Fatalf("ListCRMCredentialsExpiringBefore: %v", err)
	}
	if len(expiring) != 1 {
		t.Errorf("expiring = %d, want 1", len(expiring))
	}
}

func TestEventsRetention(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().Add(-100 * 24 * time.Hour)
	for _, at := range []time.Time{old, time.Now()} {
		if _, err := q.CreateEvent(ctx, CreateEventParams{
			Level: "warning", Category: "access", Message: "denied", Metadata: "{}", CreatedAt: at,
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	n, err := q.DeleteOldEvents(ctx, time.Now().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Category: "access", Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}

func TestSeedAdmin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := SeedAdmin(ctx, db, "root@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	u, err := New(db).GetUserByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.Role != "ADMIN" || !u.IsActive || u.Name != DefaultAdminName {
		t.Errorf("seeded user = %+v", u)
	}

	// A second run keeps the existing row.
	if err := SeedAdmin(ctx, db, "root@example.com", "other-pass"); err != nil {
		t.Fatalf("SeedAdmin again: %v", err)
	}
	again, err := New(db).GetUserByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if again.PasswordHash != u.PasswordHash {
		t.Error("existing admin should not be overwritten")
	}
}
