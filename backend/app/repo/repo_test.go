package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"blog-system/backend/app/db"
	"blog-system/backend/app/models"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(db.Config{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x", Role: models.RoleUser}
	if err := NewUserRepository(gdb).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedArticles(t *testing.T, r *ArticleRepository, author *models.User, n int) []*models.Article {
	t.Helper()
	out := make([]*models.Article, 0, n)
	for i := 0; i < n; i++ {
		a := &models.Article{
			Title:      fmt.Sprintf("title %d", i),
			Content:    fmt.Sprintf("content %d", i),
			AuthorID:   author.ID,
			DatePosted: time.Now(),
		}
		if err := r.Add(context.Background(), a); err != nil {
			t.Fatalf("add article: %v", err)
		}
		out = append(out, a)
	}
	return out
}

func TestUserRepository_FindByUsername(t *testing.T) {
	gdb := newTestDB(t)
	users := NewUserRepository(gdb)
	ctx := context.Background()
	alice := seedUser(t, gdb, "alice")

	got, err := users.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if got == nil || got.ID != alice.ID {
		t.Fatalf("FindByUsername() = %+v, want id %d", got, alice.ID)
	}

	missing, err := users.FindByUsername(ctx, "bob")
	if err != nil || missing != nil {
		t.Fatalf("FindByUsername(missing) = %+v, %v; want nil, nil", missing, err)
	}

	count, err := users.CountByUsername(ctx, "alice")
	if err != nil || count != 1 {
		t.Fatalf("CountByUsername() = %d, %v", count, err)
	}

	byID, err := users.FindByID(ctx, alice.ID)
	if err != nil || byID == nil || byID.Username != "alice" {
		t.Fatalf("FindByID() = %+v, %v", byID, err)
	}
	if none, err := users.FindByID(ctx, 999); err != nil || none != nil {
		t.Fatalf("FindByID(missing) = %+v, %v", none, err)
	}
}

func TestArticleRepository_AddAndFind(t *testing.T) {
	gdb := newTestDB(t)
	articles := NewArticleRepository(gdb)
	ctx := context.Background()
	alice := seedUser(t, gdb, "alice")

	a := seedArticles(t, articles, alice, 1)[0]
	if a.ID == 0 {
		t.Fatal("Add() did not assign an id")
	}

	got, err := articles.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Title != a.Title || got.Content != a.Content {
		t.Errorf("FindByID() = %q/%q, want %q/%q", got.Title, got.Content, a.Title, a.Content)
	}
	if got.Author == nil || got.Author.Username != "alice" {
		t.Errorf("author not preloaded: %+v", got.Author)
	}

	missing, err := articles.FindByID(ctx, a.ID+100)
	if err != nil || missing != nil {
		t.Errorf("FindByID(missing) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestArticleRepository_ListAndFilter(t *testing.T) {
	gdb := newTestDB(t)
	articles := NewArticleRepository(gdb)
	ctx := context.Background()
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	seedArticles(t, articles, alice, 2)
	seedArticles(t, articles, bob, 3)

	all, err := articles.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("ListAll() returned %d, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("ListAll() not ordered by id: %d before %d", all[i-1].ID, all[i].ID)
		}
	}
	for _, a := range all {
		if a.Author == nil {
			t.Fatalf("article %d has no author", a.ID)
		}
	}

	bobs, err := articles.FindByAuthor(ctx, bob.ID)
	if err != nil {
		t.Fatalf("FindByAuthor() error = %v", err)
	}
	if len(bobs) != 3 {
		t.Fatalf("FindByAuthor() returned %d, want 3", len(bobs))
	}
	for _, a := range bobs {
		if a.AuthorID != bob.ID {
			t.Errorf("article %d belongs to %d", a.ID, a.AuthorID)
		}
	}

	count, err := articles.Count(ctx)
	if err != nil || count != 5 {
		t.Fatalf("Count() = %d, %v", count, err)
	}
}

func TestArticleRepository_FindAt(t *testing.T) {
	gdb := newTestDB(t)
	articles := NewArticleRepository(gdb)
	ctx := context.Background()
	seeded := seedArticles(t, articles, seedUser(t, gdb, "alice"), 3)

	for i, want := range seeded {
		got, err := articles.FindAt(ctx, i)
		if err != nil {
			t.Fatalf("FindAt(%d) error = %v", i, err)
		}
		if got == nil || got.ID != want.ID {
			t.Fatalf("FindAt(%d) = %+v, want id %d", i, got, want.ID)
		}
	}
	for _, offset := range []int{-1, 3, 10} {
		got, err := articles.FindAt(ctx, offset)
		if err != nil || got != nil {
			t.Errorf("FindAt(%d) = %+v, %v; want nil, nil", offset, got, err)
		}
	}
}

func TestArticleRepository_UpdateOnlyTitleAndContent(t *testing.T) {
	gdb := newTestDB(t)
	articles := NewArticleRepository(gdb)
	ctx := context.Background()
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")

	posted := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &models.Article{Title: "old", Content: "old body", ImagePath: "/content/images/a.png", AuthorID: alice.ID, DatePosted: posted}
	if err := articles.Add(ctx, a); err != nil {
		t.Fatal(err)
	}

	changed := *a
	changed.Title = "new"
	changed.Content = "new body"
	changed.AuthorID = bob.ID
	changed.ImagePath = ""
	changed.DatePosted = time.Now()
	if err := articles.Update(ctx, &changed); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := articles.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new" || got.Content != "new body" {
		t.Errorf("title/content not updated: %q/%q", got.Title, got.Content)
	}
	if got.AuthorID != alice.ID {
		t.Errorf("author reassigned to %d", got.AuthorID)
	}
	if got.ImagePath != "/content/images/a.png" {
		t.Errorf("image path changed to %q", got.ImagePath)
	}
	if !got.DatePosted.Equal(posted) {
		t.Errorf("date posted changed to %v", got.DatePosted)
	}
}

func TestArticleRepository_Remove(t *testing.T) {
	gdb := newTestDB(t)
	articles := NewArticleRepository(gdb)
	ctx := context.Background()
	a := seedArticles(t, articles, seedUser(t, gdb, "alice"), 1)[0]

	if err := articles.Remove(ctx, a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, err := articles.FindByID(ctx, a.ID)
	if err != nil || got != nil {
		t.Fatalf("FindByID after Remove = %+v, %v", got, err)
	}
}
