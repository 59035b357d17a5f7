package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"blog-system/backend/app/db"
	"blog-system/backend/app/events"
	"blog-system/backend/app/models"
	"blog-system/backend/app/repo"
	"blog-system/backend/app/storage"

	"github.com/spf13/afero"
	"gorm.io/gorm"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []events.Event
	PublishFn func(ctx context.Context, e events.Event) error
}

func (f *fakePublisher) Publish(ctx context.Context, e events.Event) error {
	f.mu.Lock()
	f.published = append(f.published, e)
	f.mu.Unlock()
	if f.PublishFn != nil {
		return f.PublishFn(ctx, e)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	gdb   *gorm.DB
	fs    afero.Fs
	pub   *fakePublisher
	svc   *ArticleService
	alice *Principal
	bob   *Principal
	admin *Principal
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Connect(db.Config{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	fs := afero.NewMemMapFs()
	images, err := storage.NewImageStore(fs, "images", "/content/images")
	if err != nil {
		t.Fatal(err)
	}
	pub := &fakePublisher{}
	svc := NewArticleService(repo.NewArticleRepository(gdb), images, pub)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	users := repo.NewUserRepository(gdb)
	mk := func(name, role string) *Principal {
		u := &models.User{Username: name, PasswordHash: "x", Role: role}
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		return &Principal{ID: u.ID, Username: u.Username, Role: u.Role}
	}
	return &fixture{
		gdb:   gdb,
		fs:    fs,
		pub:   pub,
		svc:   svc,
		alice: mk("alice", models.RoleUser),
		bob:   mk("bob", models.RoleUser),
		admin: mk("root", models.RoleAdmin),
		now:   now,
	}
}

func (f *fixture) create(t *testing.T, p *Principal, title string) *models.Article {
	t.Helper()
	a, err := f.svc.Create(context.Background(), p, ArticleInput{Title: title, Content: "body of " + title}, nil)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return a
}

func TestArticleService_CreateSetsAuthorAndDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, f.alice, "Hello")
	if a.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}
	if a.AuthorID != f.alice.ID {
		t.Errorf("AuthorID = %d, want %d", a.AuthorID, f.alice.ID)
	}
	if !a.DatePosted.Equal(f.now) {
		t.Errorf("DatePosted = %v, want %v", a.DatePosted, f.now)
	}

	got, err := f.svc.Details(ctx, a.ID)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if got.Title != "Hello" || got.Content != "body of Hello" {
		t.Errorf("Details() = %+v", got)
	}
	if got.Author == nil || got.Author.Username != "alice" {
		t.Errorf("Details() author = %+v, want alice", got.Author)
	}
	if types := f.pub.types(); len(types) != 1 || types[0] != events.ArticleCreated {
		t.Errorf("published = %v", types)
	}
}

func TestArticleService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		in     ArticleInput
		fields []string
	}{
		{"empty title", ArticleInput{Title: "", Content: "c"}, []string{"Title"}},
		{"blank content", ArticleInput{Title: "t", Content: "   "}, []string{"Content"}},
		{"both missing", ArticleInput{}, []string{"Title", "Content"}},
		{"title too long", ArticleInput{Title: strings.Repeat("x", 401), Content: "c"}, []string{"Title"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.alice, tt.in, nil)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Create() error = %v, want ErrInvalidInput", err)
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error is not ValidationErrors: %T", err)
			}
			for _, field := range tt.fields {
				if verrs[field] == "" {
					t.Errorf("missing message for %s in %v", field, verrs)
				}
			}
		})
	}

	if n, _ := repo.NewArticleRepository(f.gdb).Count(context.Background()); n != 0 {
		t.Errorf("invalid input persisted %d articles", n)
	}

	a, err := f.svc.Create(context.Background(), f.alice, ArticleInput{Title: strings.Repeat("ж", 400), Content: "c"}, nil)
	if err != nil {
		t.Fatalf("400-character title rejected: %v", err)
	}
	if a.ID == 0 {
		t.Error("400-character title not stored")
	}
}

func TestArticleService_CreateImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.alice, ArticleInput{Title: "pic", Content: "c"},
		&storage.Upload{Filename: "cat.png", ContentType: "image/png", Body: strings.NewReader("PNG")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(a.ImagePath, "/content/images/") || !strings.HasSuffix(a.ImagePath, ".png") {
		t.Errorf("ImagePath = %q", a.ImagePath)
	}

	b, err := f.svc.Create(ctx, f.alice, ArticleInput{Title: "doc", Content: "c"},
		&storage.Upload{Filename: "x.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF")})
	if err != nil {
		t.Fatalf("Create(pdf) error = %v", err)
	}
	if b.ImagePath != "" {
		t.Errorf("pdf upload stored at %q, want dropped", b.ImagePath)
	}
	files, _ := afero.ReadDir(f.fs, "images")
	if len(files) != 1 {
		t.Errorf("stored files = %d, want 1", len(files))
	}
}

func TestArticleService_Details(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Details(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Details(999) error = %v, want ErrNotFound", err)
	}
}

func TestArticleService_MyArticles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.alice, "a1")
	f.create(t, f.bob, "b1")
	f.create(t, f.alice, "a2")

	mine, err := f.svc.MyArticles(ctx, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].Title != "a1" || mine[1].Title != "a2" {
		t.Errorf("MyArticles(alice) = %+v", mine)
	}
	if _, err := f.svc.MyArticles(ctx, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("MyArticles(nil) error = %v", err)
	}

	all, err := f.svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List() = %d articles, want 3", len(all))
	}
}

func TestArticleService_Random(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Random(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Random() on empty blog error = %v, want ErrNotFound", err)
	}

	only := f.create(t, f.alice, "only")
	for i := 0; i < 5; i++ {
		got, err := f.svc.Random(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != only.ID {
			t.Fatalf("Random() = %d, want %d", got.ID, only.ID)
		}
	}

	second := f.create(t, f.bob, "second")
	seen := map[uint]bool{}
	f.svc.intn = func(n int) int {
		if n != 2 {
			t.Fatalf("intn(%d), want 2", n)
		}
		return len(seen) % n
	}
	for i := 0; i < 2; i++ {
		got, err := f.svc.Random(ctx)
		if err != nil {
			t.Fatal(err)
		}
		seen[got.ID] = true
	}
	if !seen[only.ID] || !seen[second.ID] {
		t.Errorf("Random() did not reach both articles: %v", seen)
	}
}

func TestArticleService_EditAndDeleteAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, f.alice, "mine")

	tests := []struct {
		name    string
		p       *Principal
		allowed bool
	}{
		{"author", f.alice, true},
		{"other user", f.bob, false},
		{"admin", f.admin, true},
		{"anonymous", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.svc.CanEdit(tt.p, a); got != tt.allowed {
				t.Errorf("CanEdit() = %v, want %v", got, tt.allowed)
			}
			_, errEdit := f.svc.LoadForEdit(ctx, tt.p, a.ID)
			_, errDel := f.svc.LoadForDelete(ctx, tt.p, a.ID)
			if (errEdit == nil) != (errDel == nil) {
				t.Fatalf("edit/delete disagree: %v vs %v", errEdit, errDel)
			}
			if tt.allowed && errEdit != nil {
				t.Errorf("LoadForEdit() error = %v", errEdit)
			}
			if !tt.allowed && !errors.Is(errEdit, ErrForbidden) {
				t.Errorf("LoadForEdit() error = %v, want ErrForbidden", errEdit)
			}
		})
	}
}

func TestArticleService_SubmitRechecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, f.alice, "mine")

	if _, err := f.svc.Edit(ctx, f.bob, EditModel{ID: a.ID, Title: "hijacked", Content: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Edit() by non-owner error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Edit(ctx, f.bob, EditModel{ID: a.ID, Title: "", Content: ""}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Edit() by non-owner with empty fields error = %v, want ErrForbidden", err)
	}
	if err := f.svc.Delete(ctx, f.bob, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrForbidden", err)
	}
	got, err := f.svc.Details(ctx, a.ID)
	if err != nil {
		t.Fatalf("article gone after rejected delete: %v", err)
	}
	if got.Title != "mine" {
		t.Errorf("Title = %q after rejected edit", got.Title)
	}
}

func TestArticleService_Edit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, f.alice, "before")

	if _, err := f.svc.Edit(ctx, f.alice, EditModel{ID: 999, Title: "t", Content: "c"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Edit(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Edit(ctx, f.alice, EditModel{ID: a.ID, Title: "", Content: "c"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Edit(empty title) error = %v, want ErrInvalidInput", err)
	}

	if _, err := f.svc.Edit(ctx, f.admin, EditModel{ID: a.ID, Title: "after", Content: "new body"}); err != nil {
		t.Fatalf("Edit() by admin error = %v", err)
	}
	got, _ := f.svc.Details(ctx, a.ID)
	if got.Title != "after" || got.Content != "new body" {
		t.Errorf("after edit = %q / %q", got.Title, got.Content)
	}
	if got.AuthorID != f.alice.ID || !got.DatePosted.Equal(a.DatePosted) {
		t.Errorf("edit changed author or date: %+v", got)
	}
}

func TestArticleService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, f.alice, ArticleInput{Title: "gone", Content: "c"},
		&storage.Upload{ContentType: "image/gif", Body: strings.NewReader("GIF")})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Delete(ctx, f.alice, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
	if err := f.svc.Delete(ctx, f.alice, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.svc.Details(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Details() after delete error = %v", err)
	}
	files, _ := afero.ReadDir(f.fs, "images")
	if len(files) != 0 {
		t.Errorf("image left behind after delete: %d files", len(files))
	}
	types := f.pub.types()
	if len(types) != 2 || types[1] != events.ArticleDeleted {
		t.Errorf("published = %v", types)
	}
}

func TestArticleService_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.pub.PublishFn = func(context.Context, events.Event) error { return errors.New("broker down") }
	if _, err := f.svc.Create(context.Background(), f.alice, ArticleInput{Title: "t", Content: "c"}, nil); err != nil {
		t.Fatalf("Create() error = %v, want publish failure swallowed", err)
	}
}
