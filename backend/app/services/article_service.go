package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"blog-system/backend/app/events"
	"blog-system/backend/app/models"
	"blog-system/backend/app/repo"
	"blog-system/backend/app/storage"
	"blog-system/backend/global"
)

// ArticleInput is the user-supplied part of a new article.
type ArticleInput struct {
	Title   string
	Content string
}

// EditModel carries the editable fields of an existing article.
type EditModel struct {
	ID      uint
	Title   string
	Content string
}

type ArticleService struct {
	articles *repo.ArticleRepository
	images   *storage.ImageStore
	events   events.Publisher
	now      func() time.Time
	intn     func(n int) int
}

func NewArticleService(articles *repo.ArticleRepository, images *storage.ImageStore, pub events.Publisher) *ArticleService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &ArticleService{
		articles: articles,
		images:   images,
		events:   pub,
		now:      time.Now,
		intn:     rand.Intn,
	}
}

func (s *ArticleService) List(ctx context.Context) ([]models.Article, error) {
	return s.articles.ListAll(ctx)
}

func (s *ArticleService) MyArticles(ctx context.Context, p *Principal) ([]models.Article, error) {
	if p == nil {
		return nil, ErrForbidden
	}
	return s.articles.FindByAuthor(ctx, p.ID)
}

// Random picks one article uniformly. An empty blog yields ErrNotFound.
func (s *ArticleService) Random(ctx context.Context) (*models.Article, error) {
	count, err := s.articles.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	a, err := s.articles.FindAt(ctx, s.intn(int(count)))
	if err != nil {
		return nil, err
	}
	if a == nil {
		// deleted between Count and FindAt
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *ArticleService) Details(ctx context.Context, id uint) (*models.Article, error) {
	return s.load(ctx, id)
}

// Create validates in, attaches the upload when its type is allowed and
// stores the article as authored by p. Uploads of other types are ignored.
func (s *ArticleService) Create(ctx context.Context, p *Principal, in ArticleInput, image *storage.Upload) (*models.Article, error) {
	if p == nil {
		return nil, ErrForbidden
	}
	if err := validate(in.Title, in.Content); err != nil {
		return nil, err
	}
	a := &models.Article{
		Title:      in.Title,
		Content:    in.Content,
		DatePosted: s.now(),
		AuthorID:   p.ID,
	}
	if image != nil && s.images != nil && storage.Allowed(image.ContentType) {
		path, err := s.images.Save(*image)
		if err != nil {
			return nil, err
		}
		a.ImagePath = path
	}
	if err := s.articles.Add(ctx, a); err != nil {
		if a.ImagePath != "" {
			_ = s.images.Remove(a.ImagePath)
		}
		return nil, err
	}
	a.Author = &models.User{ID: p.ID, Username: p.Username, Role: p.Role}
	s.publish(ctx, events.ArticleCreated, a)
	return a, nil
}

func (s *ArticleService) LoadForEdit(ctx context.Context, p *Principal, id uint) (*EditModel, error) {
	a, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return &EditModel{ID: a.ID, Title: a.Title, Content: a.Content}, nil
}

// Edit overwrites title and content. Ownership is checked again here, not
// only when the form was served.
func (s *ArticleService) Edit(ctx context.Context, p *Principal, m EditModel) (*models.Article, error) {
	a, err := s.loadOwned(ctx, p, m.ID)
	if err != nil {
		return nil, err
	}
	if err := validate(m.Title, m.Content); err != nil {
		return nil, err
	}
	a.Title = m.Title
	a.Content = m.Content
	if err := s.articles.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ArticleUpdated, a)
	return a, nil
}

func (s *ArticleService) LoadForDelete(ctx context.Context, p *Principal, id uint) (*models.Article, error) {
	return s.loadOwned(ctx, p, id)
}

func (s *ArticleService) Delete(ctx context.Context, p *Principal, id uint) error {
	a, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.articles.Remove(ctx, a); err != nil {
		return err
	}
	if a.ImagePath != "" && s.images != nil {
		if err := s.images.Remove(a.ImagePath); err != nil {
			global.Logger.Warn().Err(err).Uint64("id", uint64(a.ID)).Msg("remove article image failed")
		}
	}
	s.publish(ctx, events.ArticleDeleted, a)
	return nil
}

func (s *ArticleService) CanEdit(p *Principal, a *models.Article) bool {
	return CanEdit(p, a)
}

func (s *ArticleService) load(ctx context.Context, id uint) (*models.Article, error) {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// loadOwned checks existence before authorization.
func (s *ArticleService) loadOwned(ctx context.Context, p *Principal, id uint) (*models.Article, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(p, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *ArticleService) publish(ctx context.Context, typ string, a *models.Article) {
	err := s.events.Publish(ctx, events.Event{
		Type:      typ,
		ArticleID: a.ID,
		AuthorID:  a.AuthorID,
		Title:     a.Title,
		At:        s.now(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		global.Logger.Error().Err(err).Str("event", typ).Uint64("id", uint64(a.ID)).Msg("publish event failed")
	}
}

func validate(title, content string) error {
	verrs := ValidationErrors{}
	switch {
	case strings.TrimSpace(title) == "":
		verrs["Title"] = "The Title field is required."
	case utf8.RuneCountInString(title) > models.TitleMaxLen:
		verrs["Title"] = "The field Title must be a string with a maximum length of 400."
	}
	if strings.TrimSpace(content) == "" {
		verrs["Content"] = "The Content field is required."
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}
