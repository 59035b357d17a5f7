package repo

import (
	"context"
	"errors"

	"blog-system/backend/app/models"

	"gorm.io/gorm"
)

// ArticleRepository reads and writes articles. Every read that hands an
// article to a view preloads its author in the same call.
type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// ListAll returns every article ordered by id.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]models.Article, error) {
	var out []models.Article
	if err := r.db.WithContext(ctx).Preload("Author").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns (nil, nil) when the article does not exist.
func (r *ArticleRepository) FindByID(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	err := r.db.WithContext(ctx).Preload("Author").First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepository) FindByAuthor(ctx context.Context, authorID uint) ([]models.Article, error) {
	var out []models.Article
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ArticleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	return count, r.db.WithContext(ctx).Model(&models.Article{}).Count(&count).Error
}

// FindAt returns the article at zero-based position offset of the id-ordered
// table, or (nil, nil) past the end.
func (r *ArticleRepository) FindAt(ctx context.Context, offset int) (*models.Article, error) {
	if offset < 0 {
		return nil, nil
	}
	var out []models.Article
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Order("id ASC").
		Offset(offset).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *ArticleRepository) Add(ctx context.Context, a *models.Article) error {
	return r.db.WithContext(ctx).Omit("Author").Create(a).Error
}

// Update writes the title and content columns only.
func (r *ArticleRepository) Update(ctx context.Context, a *models.Article) error {
	return r.db.WithContext(ctx).
		Model(&models.Article{ID: a.ID}).
		Updates(map[string]any{
			"title":   a.Title,
			"content": a.Content,
		}).Error
}

func (r *ArticleRepository) Remove(ctx context.Context, a *models.Article) error {
	return r.db.WithContext(ctx).Delete(&models.Article{}, a.ID).Error
}
