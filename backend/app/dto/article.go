package dto

import (
	"time"

	"blog-system/backend/app/models"
)

// ArticleForm is the body of the create and edit submissions, whether it
// arrives as a form or as JSON.
type ArticleForm struct {
	ID      uint   `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type AuthorResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type ArticleResponse struct {
	ID         uint            `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Preview    string          `json:"preview"`
	ImagePath  string          `json:"image_path,omitempty"`
	DatePosted time.Time       `json:"date_posted"`
	Author     *AuthorResponse `json:"author,omitempty"`
	CanEdit    bool            `json:"can_edit"`
}

type ArticleListResponse struct {
	Articles []ArticleResponse `json:"articles"`
}

type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// NewArticleResponse flattens a; canEdit is decided by the caller.
func NewArticleResponse(a *models.Article, canEdit bool) ArticleResponse {
	out := ArticleResponse{
		ID:         a.ID,
		Title:      a.Title,
		Content:    a.Content,
		Preview:    a.PreviewText(),
		ImagePath:  a.ImagePath,
		DatePosted: a.DatePosted,
		CanEdit:    canEdit,
	}
	if a.Author != nil {
		out.Author = &AuthorResponse{ID: a.Author.ID, Username: a.Author.Username}
	}
	return out
}
