package models

import (
	"time"
	"unicode/utf8"
)

// TitleMaxLen is counted in characters, not bytes.
const TitleMaxLen = 400

const previewLen = 300

// Article is a titled, authored post. Author is only populated when the query
// preloads it.
type Article struct {
	ID         uint      `gorm:"primaryKey"`
	Title      string    `gorm:"size:400;not null"`
	Content    string    `gorm:"type:text;not null"`
	ImagePath  string    `gorm:"size:512"`
	DatePosted time.Time `gorm:"not null;index"`
	AuthorID   uint      `gorm:"index;not null"`
	Author     *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (a *Article) IsAuthor(userID uint) bool {
	return a != nil && a.AuthorID == userID
}

// PreviewText returns the first 300 characters of the content followed by
// " ..." when the content is longer than that.
func (a *Article) PreviewText() string {
	if utf8.RuneCountInString(a.Content) <= previewLen {
		return a.Content
	}
	return string([]rune(a.Content)[:previewLen]) + " ..."
}
