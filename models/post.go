package models

import (
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const excerptLen = 30

// Post is an authored, timestamped text entry, optionally grouped and illustrated.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"index;not null" json:"pub_date"`
	AuthorID uint      `gorm:"index;not null" json:"author_id"`
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group,omitempty"`
	// Image is the path of the attachment relative to MEDIA_ROOT, empty when absent.
	Image    string    `gorm:"size:255" json:"image"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}

// BeforeCreate assigns the publication date unless the caller set one.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
	return nil
}

// Excerpt returns the first 30 characters of the text, used as a page title.
func (p Post) Excerpt() string {
	if utf8.RuneCountInString(p.Text) <= excerptLen {
		return p.Text
	}
	return string([]rune(p.Text)[:excerptLen])
}

// IsAuthoredBy reports whether userID wrote the post.
func (p Post) IsAuthoredBy(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}
