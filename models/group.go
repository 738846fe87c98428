package models

// Group is a named, slugged category of posts. Groups are created out of band
// (seeder or admin tooling) and are read-only for the request handlers.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Posts       []Post `json:"-"`
}
