package model

import (
	"time"
)

type Blog struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	AuthorID    string    `db:"author_id" json:"authorId"`
	Thumbnail   *string   `db:"thumbnail" json:"thumbnail,omitempty"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	Views       int64     `db:"views" json:"views"`
	WordCount   int       `db:"word_count" json:"wordCount"`
	ReadTime    float64   `db:"read_time" json:"readTime"` // minutes
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Populated relations (not columns)
	Author *Author `db:"-" json:"author,omitempty"`
	Tags   []Tag   `db:"-" json:"tags,omitempty"`
	Images []Image `db:"-" json:"images,omitempty"`
	Videos []Video `db:"-" json:"videos,omitempty"`
}

type Image struct {
	ID        string    `db:"id" json:"id"`
	Link      string    `db:"link" json:"link"`
	BlogID    string    `db:"blog_id" json:"blogId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Video struct {
	ID        string    `db:"id" json:"id"`
	Link      string    `db:"link" json:"link"`
	BlogID    string    `db:"blog_id" json:"blogId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Tag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// HistoryEntry is one element of a user's reading history.
type HistoryEntry struct {
	ID       string    `db:"id" json:"id"`
	UserID   string    `db:"user_id" json:"-"`
	BlogID   string    `db:"blog_id" json:"blogId"`
	ViewedAt time.Time `db:"viewed_at" json:"viewedAt"`

	Blog *Blog `db:"-" json:"blog,omitempty"`
}
