package model

import (
	"time"
)

type Comment struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	BlogID    string    `db:"blog_id" json:"blogId"`
	UserID    string    `db:"user_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	CommentedBy *Author `db:"-" json:"commentedBy,omitempty"`
	Replies     []Reply `db:"-" json:"replies,omitempty"`
}

// ParentKind discriminates what a reply was posted under.
type ParentKind string

const (
	RepliedUnderComment ParentKind = "comment"
	RepliedUnderReply   ParentKind = "reply"
)

type Reply struct {
	ID           string     `db:"id" json:"id"`
	Content      string     `db:"content" json:"content"`
	UserID       string     `db:"user_id" json:"-"`
	RepliedUnder ParentKind `db:"replied_under" json:"repliedUnder"`
	CommentID    *string    `db:"comment_id" json:"commentId,omitempty"`
	ReplyID      *string    `db:"reply_id" json:"replyId,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`

	RepliedBy *Author `db:"-" json:"repliedBy,omitempty"`
	Replies   []Reply `db:"-" json:"replies,omitempty"`
}

type Like struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"likedBy"`
	BlogID    *string   `db:"blog_id" json:"blogId,omitempty"`
	CommentID *string   `db:"comment_id" json:"commentId,omitempty"`
	ReplyID   *string   `db:"reply_id" json:"replyId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Following struct {
	ID          string    `db:"id" json:"id"`
	FollowerID  string    `db:"follower_id" json:"-"`
	FollowingID string    `db:"following_id" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	Follower  *Author `db:"-" json:"follower,omitempty"`
	Following *Author `db:"-" json:"following,omitempty"`
}
