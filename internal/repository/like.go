package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

// LikeTarget names the column a like row points at. Exactly one target column
// is set per row, enforced by a table check.
type LikeTarget string

const (
	LikeTargetBlog    LikeTarget = "blog_id"
	LikeTargetComment LikeTarget = "comment_id"
	LikeTargetReply   LikeTarget = "reply_id"
)

type LikeRepository interface {
	Add(userID string, target LikeTarget, targetID string) (*model.Like, error)
	Remove(userID string, target LikeTarget, targetID string) error
	Exists(userID string, target LikeTarget, targetID string) (bool, error)
	Count(target LikeTarget, targetID string) (int64, error)
	CountForAuthorBlogs(authorID string) (int64, error)
}

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Add(userID string, target LikeTarget, targetID string) (*model.Like, error) {
	like := &model.Like{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	switch target {
	case LikeTargetBlog:
		like.BlogID = &targetID
	case LikeTargetComment:
		like.CommentID = &targetID
	case LikeTargetReply:
		like.ReplyID = &targetID
	}

	query := `INSERT INTO likes (id, user_id, blog_id, comment_id, reply_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(query,
		like.ID, like.UserID, like.BlogID, like.CommentID, like.ReplyID, like.CreatedAt)
	if isUniqueViolation(err) {
		// already liked, treat as idempotent
		return r.get(userID, target, targetID)
	}
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (r *likeRepository) get(userID string, target LikeTarget, targetID string) (*model.Like, error) {
	like := &model.Like{}
	err := r.db.Get(like,
		`SELECT * FROM likes WHERE user_id = $1 AND `+string(target)+` = $2`, userID, targetID)
	if err != nil {
		return nil, ErrLikeNotFound
	}
	return like, nil
}

func (r *likeRepository) Remove(userID string, target LikeTarget, targetID string) error {
	result, err := r.db.Exec(
		`DELETE FROM likes WHERE user_id = $1 AND `+string(target)+` = $2`, userID, targetID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *likeRepository) Exists(userID string, target LikeTarget, targetID string) (bool, error) {
	var count int
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM likes WHERE user_id = $1 AND `+string(target)+` = $2`,
		userID, targetID)
	return count > 0, err
}

func (r *likeRepository) Count(target LikeTarget, targetID string) (int64, error) {
	var count int64
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM likes WHERE `+string(target)+` = $1`, targetID)
	return count, err
}

// CountForAuthorBlogs totals likes received across all of an author's blogs.
func (r *likeRepository) CountForAuthorBlogs(authorID string) (int64, error) {
	var count int64
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM likes l JOIN blogs b ON b.id = l.blog_id WHERE b.author_id = $1`,
		authorID)
	return count, err
}
