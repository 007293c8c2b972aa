package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	ByID(id string) (*model.Comment, error)
	ByIDAndAuthor(id, authorID string) (*model.Comment, error)
	Update(id, content string) error
	Delete(id string) error
	ListByBlog(blogID string) ([]model.Comment, error)
	CountByBlog(blogID string) (int64, error)
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

type commentWithAuthor struct {
	model.Comment
	Author model.Author `db:"author"`
}

func (r *commentRepository) Create(comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	query := `INSERT INTO comments (id, blog_id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(query,
		comment.ID, comment.BlogID, comment.UserID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt)
	return err
}

func (r *commentRepository) ByID(id string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := r.db.Get(comment, `SELECT * FROM comments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	return comment, err
}

func (r *commentRepository) ByIDAndAuthor(id, authorID string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := r.db.Get(comment,
		`SELECT * FROM comments WHERE id = $1 AND user_id = $2`, id, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	return comment, err
}

func (r *commentRepository) Update(id, content string) error {
	result, err := r.db.Exec(
		`UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3`,
		content, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Delete removes the comment together with its whole reply tree and any likes
// on either.
func (r *commentRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	roots := []string{}
	if err := tx.Select(&roots, `SELECT id FROM replies WHERE comment_id = $1`, id); err != nil {
		return err
	}
	if err := deleteReplySubtrees(tx, roots); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM likes WHERE comment_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}
	return tx.Commit()
}

func (r *commentRepository) ListByBlog(blogID string) ([]model.Comment, error) {
	rows := []commentWithAuthor{}
	query := `SELECT c.*, ` + authorSelect + `
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.blog_id = $1 ORDER BY c.created_at DESC`

	if err := r.db.Select(&rows, query, blogID); err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(rows))
	for _, row := range rows {
		comment := row.Comment
		author := row.Author
		comment.CommentedBy = &author
		comments = append(comments, comment)
	}
	return comments, nil
}

func (r *commentRepository) CountByBlog(blogID string) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM comments WHERE blog_id = $1`, blogID)
	return count, err
}
