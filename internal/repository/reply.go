package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

type ReplyRepository interface {
	Create(reply *model.Reply) error
	ByID(id string) (*model.Reply, error)
	ByIDAndAuthor(id, authorID string) (*model.Reply, error)
	Update(id, content string) error
	Delete(id string) error
	ListByComment(commentID string) ([]model.Reply, error)
	ListByParentReply(replyID string) ([]model.Reply, error)
}

type replyRepository struct {
	db *sqlx.DB
}

func NewReplyRepository(db *sqlx.DB) ReplyRepository {
	return &replyRepository{db: db}
}

type replyWithAuthor struct {
	model.Reply
	Author model.Author `db:"author"`
}

func (r *replyRepository) Create(reply *model.Reply) error {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	now := time.Now()
	reply.CreatedAt = now
	reply.UpdatedAt = now

	query := `INSERT INTO replies (id, content, user_id, replied_under, comment_id, reply_id,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(query,
		reply.ID, reply.Content, reply.UserID, reply.RepliedUnder,
		reply.CommentID, reply.ReplyID, reply.CreatedAt, reply.UpdatedAt)
	return err
}

func (r *replyRepository) ByID(id string) (*model.Reply, error) {
	reply := &model.Reply{}
	err := r.db.Get(reply, `SELECT * FROM replies WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReplyNotFound
	}
	return reply, err
}

func (r *replyRepository) ByIDAndAuthor(id, authorID string) (*model.Reply, error) {
	reply := &model.Reply{}
	err := r.db.Get(reply, `SELECT * FROM replies WHERE id = $1 AND user_id = $2`, id, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReplyNotFound
	}
	return reply, err
}

func (r *replyRepository) Update(id, content string) error {
	result, err := r.db.Exec(
		`UPDATE replies SET content = $1, updated_at = $2 WHERE id = $3`,
		content, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrReplyNotFound
	}
	return nil
}

// Delete removes the reply, every reply nested under it and likes on any of them.
func (r *replyRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteReplySubtrees(tx, []string{id}); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteReplySubtrees removes the given replies plus everything nested under
// them and likes on any of them, inside the caller's transaction. Nested
// replies are collected breadth-first so the whole subtree goes explicitly,
// without leaning on the schema's FK cascade.
func deleteReplySubtrees(tx *sqlx.Tx, roots []string) error {
	if len(roots) == 0 {
		return nil
	}

	ids := append([]string{}, roots...)
	frontier := roots
	for len(frontier) > 0 {
		query, args, err := sqlx.In(`SELECT id FROM replies WHERE reply_id IN (?)`, frontier)
		if err != nil {
			return err
		}
		children := []string{}
		if err := tx.Select(&children, tx.Rebind(query), args...); err != nil {
			return err
		}
		ids = append(ids, children...)
		frontier = children
	}

	for _, stmt := range []string{
		`DELETE FROM likes WHERE reply_id IN (?)`,
		`DELETE FROM replies WHERE id IN (?)`,
	} {
		query, args, err := sqlx.In(stmt, ids)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *replyRepository) ListByComment(commentID string) ([]model.Reply, error) {
	return r.list(`r.replied_under = $1 AND r.comment_id = $2`,
		model.RepliedUnderComment, commentID)
}

func (r *replyRepository) ListByParentReply(replyID string) ([]model.Reply, error) {
	return r.list(`r.replied_under = $1 AND r.reply_id = $2`,
		model.RepliedUnderReply, replyID)
}

func (r *replyRepository) list(where string, args ...any) ([]model.Reply, error) {
	rows := []replyWithAuthor{}
	query := `SELECT r.*, ` + authorSelect + `
		FROM replies r JOIN users u ON u.id = r.user_id
		WHERE ` + where + ` ORDER BY r.created_at ASC`

	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	replies := make([]model.Reply, 0, len(rows))
	for _, row := range rows {
		reply := row.Reply
		author := row.Author
		reply.RepliedBy = &author
		replies = append(replies, reply)
	}
	return replies, nil
}
