package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

// SearchParams narrows and orders the published-blog search.
type SearchParams struct {
	Query    string   // substring match on title, content or author name
	TagNames []string // any-of tag filter
	SortBy   string   // created_at, updated_at, views, title
	SortDesc bool
	Page     int
	Limit    int
}

type BlogRepository interface {
	Create(blog *model.Blog) error
	ByID(id string) (*model.Blog, error)
	ByIDWithAuthor(id string) (*model.Blog, error)
	ByIDAndAuthor(id, authorID string) (*model.Blog, error)
	Update(blog *model.Blog) error
	SetThumbnail(id, thumbnail string) error
	SetPublished(id string, published bool) error
	IncrementViews(id string) error
	Delete(id string) error
	ListByAuthor(authorID string) ([]model.Blog, error)
	CountByAuthor(authorID string) (int64, error)
	SetTags(blogID string, tagIDs []string) error
	TagsOf(blogID string) ([]model.Tag, error)
	Search(params SearchParams) ([]model.Blog, int64, error)

	IsBookmarked(userID, blogID string) (bool, error)
	AddBookmark(userID, blogID string) error
	RemoveBookmark(userID, blogID string) error
	Bookmarks(userID string) ([]model.Blog, error)
	CountBookmarks(userID string) (int64, error)
}

type blogRepository struct {
	db *sqlx.DB
}

func NewBlogRepository(db *sqlx.DB) BlogRepository {
	return &blogRepository{db: db}
}

const authorSelect = `u.id AS "author.id", u.username AS "author.username",
	u.first_name AS "author.first_name", u.last_name AS "author.last_name",
	u.email AS "author.email", u.avatar AS "author.avatar"`

type blogWithAuthor struct {
	model.Blog
	Author model.Author `db:"author"`
}

func (r *blogRepository) Create(blog *model.Blog) error {
	if blog.ID == "" {
		blog.ID = uuid.New().String()
	}
	now := time.Now()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	query := `INSERT INTO blogs (id, title, content, author_id, thumbnail, is_published,
		views, word_count, read_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		blog.ID, blog.Title, blog.Content, blog.AuthorID, blog.Thumbnail, blog.IsPublished,
		blog.Views, blog.WordCount, blog.ReadTime, blog.CreatedAt, blog.UpdatedAt,
	)
	return err
}

func (r *blogRepository) ByID(id string) (*model.Blog, error) {
	blog := &model.Blog{}
	err := r.db.Get(blog, `SELECT * FROM blogs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlogNotFound
	}
	return blog, err
}

func (r *blogRepository) ByIDWithAuthor(id string) (*model.Blog, error) {
	row := &blogWithAuthor{}
	query := `SELECT b.*, ` + authorSelect + `
		FROM blogs b JOIN users u ON u.id = b.author_id WHERE b.id = $1`

	err := r.db.Get(row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		return nil, err
	}

	blog := row.Blog
	author := row.Author
	blog.Author = &author

	tags, err := r.TagsOf(id)
	if err != nil {
		return nil, err
	}
	blog.Tags = tags
	return &blog, nil
}

// ByIDAndAuthor is the ownership-gated lookup: a blog that exists but belongs
// to someone else is reported as not found.
func (r *blogRepository) ByIDAndAuthor(id, authorID string) (*model.Blog, error) {
	blog := &model.Blog{}
	err := r.db.Get(blog, `SELECT * FROM blogs WHERE id = $1 AND author_id = $2`, id, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlogNotFound
	}
	return blog, err
}

func (r *blogRepository) Update(blog *model.Blog) error {
	query := `UPDATE blogs SET title = $1, content = $2, word_count = $3, read_time = $4,
		updated_at = $5 WHERE id = $6`
	_, err := r.db.Exec(query,
		blog.Title, blog.Content, blog.WordCount, blog.ReadTime, time.Now(), blog.ID)
	return err
}

func (r *blogRepository) SetThumbnail(id, thumbnail string) error {
	_, err := r.db.Exec(`UPDATE blogs SET thumbnail = $1, updated_at = $2 WHERE id = $3`,
		thumbnail, time.Now(), id)
	return err
}

func (r *blogRepository) SetPublished(id string, published bool) error {
	_, err := r.db.Exec(`UPDATE blogs SET is_published = $1, updated_at = $2 WHERE id = $3`,
		published, time.Now(), id)
	return err
}

func (r *blogRepository) IncrementViews(id string) error {
	_, err := r.db.Exec(`UPDATE blogs SET views = views + 1 WHERE id = $1`, id)
	return err
}

// Delete removes the blog and its dependents (assets, tag links, comments with
// their replies and likes, bookmarks, history) in one transaction.
func (r *blogRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM likes WHERE blog_id = $1`,
		`DELETE FROM likes WHERE comment_id IN (SELECT id FROM comments WHERE blog_id = $1)`,
		`DELETE FROM likes WHERE reply_id IN (
			SELECT id FROM replies WHERE comment_id IN (SELECT id FROM comments WHERE blog_id = $1))`,
		`DELETE FROM replies WHERE comment_id IN (SELECT id FROM comments WHERE blog_id = $1)`,
		`DELETE FROM comments WHERE blog_id = $1`,
		`DELETE FROM images WHERE blog_id = $1`,
		`DELETE FROM videos WHERE blog_id = $1`,
		`DELETE FROM blog_tags WHERE blog_id = $1`,
		`DELETE FROM bookmarks WHERE blog_id = $1`,
		`DELETE FROM blog_history WHERE blog_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}

	result, err := tx.Exec(`DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBlogNotFound
	}

	return tx.Commit()
}

func (r *blogRepository) ListByAuthor(authorID string) ([]model.Blog, error) {
	rows := []blogWithAuthor{}
	query := `SELECT b.*, ` + authorSelect + `
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE b.author_id = $1 ORDER BY b.created_at DESC`

	err := r.db.Select(&rows, query, authorID)
	if err != nil {
		return nil, err
	}
	return assembleBlogs(rows), nil
}

func (r *blogRepository) CountByAuthor(authorID string) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM blogs WHERE author_id = $1`, authorID)
	return count, err
}

func (r *blogRepository) SetTags(blogID string, tagIDs []string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM blog_tags WHERE blog_id = $1`, blogID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		_, err := tx.Exec(`INSERT INTO blog_tags (blog_id, tag_id) VALUES ($1, $2)`, blogID, tagID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *blogRepository) TagsOf(blogID string) ([]model.Tag, error) {
	tags := []model.Tag{}
	query := `SELECT t.id, t.name, t.created_by, t.created_at
		FROM tags t JOIN blog_tags bt ON bt.tag_id = t.id
		WHERE bt.blog_id = $1 ORDER BY t.name`
	err := r.db.Select(&tags, query, blogID)
	return tags, err
}

var searchSortColumns = map[string]string{
	"created_at": "b.created_at",
	"updated_at": "b.updated_at",
	"views":      "b.views",
	"title":      "b.title",
}

// Search matches published blogs against a free-text query (title, content or
// author name) and an optional any-of tag filter, then paginates.
func (r *blogRepository) Search(params SearchParams) ([]model.Blog, int64, error) {
	where := []string{"b.is_published = TRUE"}
	args := []any{}

	if params.Query != "" {
		pattern := "%" + strings.ToLower(params.Query) + "%"
		args = append(args, pattern)
		n := len(args)
		where = append(where, fmt.Sprintf(`(
			LOWER(b.title) LIKE $%d OR LOWER(b.content) LIKE $%d
			OR LOWER(u.username) LIKE $%d OR LOWER(u.first_name) LIKE $%d
			OR LOWER(COALESCE(u.last_name, '')) LIKE $%d)`, n, n, n, n, n))
	}

	if len(params.TagNames) > 0 {
		placeholders := make([]string, 0, len(params.TagNames))
		for _, name := range params.TagNames {
			args = append(args, name)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, fmt.Sprintf(`b.id IN (
			SELECT bt.blog_id FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id
			WHERE t.name IN (%s))`, strings.Join(placeholders, ", ")))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM blogs b JOIN users u ON u.id = b.author_id WHERE ` + whereClause
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	sortColumn, ok := searchSortColumns[params.SortBy]
	if !ok {
		sortColumn = "b.created_at"
	}
	direction := "ASC"
	if params.SortDesc {
		direction = "DESC"
	}

	if params.Limit <= 0 {
		params.Limit = 10
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	offset := (params.Page - 1) * params.Limit
	args = append(args, params.Limit, offset)

	query := fmt.Sprintf(`SELECT b.*, %s
		FROM blogs b JOIN users u ON u.id = b.author_id
		WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		authorSelect, whereClause, sortColumn, direction, len(args)-1, len(args))

	rows := []blogWithAuthor{}
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, 0, err
	}

	blogs := assembleBlogs(rows)
	for i := range blogs {
		tags, err := r.TagsOf(blogs[i].ID)
		if err != nil {
			return nil, 0, err
		}
		blogs[i].Tags = tags
	}
	return blogs, total, nil
}

func (r *blogRepository) IsBookmarked(userID, blogID string) (bool, error) {
	var count int
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = $1 AND blog_id = $2`, userID, blogID)
	return count > 0, err
}

func (r *blogRepository) AddBookmark(userID, blogID string) error {
	_, err := r.db.Exec(
		`INSERT INTO bookmarks (user_id, blog_id, created_at) VALUES ($1, $2, $3)`,
		userID, blogID, time.Now())
	if isUniqueViolation(err) {
		return nil // already bookmarked
	}
	return err
}

func (r *blogRepository) RemoveBookmark(userID, blogID string) error {
	_, err := r.db.Exec(`DELETE FROM bookmarks WHERE user_id = $1 AND blog_id = $2`, userID, blogID)
	return err
}

func (r *blogRepository) Bookmarks(userID string) ([]model.Blog, error) {
	rows := []blogWithAuthor{}
	query := `SELECT b.*, ` + authorSelect + `
		FROM bookmarks bm
		JOIN blogs b ON b.id = bm.blog_id
		JOIN users u ON u.id = b.author_id
		WHERE bm.user_id = $1 ORDER BY bm.created_at DESC`

	err := r.db.Select(&rows, query, userID)
	if err != nil {
		return nil, err
	}
	return assembleBlogs(rows), nil
}

func (r *blogRepository) CountBookmarks(userID string) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`, userID)
	return count, err
}

func assembleBlogs(rows []blogWithAuthor) []model.Blog {
	blogs := make([]model.Blog, 0, len(rows))
	for _, row := range rows {
		blog := row.Blog
		author := row.Author
		blog.Author = &author
		blogs = append(blogs, blog)
	}
	return blogs
}
