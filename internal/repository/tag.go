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

type TagRepository interface {
	Create(tag *model.Tag) error
	ByID(id string) (*model.Tag, error)
	ByName(name string) (*model.Tag, error)
	ByIDAndCreator(id, creatorID string) (*model.Tag, error)
	Rename(id, name string) error
	Delete(id string) error
	List(query string, page, limit int) ([]model.Tag, int64, error)
	// EnsureByNames resolves tag names to ids, creating any that do not exist yet.
	EnsureByNames(names []string, creatorID string) ([]string, error)
}

type tagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(tag *model.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO tags (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.Name, tag.CreatedBy, tag.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTag
	}
	return err
}

func (r *tagRepository) ByID(id string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.Get(tag, `SELECT * FROM tags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	return tag, err
}

func (r *tagRepository) ByName(name string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.Get(tag, `SELECT * FROM tags WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	return tag, err
}

func (r *tagRepository) ByIDAndCreator(id, creatorID string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.Get(tag,
		`SELECT * FROM tags WHERE id = $1 AND created_by = $2`, id, creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	return tag, err
}

func (r *tagRepository) Rename(id, name string) error {
	result, err := r.db.Exec(`UPDATE tags SET name = $1 WHERE id = $2`, name, id)
	if isUniqueViolation(err) {
		return ErrDuplicateTag
	}
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTagNotFound
	}
	return nil
}

func (r *tagRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM blog_tags WHERE tag_id = $1`, id); err != nil {
		return err
	}
	result, err := tx.Exec(`DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTagNotFound
	}
	return tx.Commit()
}

func (r *tagRepository) List(query string, page, limit int) ([]model.Tag, int64, error) {
	where := "1 = 1"
	args := []any{}
	if query != "" {
		args = append(args, "%"+strings.ToLower(query)+"%")
		where = "LOWER(name) LIKE $1"
	}

	var total int64
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM tags WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	tags := []model.Tag{}
	listQuery := fmt.Sprintf(`SELECT * FROM tags WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	if err := r.db.Select(&tags, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (r *tagRepository) EnsureByNames(names []string, creatorID string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := r.ByName(name)
		if errors.Is(err, ErrTagNotFound) {
			tag = &model.Tag{Name: name, CreatedBy: creatorID}
			if createErr := r.Create(tag); createErr != nil {
				// lost a race with a concurrent insert, re-read
				if !errors.Is(createErr, ErrDuplicateTag) {
					return nil, createErr
				}
				tag, err = r.ByName(name)
				if err != nil {
					return nil, err
				}
			}
		} else if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}
