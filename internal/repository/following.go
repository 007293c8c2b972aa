package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

type FollowingRepository interface {
	Add(followerID, followingID string) (*model.Following, error)
	Remove(followerID, followingID string) error
	Exists(followerID, followingID string) (bool, error)
	Followers(userID string) ([]model.Author, error)
	FollowedBy(userID string) ([]model.Author, error)
	CountFollowers(userID string) (int64, error)
	CountFollowing(userID string) (int64, error)
}

type followingRepository struct {
	db *sqlx.DB
}

func NewFollowingRepository(db *sqlx.DB) FollowingRepository {
	return &followingRepository{db: db}
}

func (r *followingRepository) Add(followerID, followingID string) (*model.Following, error) {
	following := &model.Following{
		ID:          uuid.New().String(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now(),
	}

	query := `INSERT INTO followings (id, follower_id, following_id, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(query,
		following.ID, following.FollowerID, following.FollowingID, following.CreatedAt)
	if isUniqueViolation(err) {
		// already following, treat as idempotent
		existing := &model.Following{}
		getErr := r.db.Get(existing,
			`SELECT * FROM followings WHERE follower_id = $1 AND following_id = $2`,
			followerID, followingID)
		if getErr != nil {
			return nil, getErr
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return following, nil
}

func (r *followingRepository) Remove(followerID, followingID string) error {
	result, err := r.db.Exec(
		`DELETE FROM followings WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFollowingNotFound
	}
	return nil
}

func (r *followingRepository) Exists(followerID, followingID string) (bool, error) {
	var count int
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM followings WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	return count > 0, err
}

const authorColumns = `u.id, u.username, u.first_name, u.last_name, u.email, u.avatar`

func (r *followingRepository) Followers(userID string) ([]model.Author, error) {
	authors := []model.Author{}
	query := `SELECT ` + authorColumns + `
		FROM followings f JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1 ORDER BY f.created_at DESC`
	err := r.db.Select(&authors, query, userID)
	return authors, err
}

func (r *followingRepository) FollowedBy(userID string) ([]model.Author, error) {
	authors := []model.Author{}
	query := `SELECT ` + authorColumns + `
		FROM followings f JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1 ORDER BY f.created_at DESC`
	err := r.db.Select(&authors, query, userID)
	return authors, err
}

func (r *followingRepository) CountFollowers(userID string) (int64, error) {
	var count int64
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM followings WHERE following_id = $1`, userID)
	return count, err
}

func (r *followingRepository) CountFollowing(userID string) (int64, error) {
	var count int64
	err := r.db.Get(&count,
		`SELECT COUNT(*) FROM followings WHERE follower_id = $1`, userID)
	return count, err
}
