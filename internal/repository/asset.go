package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/readium/readium/internal/model"
)

// AssetRepository tracks images and videos attached to blogs. The binary
// content lives in object storage, rows here only hold the links.
type AssetRepository interface {
	AddImage(image *model.Image) error
	AddVideo(video *model.Video) error
	ImagesOf(blogID string) ([]model.Image, error)
	VideosOf(blogID string) ([]model.Video, error)
	DeleteImage(id, blogID string) error
	DeleteVideo(id, blogID string) error
}

type assetRepository struct {
	db *sqlx.DB
}

func NewAssetRepository(db *sqlx.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) AddImage(image *model.Image) error {
	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	image.CreatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO images (id, link, blog_id, created_at) VALUES ($1, $2, $3, $4)`,
		image.ID, image.Link, image.BlogID, image.CreatedAt)
	return err
}

func (r *assetRepository) AddVideo(video *model.Video) error {
	if video.ID == "" {
		video.ID = uuid.New().String()
	}
	video.CreatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO videos (id, link, blog_id, created_at) VALUES ($1, $2, $3, $4)`,
		video.ID, video.Link, video.BlogID, video.CreatedAt)
	return err
}

func (r *assetRepository) ImagesOf(blogID string) ([]model.Image, error) {
	images := []model.Image{}
	err := r.db.Select(&images,
		`SELECT * FROM images WHERE blog_id = $1 ORDER BY created_at`, blogID)
	return images, err
}

func (r *assetRepository) VideosOf(blogID string) ([]model.Video, error) {
	videos := []model.Video{}
	err := r.db.Select(&videos,
		`SELECT * FROM videos WHERE blog_id = $1 ORDER BY created_at`, blogID)
	return videos, err
}

func (r *assetRepository) DeleteImage(id, blogID string) error {
	_, err := r.db.Exec(`DELETE FROM images WHERE id = $1 AND blog_id = $2`, id, blogID)
	return err
}

func (r *assetRepository) DeleteVideo(id, blogID string) error {
	_, err := r.db.Exec(`DELETE FROM videos WHERE id = $1 AND blog_id = $2`, id, blogID)
	return err
}
