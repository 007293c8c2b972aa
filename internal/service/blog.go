package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/storage"
	"github.com/readium/readium/internal/validation"
)

// wordsPerMinute is the assumed reading speed behind the read-time estimate.
const wordsPerMinute = 256.0

type BlogService struct {
	blogRepository  repository.BlogRepository
	tagRepository   repository.TagRepository
	assetRepository repository.AssetRepository
	userRepository  repository.UserRepository
	storage         storage.Storage
}

func NewBlogService(
	blogRepository repository.BlogRepository,
	tagRepository repository.TagRepository,
	assetRepository repository.AssetRepository,
	userRepository repository.UserRepository,
	storage storage.Storage,
) *BlogService {
	return &BlogService{
		blogRepository:  blogRepository,
		tagRepository:   tagRepository,
		assetRepository: assetRepository,
		userRepository:  userRepository,
		storage:         storage,
	}
}

type BlogInput struct {
	Title    string
	Content  string
	TagNames []string
	Publish  bool
}

// Upload is a file streamed from a multipart request.
type Upload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string
}

// Create stores a new blog. The thumbnail, if present, goes to object storage
// and its key is kept on the row. Tags are resolved by name, creating missing
// ones.
func (s *BlogService) Create(authorID string, input BlogInput, thumbnail *Upload) (*model.Blog, error) {
	names, err := normalizeTagNames(input.TagNames)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateBlogInput(input.Title, input.Content, names); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	blog := &model.Blog{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		AuthorID:    authorID,
		IsPublished: input.Publish,
	}
	blog.WordCount, blog.ReadTime = measureContent(input.Content)

	if thumbnail != nil {
		key, err := s.saveUpload("thumbnails", blog.ID, thumbnail)
		if err != nil {
			return nil, err
		}
		blog.Thumbnail = &key
	}

	if err := s.blogRepository.Create(blog); err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	tagIDs, err := s.tagRepository.EnsureByNames(names, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	if err := s.blogRepository.SetTags(blog.ID, tagIDs); err != nil {
		return nil, fmt.Errorf("failed to attach tags: %w", err)
	}

	slog.Info("blog created", "blog_id", blog.ID, "author_id", authorID)
	return s.present(blog)
}

// Get returns a blog with author and tags populated. A non-empty viewerID
// counts a view and appends the blog to the viewer's reading history.
func (s *BlogService) Get(id, viewerID string) (*model.Blog, error) {
	blog, err := s.blogRepository.ByIDWithAuthor(id)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, apperr.NotFound("blog not found")
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	if viewerID != "" {
		if err := s.blogRepository.IncrementViews(id); err != nil {
			slog.Warn("failed to count view", "error", err, "blog_id", id)
		}
		if err := s.userRepository.AddHistory(viewerID, id, time.Now()); err != nil {
			slog.Warn("failed to record history", "error", err, "blog_id", id, "user_id", viewerID)
		}
	}

	return s.present(blog)
}

// Update edits a blog owned by authorID. A blog owned by someone else is
// reported as not found. A new thumbnail replaces and deletes the old object.
func (s *BlogService) Update(id, authorID string, input BlogInput, thumbnail *Upload) (*model.Blog, error) {
	blog, err := s.ownedBlog(id, authorID)
	if err != nil {
		return nil, err
	}

	names, err := normalizeTagNames(input.TagNames)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateBlogInput(input.Title, input.Content, names); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	blog.Title = strings.TrimSpace(input.Title)
	blog.Content = input.Content
	blog.WordCount, blog.ReadTime = measureContent(input.Content)

	if err := s.blogRepository.Update(blog); err != nil {
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}

	if thumbnail != nil {
		key, err := s.saveUpload("thumbnails", blog.ID, thumbnail)
		if err != nil {
			return nil, err
		}
		if blog.Thumbnail != nil && *blog.Thumbnail != "" {
			if err := s.storage.Delete(*blog.Thumbnail); err != nil {
				slog.Warn("failed to delete old thumbnail", "error", err, "blog_id", blog.ID)
			}
		}
		blog.Thumbnail = &key
		if err := s.blogRepository.SetThumbnail(blog.ID, key); err != nil {
			return nil, fmt.Errorf("failed to set thumbnail: %w", err)
		}
	}

	tagIDs, err := s.tagRepository.EnsureByNames(names, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	if err := s.blogRepository.SetTags(blog.ID, tagIDs); err != nil {
		return nil, fmt.Errorf("failed to attach tags: %w", err)
	}

	return s.Get(blog.ID, "")
}

// Delete removes an owned blog, its database children and its stored objects.
func (s *BlogService) Delete(id, authorID string) error {
	blog, err := s.ownedBlog(id, authorID)
	if err != nil {
		return err
	}

	images, err := s.assetRepository.ImagesOf(id)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	videos, err := s.assetRepository.VideosOf(id)
	if err != nil {
		return fmt.Errorf("failed to list videos: %w", err)
	}

	if err := s.blogRepository.Delete(id); err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	// Storage cleanup happens after the row delete commits. A failed object
	// delete leaves an orphan in the bucket, not a broken blog.
	if blog.Thumbnail != nil && *blog.Thumbnail != "" {
		if err := s.storage.Delete(*blog.Thumbnail); err != nil {
			slog.Warn("failed to delete thumbnail object", "error", err, "blog_id", id)
		}
	}
	for _, image := range images {
		if err := s.storage.Delete(image.Link); err != nil {
			slog.Warn("failed to delete image object", "error", err, "image_id", image.ID)
		}
	}
	for _, video := range videos {
		if err := s.storage.Delete(video.Link); err != nil {
			slog.Warn("failed to delete video object", "error", err, "video_id", video.ID)
		}
	}

	slog.Info("blog deleted", "blog_id", id, "author_id", authorID)
	return nil
}

// TogglePublish flips the published flag on an owned blog and reports the new
// state.
func (s *BlogService) TogglePublish(id, authorID string) (bool, error) {
	blog, err := s.ownedBlog(id, authorID)
	if err != nil {
		return false, err
	}

	next := !blog.IsPublished
	if err := s.blogRepository.SetPublished(id, next); err != nil {
		return false, fmt.Errorf("failed to set published: %w", err)
	}
	return next, nil
}

// ToggleBookmark adds or removes the caller's bookmark and reports whether the
// blog is bookmarked afterwards.
func (s *BlogService) ToggleBookmark(blogID, userID string) (bool, error) {
	if _, err := s.blogRepository.ByID(blogID); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return false, apperr.NotFound("blog not found")
		}
		return false, fmt.Errorf("failed to get blog: %w", err)
	}

	bookmarked, err := s.blogRepository.IsBookmarked(userID, blogID)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}

	if bookmarked {
		if err := s.blogRepository.RemoveBookmark(userID, blogID); err != nil {
			return false, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		return false, nil
	}
	if err := s.blogRepository.AddBookmark(userID, blogID); err != nil {
		return false, fmt.Errorf("failed to add bookmark: %w", err)
	}
	return true, nil
}

// ListByAuthor returns the author's blogs, drafts included.
func (s *BlogService) ListByAuthor(authorID string) ([]model.Blog, error) {
	blogs, err := s.blogRepository.ListByAuthor(authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	return s.presentAll(blogs)
}

// Search finds published blogs by free-text query and tag filter.
func (s *BlogService) Search(params repository.SearchParams) ([]model.Blog, int64, error) {
	blogs, total, err := s.blogRepository.Search(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search blogs: %w", err)
	}
	presented, err := s.presentAll(blogs)
	if err != nil {
		return nil, 0, err
	}
	return presented, total, nil
}

// AttachImage uploads a blog image to object storage and records it.
func (s *BlogService) AttachImage(blogID, authorID string, upload *Upload) (*model.Image, error) {
	if _, err := s.ownedBlog(blogID, authorID); err != nil {
		return nil, err
	}

	key, err := s.saveUpload("images", blogID, upload)
	if err != nil {
		return nil, err
	}

	image := &model.Image{Link: key, BlogID: blogID}
	if err := s.assetRepository.AddImage(image); err != nil {
		return nil, fmt.Errorf("failed to record image: %w", err)
	}
	image.Link = s.storage.URL(key)
	return image, nil
}

// AttachVideo uploads a blog video to object storage and records it.
func (s *BlogService) AttachVideo(blogID, authorID string, upload *Upload) (*model.Video, error) {
	if _, err := s.ownedBlog(blogID, authorID); err != nil {
		return nil, err
	}

	key, err := s.saveUpload("videos", blogID, upload)
	if err != nil {
		return nil, err
	}

	video := &model.Video{Link: key, BlogID: blogID}
	if err := s.assetRepository.AddVideo(video); err != nil {
		return nil, fmt.Errorf("failed to record video: %w", err)
	}
	video.Link = s.storage.URL(key)
	return video, nil
}

func (s *BlogService) ownedBlog(id, authorID string) (*model.Blog, error) {
	blog, err := s.blogRepository.ByIDAndAuthor(id, authorID)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, apperr.NotFound("blog not found")
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	return blog, nil
}

func (s *BlogService) saveUpload(prefix, ownerID string, upload *Upload) (string, error) {
	key := fmt.Sprintf("%s/%s/%s", prefix, ownerID, uuid.New().String())
	if err := s.storage.Save(key, upload.ContentType, upload.Reader); err != nil {
		return "", apperr.Dependency("could not store file", err)
	}
	return key, nil
}

// present swaps stored object keys for servable URLs and fills tags and assets.
func (s *BlogService) present(blog *model.Blog) (*model.Blog, error) {
	if blog.Thumbnail != nil && *blog.Thumbnail != "" {
		url := s.storage.URL(*blog.Thumbnail)
		blog.Thumbnail = &url
	}

	tags, err := s.blogRepository.TagsOf(blog.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	blog.Tags = tags

	images, err := s.assetRepository.ImagesOf(blog.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	for i := range images {
		images[i].Link = s.storage.URL(images[i].Link)
	}
	blog.Images = images

	videos, err := s.assetRepository.VideosOf(blog.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	for i := range videos {
		videos[i].Link = s.storage.URL(videos[i].Link)
	}
	blog.Videos = videos

	return blog, nil
}

func (s *BlogService) presentAll(blogs []model.Blog) ([]model.Blog, error) {
	for i := range blogs {
		if blogs[i].Thumbnail != nil && *blogs[i].Thumbnail != "" {
			url := s.storage.URL(*blogs[i].Thumbnail)
			blogs[i].Thumbnail = &url
		}
		tags, err := s.blogRepository.TagsOf(blogs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}
		blogs[i].Tags = tags
	}
	return blogs, nil
}

func normalizeTagNames(names []string) ([]string, error) {
	normalized := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		name = validation.NormalizeTagName(name)
		if name == "" || seen[name] {
			continue
		}
		if err := validation.ValidateTagName(name); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	return normalized, nil
}

// measureContent counts whitespace-separated words and derives the read-time
// estimate in minutes.
func measureContent(content string) (int, float64) {
	words := len(strings.Fields(content))
	return words, float64(words) / wordsPerMinute
}
