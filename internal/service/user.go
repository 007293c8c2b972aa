package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/storage"
	"github.com/readium/readium/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	blogRepository repository.BlogRepository
	storage        storage.Storage
}

func NewUserService(
	userRepository repository.UserRepository,
	blogRepository repository.BlogRepository,
	storage storage.Storage,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		blogRepository: blogRepository,
		storage:        storage,
	}
}

type UpdateDetailsInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// UpdateDetails edits profile fields. Username and email uniqueness is
// enforced by the store; the collision message stays generic.
func (s *UserService) UpdateDetails(user *model.User, input UpdateDetailsInput) (*model.User, error) {
	username := validation.NormalizeUsername(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := validation.ValidateName(firstName); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if lastName != "" {
		if err := validation.ValidateName(lastName); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	user.Username = username
	user.FirstName = firstName
	user.Email = email
	if lastName != "" {
		user.LastName = &lastName
	} else {
		user.LastName = nil
	}

	if err := s.userRepository.Update(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperr.Conflict("username or email taken already")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdateAvatar uploads a new avatar, deletes the previous object and returns
// the servable URL.
func (s *UserService) UpdateAvatar(user *model.User, upload *Upload) (string, error) {
	key := fmt.Sprintf("avatars/%s/%s", user.ID, upload.Filename)
	if err := s.storage.Save(key, upload.ContentType, upload.Reader); err != nil {
		return "", apperr.Dependency("could not store avatar", err)
	}

	if user.Avatar != nil && *user.Avatar != "" {
		if err := s.storage.Delete(*user.Avatar); err != nil {
			slog.Warn("failed to delete old avatar", "error", err, "user_id", user.ID)
		}
	}

	if err := s.userRepository.UpdateAvatar(user.ID, &key); err != nil {
		return "", fmt.Errorf("failed to update avatar: %w", err)
	}
	user.Avatar = &key
	return s.storage.URL(key), nil
}

// Delete removes the account and everything it owns.
func (s *UserService) Delete(userID string) error {
	if err := s.userRepository.Delete(userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	slog.Info("user deleted", "user_id", userID)
	return nil
}

// Bookmarks lists the user's bookmarked blogs, newest bookmark first.
func (s *UserService) Bookmarks(userID string) ([]model.Blog, error) {
	blogs, err := s.blogRepository.Bookmarks(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	for i := range blogs {
		if blogs[i].Thumbnail != nil && *blogs[i].Thumbnail != "" {
			url := s.storage.URL(*blogs[i].Thumbnail)
			blogs[i].Thumbnail = &url
		}
	}
	return blogs, nil
}

// History lists the user's reading history, most recent view first, with the
// viewed blogs populated.
func (s *UserService) History(userID string) ([]model.HistoryEntry, error) {
	entries, err := s.userRepository.History(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	for i := range entries {
		blog, err := s.blogRepository.ByIDWithAuthor(entries[i].BlogID)
		if err != nil {
			if errors.Is(err, repository.ErrBlogNotFound) {
				continue // blog deleted since the visit
			}
			return nil, fmt.Errorf("failed to get blog: %w", err)
		}
		if blog.Thumbnail != nil && *blog.Thumbnail != "" {
			url := s.storage.URL(*blog.Thumbnail)
			blog.Thumbnail = &url
		}
		entries[i].Blog = blog
	}
	return entries, nil
}
