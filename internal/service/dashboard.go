package service

import (
	"errors"
	"fmt"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
)

// AuthorStats is the dashboard roll-up for one user.
type AuthorStats struct {
	User           *model.Author `json:"user"`
	TotalBlogs     int64         `json:"totalBlogs"`
	TotalFollowers int64         `json:"totalFollowers"`
	TotalFollowing int64         `json:"totalFollowing"`
	TotalBookmarks int64         `json:"totalBookmarks"`
	TotalLikes     int64         `json:"totalLikes"` // likes received across the author's blogs
}

type DashboardService struct {
	userRepository      repository.UserRepository
	blogRepository      repository.BlogRepository
	likeRepository      repository.LikeRepository
	followingRepository repository.FollowingRepository
}

func NewDashboardService(
	userRepository repository.UserRepository,
	blogRepository repository.BlogRepository,
	likeRepository repository.LikeRepository,
	followingRepository repository.FollowingRepository,
) *DashboardService {
	return &DashboardService{
		userRepository:      userRepository,
		blogRepository:      blogRepository,
		likeRepository:      likeRepository,
		followingRepository: followingRepository,
	}
}

func (s *DashboardService) Stats(userID string) (*AuthorStats, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	stats := &AuthorStats{
		User: &model.Author{
			ID:        user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Avatar:    user.Avatar,
		},
	}

	if stats.TotalBlogs, err = s.blogRepository.CountByAuthor(userID); err != nil {
		return nil, fmt.Errorf("failed to count blogs: %w", err)
	}
	if stats.TotalFollowers, err = s.followingRepository.CountFollowers(userID); err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	if stats.TotalFollowing, err = s.followingRepository.CountFollowing(userID); err != nil {
		return nil, fmt.Errorf("failed to count following: %w", err)
	}
	if stats.TotalBookmarks, err = s.blogRepository.CountBookmarks(userID); err != nil {
		return nil, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	if stats.TotalLikes, err = s.likeRepository.CountForAuthorBlogs(userID); err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	return stats, nil
}
