package service

import (
	"errors"
	"fmt"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
)

type FollowingService struct {
	followingRepository repository.FollowingRepository
	userRepository      repository.UserRepository
}

func NewFollowingService(
	followingRepository repository.FollowingRepository,
	userRepository repository.UserRepository,
) *FollowingService {
	return &FollowingService{
		followingRepository: followingRepository,
		userRepository:      userRepository,
	}
}

// FollowState reports the outcome of a toggle.
type FollowState struct {
	Following bool  `json:"following"`
	Followers int64 `json:"followers"`
}

// Toggle follows or unfollows the target user.
func (s *FollowingService) Toggle(followerID, targetID string) (*FollowState, error) {
	if followerID == targetID {
		return nil, apperr.Validation("you cannot follow yourself")
	}

	if _, err := s.userRepository.ByID(targetID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	following, err := s.followingRepository.Exists(followerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check following: %w", err)
	}

	if following {
		if err := s.followingRepository.Remove(followerID, targetID); err != nil &&
			!errors.Is(err, repository.ErrFollowingNotFound) {
			return nil, fmt.Errorf("failed to unfollow: %w", err)
		}
	} else {
		if _, err := s.followingRepository.Add(followerID, targetID); err != nil {
			return nil, fmt.Errorf("failed to follow: %w", err)
		}
	}

	followers, err := s.followingRepository.CountFollowers(targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	return &FollowState{Following: !following, Followers: followers}, nil
}

// Followers lists users following userID. An empty list is reported as not
// found, matching the read endpoints' contract.
func (s *FollowingService) Followers(userID string) ([]model.Author, error) {
	followers, err := s.followingRepository.Followers(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	if len(followers) == 0 {
		return nil, apperr.NotFound("no followers found")
	}
	return followers, nil
}

// Following lists users that userID follows.
func (s *FollowingService) Following(userID string) ([]model.Author, error) {
	following, err := s.followingRepository.FollowedBy(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	if len(following) == 0 {
		return nil, apperr.NotFound("no followed users found")
	}
	return following, nil
}
