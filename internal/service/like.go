package service

import (
	"errors"
	"fmt"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/repository"
)

type LikeService struct {
	likeRepository    repository.LikeRepository
	blogRepository    repository.BlogRepository
	commentRepository repository.CommentRepository
	replyRepository   repository.ReplyRepository
}

func NewLikeService(
	likeRepository repository.LikeRepository,
	blogRepository repository.BlogRepository,
	commentRepository repository.CommentRepository,
	replyRepository repository.ReplyRepository,
) *LikeService {
	return &LikeService{
		likeRepository:    likeRepository,
		blogRepository:    blogRepository,
		commentRepository: commentRepository,
		replyRepository:   replyRepository,
	}
}

// LikeState is what a toggle reports back: the resulting state and the new
// total for the target.
type LikeState struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

func (s *LikeService) ToggleBlog(blogID, userID string) (*LikeState, error) {
	if _, err := s.blogRepository.ByID(blogID); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, apperr.NotFound("blog not found")
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	return s.toggle(userID, repository.LikeTargetBlog, blogID)
}

func (s *LikeService) ToggleComment(commentID, userID string) (*LikeState, error) {
	if _, err := s.commentRepository.ByID(commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return s.toggle(userID, repository.LikeTargetComment, commentID)
}

func (s *LikeService) ToggleReply(replyID, userID string) (*LikeState, error) {
	if _, err := s.replyRepository.ByID(replyID); err != nil {
		if errors.Is(err, repository.ErrReplyNotFound) {
			return nil, apperr.NotFound("reply not found")
		}
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	return s.toggle(userID, repository.LikeTargetReply, replyID)
}

func (s *LikeService) toggle(userID string, target repository.LikeTarget, targetID string) (*LikeState, error) {
	liked, err := s.likeRepository.Exists(userID, target, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check like: %w", err)
	}

	if liked {
		if err := s.likeRepository.Remove(userID, target, targetID); err != nil &&
			!errors.Is(err, repository.ErrLikeNotFound) {
			return nil, fmt.Errorf("failed to remove like: %w", err)
		}
	} else {
		if _, err := s.likeRepository.Add(userID, target, targetID); err != nil {
			return nil, fmt.Errorf("failed to add like: %w", err)
		}
	}

	count, err := s.likeRepository.Count(target, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return &LikeState{Liked: !liked, Count: count}, nil
}
