package service

import (
	"errors"
	"fmt"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/validation"
)

type CommentService struct {
	commentRepository repository.CommentRepository
	replyRepository   repository.ReplyRepository
	blogRepository    repository.BlogRepository
}

func NewCommentService(
	commentRepository repository.CommentRepository,
	replyRepository repository.ReplyRepository,
	blogRepository repository.BlogRepository,
) *CommentService {
	return &CommentService{
		commentRepository: commentRepository,
		replyRepository:   replyRepository,
		blogRepository:    blogRepository,
	}
}

func (s *CommentService) Create(blogID, userID, content string) (*model.Comment, error) {
	if err := validation.ValidateContent(content); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if _, err := s.blogRepository.ByID(blogID); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, apperr.NotFound("blog not found")
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	comment := &model.Comment{
		BlogID:  blogID,
		UserID:  userID,
		Content: content,
	}
	if err := s.commentRepository.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListByBlog returns the blog's comments newest first, each with its direct
// replies populated.
func (s *CommentService) ListByBlog(blogID string) ([]model.Comment, error) {
	if _, err := s.blogRepository.ByID(blogID); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return nil, apperr.NotFound("blog not found")
		}
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	comments, err := s.commentRepository.ListByBlog(blogID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	for i := range comments {
		replies, err := s.replyRepository.ListByComment(comments[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list replies: %w", err)
		}
		comments[i].Replies = replies
	}
	return comments, nil
}

func (s *CommentService) Update(id, userID, content string) (*model.Comment, error) {
	if err := validation.ValidateContent(content); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	comment, err := s.ownedComment(id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.commentRepository.Update(id, content); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	comment.Content = content
	return comment, nil
}

func (s *CommentService) Delete(id, userID string) error {
	if _, err := s.ownedComment(id, userID); err != nil {
		return err
	}
	if err := s.commentRepository.Delete(id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) ownedComment(id, userID string) (*model.Comment, error) {
	comment, err := s.commentRepository.ByIDAndAuthor(id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}
