package service

import (
	"errors"
	"fmt"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/validation"
)

type ReplyService struct {
	replyRepository   repository.ReplyRepository
	commentRepository repository.CommentRepository
}

func NewReplyService(
	replyRepository repository.ReplyRepository,
	commentRepository repository.CommentRepository,
) *ReplyService {
	return &ReplyService{
		replyRepository:   replyRepository,
		commentRepository: commentRepository,
	}
}

// CreateUnderComment posts a direct reply to a comment.
func (s *ReplyService) CreateUnderComment(commentID, userID, content string) (*model.Reply, error) {
	if err := validation.ValidateContent(content); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if _, err := s.commentRepository.ByID(commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	reply := &model.Reply{
		Content:      content,
		UserID:       userID,
		RepliedUnder: model.RepliedUnderComment,
		CommentID:    &commentID,
	}
	if err := s.replyRepository.Create(reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	return reply, nil
}

// CreateUnderReply posts a nested reply to another reply.
func (s *ReplyService) CreateUnderReply(parentReplyID, userID, content string) (*model.Reply, error) {
	if err := validation.ValidateContent(content); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if _, err := s.replyRepository.ByID(parentReplyID); err != nil {
		if errors.Is(err, repository.ErrReplyNotFound) {
			return nil, apperr.NotFound("reply not found")
		}
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}

	reply := &model.Reply{
		Content:      content,
		UserID:       userID,
		RepliedUnder: model.RepliedUnderReply,
		ReplyID:      &parentReplyID,
	}
	if err := s.replyRepository.Create(reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	return reply, nil
}

// ListByComment returns a comment's replies one nesting level deep, with each
// reply's own direct replies attached.
func (s *ReplyService) ListByComment(commentID string) ([]model.Reply, error) {
	if _, err := s.commentRepository.ByID(commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	replies, err := s.replyRepository.ListByComment(commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	for i := range replies {
		nested, err := s.replyRepository.ListByParentReply(replies[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list nested replies: %w", err)
		}
		replies[i].Replies = nested
	}
	return replies, nil
}

func (s *ReplyService) Update(id, userID, content string) (*model.Reply, error) {
	if err := validation.ValidateContent(content); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	reply, err := s.ownedReply(id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.replyRepository.Update(id, content); err != nil {
		return nil, fmt.Errorf("failed to update reply: %w", err)
	}
	reply.Content = content
	return reply, nil
}

func (s *ReplyService) Delete(id, userID string) error {
	if _, err := s.ownedReply(id, userID); err != nil {
		return err
	}
	if err := s.replyRepository.Delete(id); err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	return nil
}

func (s *ReplyService) ownedReply(id, userID string) (*model.Reply, error) {
	reply, err := s.replyRepository.ByIDAndAuthor(id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReplyNotFound) {
			return nil, apperr.NotFound("reply not found")
		}
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	return reply, nil
}
