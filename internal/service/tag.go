package service

import (
	"errors"
	"fmt"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/repository"
	"github.com/readium/readium/internal/validation"
)

type TagService struct {
	tagRepository repository.TagRepository
}

func NewTagService(tagRepository repository.TagRepository) *TagService {
	return &TagService{tagRepository: tagRepository}
}

func (s *TagService) Create(name, creatorID string) (*model.Tag, error) {
	name = validation.NormalizeTagName(name)
	if err := validation.ValidateTagName(name); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	tag := &model.Tag{Name: name, CreatedBy: creatorID}
	if err := s.tagRepository.Create(tag); err != nil {
		if errors.Is(err, repository.ErrDuplicateTag) {
			return nil, apperr.Conflict("tag already exists")
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) List(query string, page, limit int) ([]model.Tag, int64, error) {
	tags, total, err := s.tagRepository.List(query, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, total, nil
}

// Rename edits a tag created by the caller. Tags created by others are
// reported as not found.
func (s *TagService) Rename(id, creatorID, name string) (*model.Tag, error) {
	name = validation.NormalizeTagName(name)
	if err := validation.ValidateTagName(name); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	tag, err := s.ownedTag(id, creatorID)
	if err != nil {
		return nil, err
	}

	if err := s.tagRepository.Rename(id, name); err != nil {
		if errors.Is(err, repository.ErrDuplicateTag) {
			return nil, apperr.Conflict("tag already exists")
		}
		return nil, fmt.Errorf("failed to rename tag: %w", err)
	}
	tag.Name = name
	return tag, nil
}

func (s *TagService) Delete(id, creatorID string) error {
	if _, err := s.ownedTag(id, creatorID); err != nil {
		return err
	}
	if err := s.tagRepository.Delete(id); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}

func (s *TagService) ownedTag(id, creatorID string) (*model.Tag, error) {
	tag, err := s.tagRepository.ByIDAndCreator(id, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			return nil, apperr.NotFound("tag not found")
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return tag, nil
}
