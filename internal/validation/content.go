package validation

import (
	"errors"
	"strings"
)

const maxTagsPerBlog = 10

// ValidateBlogInput checks a new blog's title, content and tag list.
func ValidateBlogInput(title, content string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title field is required")
	}
	if len(title) > 200 {
		return errors.New("title is too long (max 200 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("content field is required")
	}
	if len(tags) > maxTagsPerBlog {
		return errors.New("at most 10 tags are allowed")
	}
	return nil
}

// ValidateContent checks comment/reply body text.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content field is required")
	}
	return nil
}

// NormalizeTagName folds a tag name the same way usernames are folded, so tag
// uniqueness is case-insensitive.
func NormalizeTagName(name string) string {
	return lowercase.String(strings.TrimSpace(name))
}

// ValidateTagName checks a normalized tag name.
func ValidateTagName(name string) error {
	if name == "" {
		return errors.New("tag name is required")
	}
	if len(name) > 50 {
		return errors.New("tag name is too long (max 50 characters)")
	}
	return nil
}
