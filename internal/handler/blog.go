package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/service"
	"github.com/readium/readium/internal/validation"
)

// maxUploadMemory bounds what multipart parsing buffers in memory before
// spilling to disk.
const maxUploadMemory = 10 << 20

type BlogHandler struct {
	blogService *service.BlogService
}

func NewBlogHandler(blogService *service.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// Create accepts multipart form data: title, content, tags (comma-separated
// or repeated field), publish flag and an optional thumbnail file.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	input, thumbnail, err := h.parseBlogForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	blog, err := h.blogService.Create(principal.User.ID, *input, thumbnail)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, blog, "blog created")
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if principal := ctxkeys.Principal(r.Context()); principal != nil {
		viewerID = principal.User.ID
	}

	blog, err := h.blogService.Get(r.PathValue("id"), viewerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, blog, "blog fetched")
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	input, thumbnail, err := h.parseBlogForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	blog, err := h.blogService.Update(r.PathValue("id"), principal.User.ID, *input, thumbnail)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, blog, "blog updated")
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := h.blogService.Delete(r.PathValue("id"), principal.User.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "blog deleted")
}

func (h *BlogHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	published, err := h.blogService.TogglePublish(r.PathValue("id"), principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"isPublished": published}, "publish state updated")
}

func (h *BlogHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	bookmarked, err := h.blogService.ToggleBookmark(r.PathValue("id"), principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked}, "bookmark updated")
}

func (h *BlogHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	blogs, err := h.blogService.ListByAuthor(principal.User.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, blogs, "blogs fetched")
}

// AttachImage uploads a blog image.
func (h *BlogHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	upload, err := h.parseUpload(r, "image", validation.ImageConstraints)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer upload.close()

	image, err := h.blogService.AttachImage(r.PathValue("id"), principal.User.ID, upload.Upload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, image, "image uploaded")
}

// AttachVideo uploads a blog video.
func (h *BlogHandler) AttachVideo(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	upload, err := h.parseUpload(r, "video", validation.VideoConstraints)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer upload.close()

	video, err := h.blogService.AttachVideo(r.PathValue("id"), principal.User.ID, upload.Upload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, video, "video uploaded")
}

// parseBlogForm reads the multipart blog form. The thumbnail part is optional
// and the caller owns the returned file handle through Upload.Reader.
func (h *BlogHandler) parseBlogForm(r *http.Request) (*service.BlogInput, *service.Upload, error) {
	contentType := r.Header.Get("Content-Type")

	// JSON bodies are accepted for thumbnail-less create/update calls.
	if strings.HasPrefix(contentType, "application/json") {
		var body struct {
			Title   string   `json:"title"`
			Content string   `json:"content"`
			Tags    []string `json:"tags"`
			Publish bool     `json:"publish"`
		}
		if err := decodeJSON(r, &body); err != nil {
			return nil, nil, err
		}
		return &service.BlogInput{
			Title:    body.Title,
			Content:  body.Content,
			TagNames: body.Tags,
			Publish:  body.Publish,
		}, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, nil, apperr.Validation("invalid multipart form")
	}

	input := &service.BlogInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		TagNames: splitTags(r.Form["tags"]),
		Publish:  r.FormValue("publish") == "true",
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		if err == http.ErrMissingFile {
			return input, nil, nil
		}
		return nil, nil, apperr.Validation("invalid thumbnail upload")
	}

	if err := validation.ValidateFile(header, validation.ImageConstraints); err != nil {
		_ = file.Close()
		return nil, nil, apperr.Validation(err.Error())
	}

	return input, &service.Upload{
		Reader:      file,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Filename:    header.Filename,
	}, nil
}

type formUpload struct {
	*service.Upload
	file multipart.File
}

func (u *formUpload) close() { _ = u.file.Close() }

func (h *BlogHandler) parseUpload(r *http.Request, field string, constraints validation.FileConstraints) (*formUpload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, apperr.Validation("invalid multipart form")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, apperr.Validation(field + " file is required")
	}

	if err := validation.ValidateFile(header, constraints); err != nil {
		_ = file.Close()
		return nil, apperr.Validation(err.Error())
	}

	return &formUpload{
		Upload: &service.Upload{
			Reader:      file,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Filename:    header.Filename,
		},
		file: file,
	}, nil
}

// splitTags accepts both repeated form fields and comma-separated values.
func splitTags(values []string) []string {
	tags := []string{}
	for _, value := range values {
		// a single field may carry a JSON array of names
		if strings.HasPrefix(strings.TrimSpace(value), "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(value), &parsed); err == nil {
				tags = append(tags, parsed...)
				continue
			}
		}
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
