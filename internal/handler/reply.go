package handler

import (
	"net/http"

	"github.com/readium/readium/internal/apperr"
	"github.com/readium/readium/internal/ctxkeys"
	"github.com/readium/readium/internal/model"
	"github.com/readium/readium/internal/service"
)

type ReplyHandler struct {
	replyService *service.ReplyService
}

func NewReplyHandler(replyService *service.ReplyService) *ReplyHandler {
	return &ReplyHandler{replyService: replyService}
}

// Create posts a reply under a comment or another reply, discriminated by the
// repliedUnder field.
func (h *ReplyHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Content      string `json:"content"`
		RepliedUnder string `json:"repliedUnder"`
		CommentID    string `json:"commentId"`
		ReplyID      string `json:"replyId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	var reply *model.Reply
	var err error
	switch model.ParentKind(body.RepliedUnder) {
	case model.RepliedUnderComment:
		reply, err = h.replyService.CreateUnderComment(body.CommentID, principal.User.ID, body.Content)
	case model.RepliedUnderReply:
		reply, err = h.replyService.CreateUnderReply(body.ReplyID, principal.User.ID, body.Content)
	default:
		err = apperr.Validation("repliedUnder must be 'comment' or 'reply'")
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, reply, "reply created")
}

func (h *ReplyHandler) ListByComment(w http.ResponseWriter, r *http.Request) {
	replies, err := h.replyService.ListByComment(r.PathValue("commentId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, replies, "replies fetched")
}

func (h *ReplyHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	reply, err := h.replyService.Update(r.PathValue("id"), principal.User.ID, body.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, reply, "reply updated")
}

func (h *ReplyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())

	if err := h.replyService.Delete(r.PathValue("id"), principal.User.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "reply deleted")
}
