package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type CollaborationHandler struct {
	tagService     TagServiceInterface
	commentService CommentServiceInterface
	searchService  SearchServiceInterface
	log            *zap.Logger
}

func NewCollaborationHandler(
	tagService TagServiceInterface,
	commentService CommentServiceInterface,
	searchService SearchServiceInterface,
	log *zap.Logger,
) *CollaborationHandler {
	return &CollaborationHandler{
		tagService:     tagService,
		commentService: commentService,
		searchService:  searchService,
		log:            log,
	}
}

func (h *CollaborationHandler) CreateTag(c *drift.Context) {
	var req dto.CreateTagRequest
	if !bind(c, &req) {
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), middleware.GetOrganizationID(c), req.Name, req.Color)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "tag created", tag)
}

func (h *CollaborationHandler) ListTags(c *drift.Context) {
	tags, err := h.tagService.List(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "tags retrieved", tags)
}

func (h *CollaborationHandler) CreateComment(c *drift.Context) {
	taskID, ok := uuidParam(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !bind(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), middleware.GetOrganizationID(c), middleware.GetUserID(c), taskID, req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "comment added", comment)
}

func (h *CollaborationHandler) ListComments(c *drift.Context) {
	taskID, ok := uuidParam(c, "taskId", "task")
	if !ok {
		return
	}

	comments, err := h.commentService.List(c.Request.Context(), middleware.GetOrganizationID(c), taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "comments retrieved", comments)
}

func (h *CollaborationHandler) DeleteComment(c *drift.Context) {
	commentID, ok := uuidParam(c, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), middleware.GetOrganizationID(c), middleware.GetUserID(c), commentID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "comment deleted", nil)
}

func (h *CollaborationHandler) Search(c *drift.Context) {
	results, err := h.searchService.Search(c.Request.Context(), middleware.GetOrganizationID(c), c.QueryParam("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "search results", results)
}
