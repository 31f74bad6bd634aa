package handler

import (
	"context"
	"net/http"

	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/service"
)

type questionHandler struct {
	questionService *service.QuestionService
}

func NewQuestionHandler(questionService *service.QuestionService) *questionHandler {
	return &questionHandler{questionService: questionService}
}

// Feed serves GET /api/questions?before=&limit=
func (h *questionHandler) Feed(w http.ResponseWriter, r *http.Request) {
	before, limit, err := page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	viewer := ctxkeys.User(r.Context())

	var questions []model.QuestionView
	if before > 0 {
		questions, err = h.questionService.Below(r.Context(), viewer, before, limit)
	} else {
		questions, err = h.questionService.Latest(r.Context(), viewer, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}

func (h *questionHandler) All(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.All(r.Context(), ctxkeys.User(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}

func (h *questionHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.ByTagName(r.Context(), ctxkeys.User(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}

func (h *questionHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.questionService.Tags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}

func (h *questionHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := h.questionService.ByIDWithComments(r.Context(), ctxkeys.User(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// Summary serves a question without its comments
func (h *questionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := h.questionService.ByID(r.Context(), ctxkeys.User(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *questionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateQuestionRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := h.questionService.Create(r.Context(), ctxkeys.User(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *questionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req service.CreateQuestionRequest
	err = decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := h.questionService.Update(r.Context(), ctxkeys.User(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *questionHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req service.PostCommentRequest
	err = decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := h.questionService.PostComment(r.Context(), ctxkeys.User(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *questionHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req service.PostCommentRequest
	err = decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := h.questionService.EditComment(r.Context(), ctxkeys.User(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *questionHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.questionService.ToggleLike)
}

func (h *questionHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.questionService.Like)
}

func (h *questionHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.questionService.Unlike)
}

type likeFunc func(ctx context.Context, actor *model.User, questionID int64) (*model.LikeResult, error)

func (h *questionHandler) like(w http.ResponseWriter, r *http.Request, fn likeFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := fn(r.Context(), ctxkeys.User(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type pagedFunc func(ctx context.Context, actor *model.User, cursor int64, limit int) ([]model.QuestionView, error)

func (h *questionHandler) Authored(w http.ResponseWriter, r *http.Request) {
	h.paged(w, r, h.questionService.Authored)
}

func (h *questionHandler) Commented(w http.ResponseWriter, r *http.Request) {
	h.paged(w, r, h.questionService.Commented)
}

func (h *questionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	h.paged(w, r, h.questionService.Subscribed)
}

func (h *questionHandler) paged(w http.ResponseWriter, r *http.Request, fn pagedFunc) {
	before, limit, err := page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	questions, err := fn(r.Context(), ctxkeys.User(r.Context()), before, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}
