// Package api provides HTTP handlers for the board server REST API.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Handler holds dependencies for API handlers.
type Handler struct {
	topics    *board.TopicService
	favorites *board.FavoriteService
	notifier  board.Notifier
	limiter   *RateLimiter
	logger    board.Logger
	version   string
}

// HandlerOption configures optional Handler dependencies.
type HandlerOption func(*Handler)

// WithRateLimiter limits comment submissions per caller.
func WithRateLimiter(l *RateLimiter) HandlerOption {
	return func(h *Handler) { h.limiter = l }
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) HandlerOption {
	return func(h *Handler) { h.version = v }
}

// NewHandler creates a new API handler. notifier receives one
// NewCommentNotification per stored comment.
func NewHandler(
	topics *board.TopicService,
	favorites *board.FavoriteService,
	notifier board.Notifier,
	logger board.Logger,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		topics:    topics,
		favorites: favorites,
		notifier:  notifier,
		logger:    logger,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SubmitComment handles POST /api/topics/AddComment.
//
// The comment is stored first; only then is NewCommentNotification
// broadcast. A failed write answers 500 and broadcasts nothing. Delivery
// to observers never affects the response.
func (h *Handler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	if h.limiter != nil && !h.limiter.Allow(caller.ID) {
		h.respondError(w, http.StatusTooManyRequests, "Too many comments, slow down", "RATE_LIMITED")
		return
	}

	var input model.CommentInput
	if !h.decode(w, r, &input) {
		return
	}

	if input.UserID == 0 {
		input.UserID = caller.ID
	}
	if input.UserID != caller.ID && !caller.HasRole(model.RoleAdministrator) {
		h.respondError(w, http.StatusForbidden, "Cannot comment on behalf of another user", board.ErrCodeForbidden)
		return
	}

	comment, err := h.topics.AddComment(r.Context(), input)
	if err != nil {
		if board.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error(), board.ErrCodeValidation)
			return
		}
		h.logger.Errorf("Failed to add comment: topic_id=%d, user_id=%d, error=%v", input.TopicID, input.UserID, err)
		h.respondError(w, http.StatusInternalServerError, "Failed to add comment", "COMMENT_ERROR")
		return
	}

	h.notifier.Broadcast(model.EventNewComment, model.NewCommentEvent(comment))
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTopic handles PUT /api/topics/{id}.
//
// A body whose topicId differs from the path is rejected before the store
// is touched.
func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var update model.TopicUpdate
	if !h.decode(w, r, &update) {
		return
	}

	if update.TopicID != id {
		h.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("topicId %d does not match path id %d", update.TopicID, id), "ID_MISMATCH")
		return
	}

	if _, err := h.topics.Update(r.Context(), update); err != nil {
		if board.IsConstraintViolation(err) {
			h.respondError(w, http.StatusBadRequest, "Referenced topic type does not exist", board.ErrCodeValidation)
			return
		}
		h.respondServiceError(w, err, "Failed to update topic")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTopic handles DELETE /api/topics/{id}.
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.topics.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "Failed to delete topic")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTopics handles GET /api/topics.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topics.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "Failed to list topics")
		return
	}
	h.respondSuccess(w, http.StatusOK, topics, "")
}

// GetTopic handles GET /api/topics/{id}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	topic, err := h.topics.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to load topic")
		return
	}
	h.respondSuccess(w, http.StatusOK, topic, "")
}

// CreateTopic handles POST /api/topics.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var topic model.Topic
	if !h.decode(w, r, &topic) {
		return
	}

	created, err := h.topics.Create(r.Context(), topic)
	if err != nil {
		if board.IsConstraintViolation(err) {
			h.respondError(w, http.StatusBadRequest, "Referenced topic type does not exist", board.ErrCodeValidation)
			return
		}
		h.respondServiceError(w, err, "Failed to create topic")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/topics/%d", created.ID))
	h.respondSuccess(w, http.StatusCreated, created, "Topic created successfully")
}

// ListComments handles GET /api/topics/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.topics.Comments(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to list comments")
		return
	}
	h.respondSuccess(w, http.StatusOK, comments, "")
}

// ListTopicTypes handles GET /api/topictypes.
func (h *Handler) ListTopicTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.topics.ListTopicTypes(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "Failed to list topic types")
		return
	}
	h.respondSuccess(w, http.StatusOK, types, "")
}

// CreateTopicType handles POST /api/topictypes.
func (h *Handler) CreateTopicType(w http.ResponseWriter, r *http.Request) {
	var tt model.TopicType
	if !h.decode(w, r, &tt) {
		return
	}

	created, err := h.topics.CreateTopicType(r.Context(), tt)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create topic type")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/topictypes/%d", created.ID))
	h.respondSuccess(w, http.StatusCreated, created, "Topic type created successfully")
}

// ListFavorites handles GET /api/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	topics, err := h.favorites.List(r.Context(), caller.ID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to list favorites")
		return
	}
	h.respondSuccess(w, http.StatusOK, topics, "")
}

// AddFavorite handles PUT /api/favorites/{topicId}.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	topicID, ok := h.pathID(w, r, "topicId")
	if !ok {
		return
	}

	if err := h.favorites.Add(r.Context(), caller.ID, topicID); err != nil {
		h.respondServiceError(w, err, "Failed to add favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/favorites/{topicId}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	topicID, ok := h.pathID(w, r, "topicId")
	if !ok {
		return
	}

	if err := h.favorites.Remove(r.Context(), caller.ID, topicID); err != nil {
		h.respondServiceError(w, err, "Failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}
	if counter, ok := h.notifier.(interface{ Count() int }); ok {
		health["observers"] = counter.Count()
	}

	h.respondSuccess(w, http.StatusOK, health, "")
}

// respondServiceError maps a service error onto a status code. Anything
// unexpected is logged and answered with a generic 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case board.IsNoData(err):
		h.respondError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	case board.IsValidation(err):
		h.respondError(w, http.StatusBadRequest, err.Error(), board.ErrCodeValidation)
	default:
		h.logger.Errorf("%s: %v", action, err)
		h.respondError(w, http.StatusInternalServerError, action, "INTERNAL_ERROR")
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

// pathID parses a numeric route variable, answering 400 on failure.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid "+name, "INVALID_ID")
		return 0, false
	}
	return id, true
}

// respondError sends an error response.
func (h *Handler) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// respondSuccess sends a success response.
func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}
