package board

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/board/model"
)

// TopicService owns the write paths for topics and comments.
//
// Key operations:
//   - Update: single-writer replacement of a topic's mutable fields
//   - AddComment: append a comment to a topic
//   - Create, Get, List, Delete: the rest of the topic lifecycle
//
// Concurrent Updates of the same topic are last-write-wins; no version
// column is kept.
//
// Thread safety: Safe for concurrent use.
type TopicService struct {
	topicRepo     TopicRepository
	commentRepo   CommentRepository
	topicTypeRepo TopicTypeRepository
	userRepo      UserRepository
	checkRefs     bool
	logger        Logger
	now           func() time.Time
}

// TopicServiceOption is a function that configures a TopicService.
type TopicServiceOption func(*TopicService) error

// NewTopicService creates a new TopicService with the provided options.
//
// Required options:
//   - WithTopicServiceRepositories: topic and comment repositories
//   - WithTopicServiceLogger: logger instance
//
// Example:
//
//	service, err := board.NewTopicService(
//	    board.WithTopicServiceRepositories(repos.Topic, repos.Comment),
//	    board.WithTopicServiceLogger(logger),
//	    board.WithTopicTypeRepository(repos.TopicType),           // optional
//	    board.WithReferenceCheck(repos.TopicType, repos.User), // optional
//	)
func NewTopicService(opts ...TopicServiceOption) (*TopicService, error) {
	s := &TopicService{now: time.Now}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply topic service option", err)
		}
	}

	if s.topicRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "TopicRepository is required")
	}
	if s.commentRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "CommentRepository is required")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required")
	}

	return s, nil
}

// WithTopicServiceRepositories sets the required repositories.
//
// This is a required option for NewTopicService.
func WithTopicServiceRepositories(topicRepo TopicRepository, commentRepo CommentRepository) TopicServiceOption {
	return func(s *TopicService) error {
		if topicRepo == nil {
			return fmt.Errorf("topicRepo cannot be nil")
		}
		if commentRepo == nil {
			return fmt.Errorf("commentRepo cannot be nil")
		}
		s.topicRepo = topicRepo
		s.commentRepo = commentRepo
		return nil
	}
}

// WithTopicServiceLogger sets the logger instance.
//
// This is a required option for NewTopicService.
func WithTopicServiceLogger(logger Logger) TopicServiceOption {
	return func(s *TopicService) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithReferenceCheck makes the service look up referenced topic types,
// topics and users before writing, failing with ErrCodeValidation instead
// of leaving the rejection to the store's foreign keys.
//
// This is an optional configuration. It implies WithTopicTypeRepository.
func WithReferenceCheck(topicTypeRepo TopicTypeRepository, userRepo UserRepository) TopicServiceOption {
	return func(s *TopicService) error {
		if topicTypeRepo == nil {
			return fmt.Errorf("topicTypeRepo cannot be nil")
		}
		if userRepo == nil {
			return fmt.Errorf("userRepo cannot be nil")
		}
		s.topicTypeRepo = topicTypeRepo
		s.userRepo = userRepo
		s.checkRefs = true
		return nil
	}
}

// WithTopicTypeRepository enables topic type management
// (ListTopicTypes, CreateTopicType) without reference checks.
func WithTopicTypeRepository(topicTypeRepo TopicTypeRepository) TopicServiceOption {
	return func(s *TopicService) error {
		if topicTypeRepo == nil {
			return fmt.Errorf("topicTypeRepo cannot be nil")
		}
		s.topicTypeRepo = topicTypeRepo
		return nil
	}
}

// WithClock overrides the time source used to stamp comments.
func WithClock(now func() time.Time) TopicServiceOption {
	return func(s *TopicService) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		s.now = now
		return nil
	}
}

// ReferenceCheck reports whether explicit reference pre-checks are enabled.
func (s *TopicService) ReferenceCheck() bool {
	return s.checkRefs
}

// Update replaces the mutable fields of an existing topic.
//
// Returns ErrNoData without touching the store when the topic does not
// exist. Applying the same update twice yields the same stored state.
func (s *TopicService) Update(ctx context.Context, update model.TopicUpdate) (*model.Topic, error) {
	if err := update.Validate(); err != nil {
		return nil, NewErrorWithCause(ErrCodeValidation, "invalid topic update", err)
	}

	topic, err := s.topicRepo.Load(ctx, update.TopicID)
	if err != nil {
		return nil, err
	}

	if s.ReferenceCheck() {
		if err := s.checkTopicType(ctx, update.TopicTypeID); err != nil {
			return nil, err
		}
	}

	update.ApplyTo(&topic)

	saved, err := s.topicRepo.Save(ctx, topic)
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("topic updated: id=%d", saved.ID)
	return &saved, nil
}

// AddComment stores a new comment and returns it with its generated ID.
//
// Without reference checks a missing topic or user surfaces as the
// store's ErrCodeConstraint; with them, as ErrCodeValidation before any
// write. The operation is never retried here.
func (s *TopicService) AddComment(ctx context.Context, input model.CommentInput) (model.Comment, error) {
	if err := input.Validate(); err != nil {
		return model.Comment{}, NewErrorWithCause(ErrCodeValidation, "invalid comment", err)
	}

	if s.ReferenceCheck() {
		if err := s.checkCommentReferences(ctx, input); err != nil {
			return model.Comment{}, err
		}
	}

	comment, err := s.commentRepo.Insert(ctx, model.NewComment(input, s.now()))
	if err != nil {
		return model.Comment{}, err
	}

	s.logger.Debugf("comment added: id=%d, topic_id=%d, user_id=%d", comment.ID, comment.TopicID, comment.UserID)
	return comment, nil
}

// Create stores a new topic.
func (s *TopicService) Create(ctx context.Context, topic model.Topic) (model.Topic, error) {
	topic.ID = 0
	if err := topic.Validate(); err != nil {
		return topic, NewErrorWithCause(ErrCodeValidation, "invalid topic", err)
	}

	if s.ReferenceCheck() {
		if err := s.checkTopicType(ctx, topic.TopicTypeID); err != nil {
			return topic, err
		}
	}

	saved, err := s.topicRepo.Save(ctx, topic)
	if err != nil {
		return saved, err
	}

	s.logger.Infof("topic created: id=%d, name=%s", saved.ID, saved.Name)
	return saved, nil
}

// Get retrieves a topic by ID. Returns ErrNoData if not found.
func (s *TopicService) Get(ctx context.Context, id int64) (model.Topic, error) {
	return s.topicRepo.Load(ctx, id)
}

// List retrieves every topic.
func (s *TopicService) List(ctx context.Context) ([]model.Topic, error) {
	return s.topicRepo.List(ctx)
}

// Delete removes a topic and, through the store, its comments and
// bookmarks. Returns ErrNoData when the topic does not exist.
func (s *TopicService) Delete(ctx context.Context, id int64) error {
	topic, err := s.topicRepo.Load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.topicRepo.Delete(ctx, topic); err != nil {
		return err
	}

	s.logger.Infof("topic deleted: id=%d", id)
	return nil
}

// Comments retrieves the comments of a topic, oldest first.
// Returns ErrNoData when the topic does not exist.
func (s *TopicService) Comments(ctx context.Context, topicID int64) ([]model.Comment, error) {
	if _, err := s.topicRepo.Load(ctx, topicID); err != nil {
		return nil, err
	}
	return s.commentRepo.FindByTopic(ctx, topicID)
}

// ListTopicTypes retrieves every topic type.
// Requires WithTopicTypeRepository or WithReferenceCheck.
func (s *TopicService) ListTopicTypes(ctx context.Context) ([]model.TopicType, error) {
	if s.topicTypeRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "TopicTypeRepository is not configured")
	}
	return s.topicTypeRepo.List(ctx)
}

// CreateTopicType stores a new topic type.
// Requires WithTopicTypeRepository or WithReferenceCheck.
func (s *TopicService) CreateTopicType(ctx context.Context, tt model.TopicType) (model.TopicType, error) {
	if s.topicTypeRepo == nil {
		return tt, NewError(ErrCodeConfiguration, "TopicTypeRepository is not configured")
	}
	tt.ID = 0
	if err := tt.Validate(); err != nil {
		return tt, NewErrorWithCause(ErrCodeValidation, "invalid topic type", err)
	}
	return s.topicTypeRepo.Save(ctx, tt)
}

func (s *TopicService) checkTopicType(ctx context.Context, id int64) error {
	if _, err := s.topicTypeRepo.Load(ctx, id); err != nil {
		if IsNoData(err) {
			return NewError(ErrCodeValidation, fmt.Sprintf("topic type %d does not exist", id))
		}
		return err
	}
	return nil
}

func (s *TopicService) checkCommentReferences(ctx context.Context, input model.CommentInput) error {
	if _, err := s.topicRepo.Load(ctx, input.TopicID); err != nil {
		if IsNoData(err) {
			return NewError(ErrCodeValidation, fmt.Sprintf("topic %d does not exist", input.TopicID))
		}
		return err
	}
	if _, err := s.userRepo.Load(ctx, input.UserID); err != nil {
		if IsNoData(err) {
			return NewError(ErrCodeValidation, fmt.Sprintf("user %d does not exist", input.UserID))
		}
		return err
	}
	return nil
}
