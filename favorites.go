package board

import (
	"context"
	"fmt"

	"github.com/coregx/board/model"
)

// FavoriteService manages per-user topic bookmarks.
//
// Thread safety: Safe for concurrent use.
type FavoriteService struct {
	favRepo   FavTopicRepository
	topicRepo TopicRepository
	logger    Logger
}

// FavoriteServiceOption is a function that configures a FavoriteService.
type FavoriteServiceOption func(*FavoriteService) error

// NewFavoriteService creates a new FavoriteService with the provided options.
//
// Required options:
//   - WithFavoriteRepositories: bookmark and topic repositories
//   - WithFavoriteLogger: logger instance
func NewFavoriteService(opts ...FavoriteServiceOption) (*FavoriteService, error) {
	s := &FavoriteService{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply favorite service option", err)
		}
	}

	if s.favRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "FavTopicRepository is required")
	}
	if s.topicRepo == nil {
		return nil, NewError(ErrCodeConfiguration, "TopicRepository is required")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required")
	}

	return s, nil
}

// WithFavoriteRepositories sets the required repositories.
func WithFavoriteRepositories(favRepo FavTopicRepository, topicRepo TopicRepository) FavoriteServiceOption {
	return func(s *FavoriteService) error {
		if favRepo == nil {
			return fmt.Errorf("favRepo cannot be nil")
		}
		if topicRepo == nil {
			return fmt.Errorf("topicRepo cannot be nil")
		}
		s.favRepo = favRepo
		s.topicRepo = topicRepo
		return nil
	}
}

// WithFavoriteLogger sets the logger instance.
func WithFavoriteLogger(logger Logger) FavoriteServiceOption {
	return func(s *FavoriteService) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// Add bookmarks topicID for userID. Returns ErrNoData when the topic
// does not exist. Bookmarking twice is not an error.
func (s *FavoriteService) Add(ctx context.Context, userID, topicID int64) error {
	if _, err := s.topicRepo.Load(ctx, topicID); err != nil {
		return err
	}
	if err := s.favRepo.Add(ctx, model.NewFavTopic(userID, topicID)); err != nil {
		return err
	}
	s.logger.Debugf("favorite added: user_id=%d, topic_id=%d", userID, topicID)
	return nil
}

// Remove deletes the bookmark of topicID for userID.
func (s *FavoriteService) Remove(ctx context.Context, userID, topicID int64) error {
	if err := s.favRepo.Remove(ctx, model.NewFavTopic(userID, topicID)); err != nil {
		return err
	}
	s.logger.Debugf("favorite removed: user_id=%d, topic_id=%d", userID, topicID)
	return nil
}

// List returns the topics bookmarked by userID.
func (s *FavoriteService) List(ctx context.Context, userID int64) ([]model.Topic, error) {
	favs, err := s.favRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	topics := make([]model.Topic, 0, len(favs))
	for _, fav := range favs {
		topic, err := s.topicRepo.Load(ctx, fav.TopicID)
		if IsNoData(err) {
			// removed between the two reads
			continue
		}
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}
