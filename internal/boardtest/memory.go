// Package boardtest provides in-memory repositories and recording
// notifiers for tests. The store enforces the same referential rules as
// the SQL schema: dangling references fail with board.ErrCodeConstraint and
// deleting a topic removes its comments and bookmarks.
package boardtest

import (
	"context"
	"sort"
	"sync"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
)

// Store is an in-memory database backing every repository interface.
type Store struct {
	mu         sync.Mutex
	nextID     int64
	topics     map[int64]model.Topic
	topicTypes map[int64]model.TopicType
	comments   map[int64]model.Comment
	users      map[int64]model.User
	favs       map[model.FavTopic]struct{}

	// FailWrites makes every write fail with ErrCodeDatabase.
	FailWrites bool

	// Reads counts repository calls, for asserting "no store access".
	Reads  int
	Writes int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		topics:     make(map[int64]model.Topic),
		topicTypes: make(map[int64]model.TopicType),
		comments:   make(map[int64]model.Comment),
		users:      make(map[int64]model.User),
		favs:       make(map[model.FavTopic]struct{}),
	}
}

// Accesses returns the number of repository calls made so far.
func (s *Store) Accesses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Reads + s.Writes
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) write() error {
	s.Writes++
	if s.FailWrites {
		return board.NewError(board.ErrCodeDatabase, "write failed")
	}
	return nil
}

func constraint(msg string) error {
	return board.NewError(board.ErrCodeConstraint, msg)
}

// Topics returns a board.TopicRepository view of the store.
func (s *Store) Topics() board.TopicRepository { return topicRepo{s} }

// TopicTypes returns a board.TopicTypeRepository view of the store.
func (s *Store) TopicTypes() board.TopicTypeRepository { return topicTypeRepo{s} }

// Comments returns a board.CommentRepository view of the store.
func (s *Store) Comments() board.CommentRepository { return commentRepo{s} }

// Users returns a board.UserRepository view of the store.
func (s *Store) Users() board.UserRepository { return userRepo{s} }

// FavTopics returns a board.FavTopicRepository view of the store.
func (s *Store) FavTopics() board.FavTopicRepository { return favRepo{s} }

// SeedTopicType inserts a topic type directly.
func (s *Store) SeedTopicType(name string) model.TopicType {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt := model.TopicType{ID: s.id(), Name: name}
	s.topicTypes[tt.ID] = tt
	return tt
}

// SeedTopic inserts a topic directly, bypassing reference checks.
func (s *Store) SeedTopic(name, description string, topicTypeID int64) model.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Topic{ID: s.id(), Name: name, Description: description, TopicTypeID: topicTypeID}
	s.topics[t.ID] = t
	return t
}

// SeedUser inserts a user directly.
func (s *Store) SeedUser(username, role, token string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.id(), Name: username, Username: username, Role: role, Token: token}
	s.users[u.ID] = u
	return u
}

// CommentCount returns the number of stored comments.
func (s *Store) CommentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

// Topic returns a stored topic without counting the access.
func (s *Store) Topic(id int64) (model.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[id]
	return t, ok
}

type topicRepo struct{ s *Store }

func (r topicRepo) Load(_ context.Context, id int64) (model.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	t, ok := r.s.topics[id]
	if !ok {
		return t, board.ErrNoData
	}
	return t, nil
}

func (r topicRepo) List(_ context.Context) ([]model.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	out := make([]model.Topic, 0, len(r.s.topics))
	for _, t := range r.s.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r topicRepo) Save(_ context.Context, m model.Topic) (model.Topic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return m, err
	}
	if _, ok := r.s.topicTypes[m.TopicTypeID]; !ok {
		return m, constraint("topic type does not exist")
	}
	if m.ID == 0 {
		m.ID = r.s.id()
	}
	r.s.topics[m.ID] = m
	return m, nil
}

func (r topicRepo) Delete(_ context.Context, m model.Topic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return err
	}
	delete(r.s.topics, m.ID)
	for id, c := range r.s.comments {
		if c.TopicID == m.ID {
			delete(r.s.comments, id)
		}
	}
	for fav := range r.s.favs {
		if fav.TopicID == m.ID {
			delete(r.s.favs, fav)
		}
	}
	return nil
}

type topicTypeRepo struct{ s *Store }

func (r topicTypeRepo) Load(_ context.Context, id int64) (model.TopicType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	tt, ok := r.s.topicTypes[id]
	if !ok {
		return tt, board.ErrNoData
	}
	return tt, nil
}

func (r topicTypeRepo) List(_ context.Context) ([]model.TopicType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	out := make([]model.TopicType, 0, len(r.s.topicTypes))
	for _, tt := range r.s.topicTypes {
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r topicTypeRepo) Save(_ context.Context, m model.TopicType) (model.TopicType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return m, err
	}
	if m.ID == 0 {
		m.ID = r.s.id()
	}
	r.s.topicTypes[m.ID] = m
	return m, nil
}

type commentRepo struct{ s *Store }

func (r commentRepo) Load(_ context.Context, id int64) (model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	c, ok := r.s.comments[id]
	if !ok {
		return c, board.ErrNoData
	}
	return c, nil
}

func (r commentRepo) Insert(_ context.Context, m model.Comment) (model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return m, err
	}
	if _, ok := r.s.topics[m.TopicID]; !ok {
		return m, constraint("topic does not exist")
	}
	if _, ok := r.s.users[m.UserID]; !ok {
		return m, constraint("user does not exist")
	}
	m.ID = r.s.id()
	r.s.comments[m.ID] = m
	return m, nil
}

func (r commentRepo) FindByTopic(_ context.Context, topicID int64) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	out := []model.Comment{}
	for _, c := range r.s.comments {
		if c.TopicID == topicID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Load(_ context.Context, id int64) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	u, ok := r.s.users[id]
	if !ok {
		return u, board.ErrNoData
	}
	return u, nil
}

func (r userRepo) Save(_ context.Context, m model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return m, err
	}
	for _, u := range r.s.users {
		if u.Token == m.Token && u.ID != m.ID {
			return m, board.NewError(board.ErrCodeConflict, "token already in use")
		}
	}
	if m.ID == 0 {
		m.ID = r.s.id()
	}
	r.s.users[m.ID] = m
	return m, nil
}

func (r userRepo) FindByToken(_ context.Context, token string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	for _, u := range r.s.users {
		if token != "" && u.Token == token {
			return u, nil
		}
	}
	return model.User{}, board.ErrNoData
}

type favRepo struct{ s *Store }

func (r favRepo) Add(_ context.Context, m model.FavTopic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return err
	}
	if _, ok := r.s.topics[m.TopicID]; !ok {
		return constraint("topic does not exist")
	}
	if _, ok := r.s.users[m.UserID]; !ok {
		return constraint("user does not exist")
	}
	r.s.favs[m] = struct{}{}
	return nil
}

func (r favRepo) Remove(_ context.Context, m model.FavTopic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return err
	}
	delete(r.s.favs, m)
	return nil
}

func (r favRepo) FindByUser(_ context.Context, userID int64) ([]model.FavTopic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Reads++
	out := []model.FavTopic{}
	for fav := range r.s.favs {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicID < out[j].TopicID })
	return out, nil
}
